package schema

import "github.com/graphql-go/graphql"

// Object types resolve from the decoded service JSON, so fields are plain
// map lookups handled by graphql's default resolver.

var baseResponseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BaseResponse",
	Fields: graphql.Fields{
		"success":      &graphql.Field{Type: graphql.Boolean},
		"statusCode":   &graphql.Field{Type: graphql.String},
		"message":      &graphql.Field{Type: graphql.String},
		"errorMessage": &graphql.Field{Type: graphql.String},
	},
})

var geometryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Geometry",
	Fields: graphql.Fields{
		"type":        &graphql.Field{Type: graphql.String},
		"coordinates": &graphql.Field{Type: graphql.NewList(graphql.Float)},
	},
})

var apartmentType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Apartment",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.ID},
		"description": &graphql.Field{Type: graphql.String},
		"rooms":       &graphql.Field{Type: graphql.Int},
		"country":     &graphql.Field{Type: graphql.String},
		"city":        &graphql.Field{Type: graphql.String},
		"lng":         &graphql.Field{Type: graphql.Float},
		"lat":         &graphql.Field{Type: graphql.Float},
		"geometry":    &graphql.Field{Type: geometryType},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.ID},
		"firstName":    &graphql.Field{Type: graphql.String},
		"lastName":     &graphql.Field{Type: graphql.String},
		"email":        &graphql.Field{Type: graphql.String},
		"favorites":    &graphql.Field{Type: graphql.NewList(apartmentType)},
		"listingCount": &graphql.Field{Type: graphql.Int},
	},
})

func init() {
	// User and Apartment refer to each other.
	apartmentType.AddFieldConfig("addedBy", &graphql.Field{Type: userType})
}

// responseType builds a wrapper such as AddApartmentResponse with the
// shared response field plus the operation's payload fields.
func responseType(name string, payload graphql.Fields) *graphql.Object {
	fields := graphql.Fields{"response": &graphql.Field{Type: baseResponseType}}
	for k, v := range payload {
		fields[k] = v
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

var (
	userRegistrationResponseType = responseType("UserRegistrationResponse", graphql.Fields{
		"user": &graphql.Field{Type: userType},
		"jwt":  &graphql.Field{Type: graphql.String},
	})
	authenticationResponseType = responseType("AuthenticationResponse", graphql.Fields{
		"user": &graphql.Field{Type: userType},
		"jwt":  &graphql.Field{Type: graphql.String},
	})
	specifiedUserResponseType = responseType("SpecifiedUserResponse", graphql.Fields{
		"user": &graphql.Field{Type: userType},
	})
	addFavoriteResponseType = responseType("AddFavoriteResponse", graphql.Fields{
		"user": &graphql.Field{Type: userType},
	})
	addApartmentResponseType = responseType("AddApartmentResponse", graphql.Fields{
		"apartment": &graphql.Field{Type: apartmentType},
	})
	specifiedApartmentResponseType = responseType("SpecifiedApartmentResponse", graphql.Fields{
		"apartment": &graphql.Field{Type: apartmentType},
	})
	apartmentSearchResponseType = responseType("ApartmentSearchResponse", graphql.Fields{
		"apartments": &graphql.Field{Type: graphql.NewList(apartmentType)},
	})
)
