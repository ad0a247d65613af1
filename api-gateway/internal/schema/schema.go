// Package schema defines the public GraphQL API. Every field forwards to the
// owning service and reshapes its envelope into { response, <payload> }.
package schema

import (
	"context"
	"net/http"

	"github.com/flathunt/platform/api-gateway/internal/client"
	"github.com/flathunt/platform/shared/logging"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// Accounts is implemented by client.AccountClient.
type Accounts interface {
	Register(ctx context.Context, in client.RegisterInput) (client.Envelope, error)
	Login(ctx context.Context, email, password string) (client.Envelope, error)
	FindUser(ctx context.Context, userID string) (client.Envelope, error)
	AddFavorite(ctx context.Context, apartmentID string) (client.Envelope, error)
}

// Listings is implemented by client.ListingClient.
type Listings interface {
	AddApartment(ctx context.Context, in client.AddApartmentInput) (client.Envelope, error)
	Search(ctx context.Context, in client.SearchInput) (client.Envelope, error)
	FindApartment(ctx context.Context, apartmentID string) (client.Envelope, error)
}

// New builds the schema with queries auth, user, apartments and apartment,
// and mutations addUser, addApartment and addFavorite.
func New(accounts Accounts, listings Listings, logger logging.Logger) (graphql.Schema, error) {
	r := &resolver{accounts: accounts, listings: listings, logger: logger}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"auth": &graphql.Field{
				Type: authenticationResponseType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.String},
					"password": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.auth,
			},
			"user": &graphql.Field{
				Type: specifiedUserResponseType,
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: r.user,
			},
			"apartments": &graphql.Field{
				Type: apartmentSearchResponseType,
				Args: graphql.FieldConfigArgument{
					"rooms":       &graphql.ArgumentConfig{Type: graphql.Int},
					"country":     &graphql.ArgumentConfig{Type: graphql.String},
					"city":        &graphql.ArgumentConfig{Type: graphql.String},
					"lng":         &graphql.ArgumentConfig{Type: graphql.Float},
					"lat":         &graphql.ArgumentConfig{Type: graphql.Float},
					"maxDistance": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.apartments,
			},
			"apartment": &graphql.Field{
				Type: specifiedApartmentResponseType,
				Args: graphql.FieldConfigArgument{
					"apartmentId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: r.apartment,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addUser": &graphql.Field{
				Type: userRegistrationResponseType,
				Args: graphql.FieldConfigArgument{
					"firstName": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lastName":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.addUser,
			},
			"addApartment": &graphql.Field{
				Type: addApartmentResponseType,
				Args: graphql.FieldConfigArgument{
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"rooms":       &graphql.ArgumentConfig{Type: graphql.Int},
					"country":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"city":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lng":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: r.addApartment,
			},
			"addFavorite": &graphql.Field{
				Type: addFavoriteResponseType,
				Args: graphql.FieldConfigArgument{
					"apartmentId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.addFavorite,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

// NewHandler serves the schema over HTTP GET and POST, with the GraphiQL
// IDE on browser GETs when graphiql is set. The request context reaches
// every resolver.
func NewHandler(s *graphql.Schema, graphiql bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:   s,
		Pretty:   true,
		GraphiQL: graphiql,
	})
}
