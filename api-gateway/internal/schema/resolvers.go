package schema

import (
	"github.com/flathunt/platform/api-gateway/internal/client"
	"github.com/flathunt/platform/shared/logging"
	"github.com/graphql-go/graphql"
)

type resolver struct {
	accounts Accounts
	listings Listings
	logger   logging.Logger
}

// shape turns a service envelope into the GraphQL payload. A failed call
// becomes a 502 envelope rather than a GraphQL error, so clients always get
// a response object.
func (r *resolver) shape(p graphql.ResolveParams, env client.Envelope, err error, keys ...string) (any, error) {
	if err != nil {
		r.logger.Error(p.Context, "service call failed", "field", p.Info.FieldName, "error", err)
		env = client.Unavailable(err)
	}
	out := map[string]any{"response": env.Response()}
	for _, k := range keys {
		out[k] = env[k]
	}
	return out, nil
}

func (r *resolver) auth(p graphql.ResolveParams) (any, error) {
	env, err := r.accounts.Login(p.Context, stringArg(p, "email"), stringArg(p, "password"))
	return r.shape(p, env, err, "user", "jwt")
}

func (r *resolver) user(p graphql.ResolveParams) (any, error) {
	env, err := r.accounts.FindUser(p.Context, stringArg(p, "userId"))
	return r.shape(p, env, err, "user")
}

func (r *resolver) apartments(p graphql.ResolveParams) (any, error) {
	env, err := r.listings.Search(p.Context, client.SearchInput{
		City:        optString(p, "city"),
		Country:     optString(p, "country"),
		Rooms:       optInt(p, "rooms"),
		Lng:         optFloat(p, "lng"),
		Lat:         optFloat(p, "lat"),
		MaxDistance: optFloat(p, "maxDistance"),
	})
	return r.shape(p, env, err, "apartments")
}

func (r *resolver) apartment(p graphql.ResolveParams) (any, error) {
	env, err := r.listings.FindApartment(p.Context, stringArg(p, "apartmentId"))
	return r.shape(p, env, err, "apartment")
}

func (r *resolver) addUser(p graphql.ResolveParams) (any, error) {
	env, err := r.accounts.Register(p.Context, client.RegisterInput{
		FirstName: stringArg(p, "firstName"),
		LastName:  stringArg(p, "lastName"),
		Email:     stringArg(p, "email"),
		Password:  stringArg(p, "password"),
	})
	return r.shape(p, env, err, "user", "jwt")
}

func (r *resolver) addApartment(p graphql.ResolveParams) (any, error) {
	in := client.AddApartmentInput{
		Description: stringArg(p, "description"),
		Rooms:       optInt(p, "rooms"),
		Country:     stringArg(p, "country"),
		City:        stringArg(p, "city"),
	}
	if f := optFloat(p, "lng"); f != nil {
		in.Lng = *f
	}
	if f := optFloat(p, "lat"); f != nil {
		in.Lat = *f
	}
	env, err := r.listings.AddApartment(p.Context, in)
	return r.shape(p, env, err, "apartment")
}

func (r *resolver) addFavorite(p graphql.ResolveParams) (any, error) {
	env, err := r.accounts.AddFavorite(p.Context, stringArg(p, "apartmentId"))
	return r.shape(p, env, err, "user")
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func optString(p graphql.ResolveParams, name string) *string {
	if s, ok := p.Args[name].(string); ok {
		return &s
	}
	return nil
}

func optInt(p graphql.ResolveParams, name string) *int {
	if n, ok := p.Args[name].(int); ok {
		return &n
	}
	return nil
}

// optFloat accepts an int too, since a literal like lng: 13 parses as Int.
func optFloat(p graphql.ResolveParams, name string) *float64 {
	switch v := p.Args[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}
