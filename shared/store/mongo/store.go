// Package mongo implements store.Store on MongoDB. Apartment geometry is a
// GeoJSON point under a 2dsphere index and favorites are embedded in the
// user document.
package mongo

import (
	"context"
	"fmt"

	"github.com/flathunt/platform/shared/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection      = "users"
	ApartmentsCollection = "apartments"
)

type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	users      *Users
	apartments *Apartments
}

// Open connects to uri and verifies the connection with a ping.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

// New wraps an existing database handle. Close does not disconnect it.
func New(db *mongo.Database) *Store {
	return &Store{
		db:         db,
		users:      &Users{coll: db.Collection(UsersCollection)},
		apartments: &Apartments{coll: db.Collection(ApartmentsCollection)},
	}
}

func (s *Store) Users() store.Users           { return s.users }
func (s *Store) Apartments() store.Apartments { return s.apartments }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// EnsureSchema creates the unique email index and the geometry index.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	_, err = s.apartments.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "geometry", Value: "2dsphere"}},
			Options: options.Index().SetName("geometry_2dsphere"),
		},
		{
			Keys:    bson.D{{Key: "city", Value: 1}, {Key: "country", Value: 1}, {Key: "rooms", Value: 1}},
			Options: options.Index().SetName("city_country_rooms"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create apartments indexes: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
