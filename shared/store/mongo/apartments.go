package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Apartments struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r *Apartments) Create(ctx context.Context, apartment *models.Apartment) error {
	now := time.Now().UTC()
	if r.now != nil {
		now = r.now().UTC()
	}
	apartment.ID = primitive.NewObjectID().Hex()
	apartment.CreatedAt = now

	doc, err := toApartmentDoc(apartment)
	if err != nil {
		return fmt.Errorf("failed to encode apartment: %w", err)
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		apartment.ID = ""
		return fmt.Errorf("failed to create apartment: %w", err)
	}
	return nil
}

func (r *Apartments) GetByID(ctx context.Context, id string) (*models.Apartment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	var doc apartmentDoc
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apartment: %w", err)
	}
	a := doc.model()
	return &a, nil
}

// Search relies on $nearSphere for distance ordering when q.Near is set.
func (r *Apartments) Search(ctx context.Context, q store.ApartmentQuery) ([]models.Apartment, error) {
	cursor, err := r.coll.Find(ctx, searchFilter(q))
	if err != nil {
		return nil, fmt.Errorf("failed to search apartments: %w", err)
	}
	var docs []apartmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode apartments: %w", err)
	}
	apartments := make([]models.Apartment, 0, len(docs))
	for _, d := range docs {
		apartments = append(apartments, d.model())
	}
	return apartments, nil
}

func searchFilter(q store.ApartmentQuery) bson.D {
	filter := bson.D{}
	if q.City != "" {
		filter = append(filter, bson.E{Key: "city", Value: q.City})
	}
	if q.Country != "" {
		filter = append(filter, bson.E{Key: "country", Value: q.Country})
	}
	if q.Rooms > 0 {
		filter = append(filter, bson.E{Key: "rooms", Value: q.Rooms})
	}
	if q.Near != nil {
		filter = append(filter, bson.E{Key: "geometry", Value: bson.D{
			{Key: "$nearSphere", Value: bson.D{
				{Key: "$geometry", Value: toPointDoc(q.Near.Origin)},
				{Key: "$maxDistance", Value: q.Near.MaxDistanceMeters},
			}},
		}})
	}
	return filter
}
