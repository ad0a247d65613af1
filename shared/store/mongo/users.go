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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Users struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r *Users) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	now := r.clock()
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Favorites: []apartmentDoc{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = doc.ID.Hex()
	user.Favorites = []models.Apartment{}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *Users) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.model(), nil
}

func (r *Users) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return users, nil
	}

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for _, d := range docs {
		u := d.model()
		users[u.ID] = u
	}
	return users, nil
}

// AddFavorite pushes the snapshot only when no favorite with the same _id
// exists; the filter and the push run as one findAndModify.
func (r *Users) AddFavorite(ctx context.Context, userID string, apartment *models.Apartment) (*models.User, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	fav, err := toApartmentDoc(apartment)
	if err != nil {
		return nil, fmt.Errorf("invalid apartment id %q: %w", apartment.ID, err)
	}

	filter := bson.D{
		{Key: "_id", Value: uid},
		{Key: "favorites._id", Value: bson.D{{Key: "$ne", Value: fav.ID}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "favorites", Value: fav}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: r.clock()}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.model(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	// Nothing matched: either the user is gone or the favorite is present.
	if _, err := r.findOne(ctx, bson.D{{Key: "_id", Value: uid}}); err != nil {
		return nil, err
	}
	return nil, store.ErrDuplicate
}
