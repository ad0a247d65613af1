package repository

import (
	"context"

	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
)

// ListingCountKeyPrefix namespaces the per-user listing counters in Redis.
const ListingCountKeyPrefix = "user:listings:"

// ListingCounter is the Redis projection of how many apartments each user
// has listed. shared/redis.Counter satisfies it.
type ListingCounter interface {
	IncrOnce(ctx context.Context, userID, token string) (bool, error)
	Get(ctx context.Context, userID string) (int64, error)
}

// UserReadRepository assembles user read models. Users come from the
// document store; listing counts come from the Redis projection, which is
// optional.
type UserReadRepository struct {
	users    store.Users
	listings ListingCounter
}

func NewUserReadRepository(users store.Users, listings ListingCounter) *UserReadRepository {
	return &UserReadRepository{users: users, listings: listings}
}

// Owners loads the users that listed the given apartments, keyed by id.
func (r *UserReadRepository) Owners(ctx context.Context, apartments []models.Apartment) (map[string]*models.User, error) {
	return store.OwnersOf(ctx, r.users, apartments)
}

// ListingCount returns nil when no projection is configured.
func (r *UserReadRepository) ListingCount(ctx context.Context, userID string) (*int64, error) {
	if r.listings == nil {
		return nil, nil
	}
	n, err := r.listings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// IncrListingCount is called for every apartment.created event. A second
// delivery for the same apartment reports applied=false.
func (r *UserReadRepository) IncrListingCount(ctx context.Context, userID, apartmentID string) (bool, error) {
	if r.listings == nil {
		return false, nil
	}
	return r.listings.IncrOnce(ctx, userID, apartmentID)
}
