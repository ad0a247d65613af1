// Package store defines the document store the services persist through.
// Implementations live in the mongo and postgres subpackages.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/flathunt/platform/shared/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique-key violation, such as a taken email.
	ErrConflict = errors.New("unique constraint violated")
	// ErrDuplicate reports that an add-if-absent found the element present.
	ErrDuplicate = errors.New("element already present")
)

// Users holds user records. Emails are matched exactly.
type Users interface {
	// Create assigns user.ID and the timestamps, and returns ErrConflict
	// when the email is already taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIDs returns the users that exist, keyed by id. Missing ids are skipped.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	// AddFavorite appends a snapshot of apartment to the user's favorites
	// unless one with the same id is already there, as a single atomic step.
	// It returns ErrNotFound for an unknown user and ErrDuplicate when the
	// apartment is already a favorite.
	AddFavorite(ctx context.Context, userID string, apartment *models.Apartment) (*models.User, error)
}

// Proximity limits results to MaxDistanceMeters around Origin.
type Proximity struct {
	Origin            models.Point
	MaxDistanceMeters float64
}

// ApartmentQuery is a conjunction of the filters that are set. City and
// Country must already be lower-cased. Results are nearest-first when Near
// is set.
type ApartmentQuery struct {
	City    string
	Country string
	Rooms   int
	Near    *Proximity
}

type Apartments interface {
	// Create assigns apartment.ID and CreatedAt.
	Create(ctx context.Context, apartment *models.Apartment) error
	GetByID(ctx context.Context, id string) (*models.Apartment, error)
	Search(ctx context.Context, q ApartmentQuery) ([]models.Apartment, error)
}

// Store is an open connection to one backend.
type Store interface {
	Users() Users
	Apartments() Apartments
	Ping(ctx context.Context) error
	// EnsureSchema creates indexes or applies migrations. It is idempotent.
	EnsureSchema(ctx context.Context) error
	Close(ctx context.Context) error
}

// OwnersOf loads the users that listed the given apartments, keyed by id.
// Owners that no longer exist are simply absent from the map.
func OwnersOf(ctx context.Context, users Users, apartments []models.Apartment) (map[string]*models.User, error) {
	ids := models.OwnerIDs(apartments)
	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}
	owners, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve apartment owners: %w", err)
	}
	return owners, nil
}
