package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
)

// ApartmentReadRepository assembles apartment views with their owners
// resolved from the users collection. Each store round trip gets its own
// timeout.
type ApartmentReadRepository struct {
	apartments store.Apartments
	users      store.Users
	timeout    time.Duration
}

func NewApartmentReadRepository(st store.Store, timeout time.Duration) *ApartmentReadRepository {
	return &ApartmentReadRepository{apartments: st.Apartments(), users: st.Users(), timeout: timeout}
}

// GetByID returns store.ErrNotFound when the apartment is absent. A missing
// owner leaves AddedBy nil.
func (r *ApartmentReadRepository) GetByID(ctx context.Context, id string) (*models.ApartmentView, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	apartment, err := r.apartments.GetByID(lookupCtx, id)
	cancel()
	if err != nil {
		return nil, err
	}
	owners, err := r.owners(ctx, []models.Apartment{*apartment})
	if err != nil {
		return nil, err
	}
	return models.NewApartmentView(apartment, models.ResolveOwner(apartment, owners)), nil
}

func (r *ApartmentReadRepository) Search(ctx context.Context, q store.ApartmentQuery) ([]models.ApartmentView, error) {
	searchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	apartments, err := r.apartments.Search(searchCtx, q)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to search apartments: %w", err)
	}
	owners, err := r.owners(ctx, apartments)
	if err != nil {
		return nil, err
	}
	return models.NewApartmentViews(apartments, owners), nil
}

func (r *ApartmentReadRepository) owners(ctx context.Context, apartments []models.Apartment) (map[string]*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return store.OwnersOf(ctx, r.users, apartments)
}
