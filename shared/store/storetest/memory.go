// Package storetest provides an in-memory store.Store for service tests.
// It enforces the same uniqueness and atomicity guarantees as the real
// backends, and lets a test inject failures per operation.
package storetest

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/utils"
)

const earthRadiusMeters = 6371008.8

type Store struct {
	mu         sync.Mutex
	users      map[string]*models.User
	userOrder  []string
	apartments map[string]*models.Apartment
	aptOrder   []string

	// Fail maps an operation name such as "users.GetByID" to the error it
	// should return instead of running.
	Fail map[string]error
	// Delay makes an operation wait before running. The wait ends early with
	// the context's error when its deadline passes.
	Delay map[string]time.Duration
}

func New() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		apartments: make(map[string]*models.Apartment),
		Fail:       make(map[string]error),
		Delay:      make(map[string]time.Duration),
	}
}

func (s *Store) Users() store.Users           { return (*users)(s) }
func (s *Store) Apartments() store.Apartments { return (*apartments)(s) }

func (s *Store) Ping(ctx context.Context) error         { return s.failure(ctx, "Ping") }
func (s *Store) EnsureSchema(ctx context.Context) error { return s.failure(ctx, "EnsureSchema") }
func (s *Store) Close(context.Context) error            { return nil }

// failure must be called with s.mu unlocked.
func (s *Store) failure(ctx context.Context, op string) error {
	if d := s.Delay[op]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Fail[op]
}

// UserCount returns how many users are stored.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type users Store

func (u *users) Create(ctx context.Context, user *models.User) error {
	s := (*Store)(u)
	if err := s.failure(ctx, "users.Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrConflict
		}
	}
	now := time.Now().UTC()
	user.ID = utils.NewID()
	user.Favorites = []models.Apartment{}
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(user)
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

func (u *users) GetByID(ctx context.Context, id string) (*models.User, error) {
	s := (*Store)(u)
	if err := s.failure(ctx, "users.GetByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(user), nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s := (*Store)(u)
	if err := s.failure(ctx, "users.GetByEmail"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, store.ErrNotFound
}

func (u *users) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	s := (*Store)(u)
	if err := s.failure(ctx, "users.GetByIDs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out[id] = cloneUser(user)
		}
	}
	return out, nil
}

func (u *users) AddFavorite(ctx context.Context, userID string, apartment *models.Apartment) (*models.User, error) {
	s := (*Store)(u)
	if err := s.failure(ctx, "users.AddFavorite"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if user.HasFavorite(apartment.ID) {
		return nil, store.ErrDuplicate
	}
	user.Favorites = append(user.Favorites, *apartment)
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

type apartments Store

func (a *apartments) Create(ctx context.Context, apartment *models.Apartment) error {
	s := (*Store)(a)
	if err := s.failure(ctx, "apartments.Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	apartment.ID = utils.NewID()
	apartment.CreatedAt = time.Now().UTC()
	cp := *apartment
	s.apartments[cp.ID] = &cp
	s.aptOrder = append(s.aptOrder, cp.ID)
	return nil
}

func (a *apartments) GetByID(ctx context.Context, id string) (*models.Apartment, error) {
	s := (*Store)(a)
	if err := s.failure(ctx, "apartments.GetByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	apt, ok := s.apartments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (a *apartments) Search(ctx context.Context, q store.ApartmentQuery) ([]models.Apartment, error) {
	s := (*Store)(a)
	if err := s.failure(ctx, "apartments.Search"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	type hit struct {
		apt      models.Apartment
		distance float64
	}
	var hits []hit
	for _, id := range s.aptOrder {
		apt := s.apartments[id]
		if q.City != "" && apt.City != q.City {
			continue
		}
		if q.Country != "" && apt.Country != q.Country {
			continue
		}
		if q.Rooms > 0 && apt.Rooms != q.Rooms {
			continue
		}
		var d float64
		if q.Near != nil {
			d = Haversine(q.Near.Origin, apt.Geometry)
			if d > q.Near.MaxDistanceMeters {
				continue
			}
		}
		hits = append(hits, hit{apt: *apt, distance: d})
	}
	if q.Near != nil {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	}

	out := make([]models.Apartment, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.apt)
	}
	return out, nil
}

// Haversine returns the great-circle distance between two points in metres.
func Haversine(a, b models.Point) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	lat1, lat2 := toRad(a.Lat()), toRad(b.Lat())
	dLat := lat2 - lat1
	dLng := toRad(b.Lng() - a.Lng())
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Favorites = append([]models.Apartment{}, u.Favorites...)
	return &cp
}

var _ store.Store = (*Store)(nil)
