package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userID      = "5f8d0d55b54764421b7156c9"
	apartmentID = "5f8d0d55b54764421b7156d0"
)

var fixedTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	s := New(db)
	s.users.now = func() time.Time { return fixedTime }
	s.apartments.now = func() time.Time { return fixedTime }
	return s, mock
}

var userCols = []string{"id", "first_name", "last_name", "email", "password_hash", "created_at", "updated_at"}

func userRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(id, "Ada", "Lovelace", "ada@example.com", "hash", fixedTime, fixedTime)
}

func snapshot(t *testing.T, id string) []byte {
	t.Helper()
	raw, err := json.Marshal(models.Apartment{
		ID: id, Rooms: 2, City: "berlin", Country: "germany",
		Geometry: models.Point{Type: models.PointType, Coordinates: [2]float64{13.4, 52.5}},
	})
	require.NoError(t, err)
	return raw
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_create_users_apartments.sql",
		"migrations/00002_create_user_favorites.sql",
	}, files)
}

func TestUsers_Create(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+users\s*\(id, first_name, last_name, email, password_hash, created_at, updated_at\)`).
		WithArgs(sqlmock.AnyArg(), "Ada", "Lovelace", "ada@example.com", "hash", fixedTime, fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	assert.Len(t, u.ID, 24)
	assert.Equal(t, fixedTime, u.CreatedAt)
	assert.Empty(t, u.Favorites)
}

func TestUsers_Create_EmailTaken(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_unique"})

	u := &models.User{Email: "ada@example.com"}
	err := s.Users().Create(context.Background(), u)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Empty(t, u.ID)
}

func TestUsers_GetByID(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`SELECT id, first_name, last_name, email, password_hash, created_at, updated_at FROM users WHERE id = \$1`).
		WithArgs(userID).
		WillReturnRows(userRow(userID))
	mock.ExpectQuery(`(?s)SELECT user_id, snapshot FROM user_favorites.*ORDER BY user_id, position`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "snapshot"}).
			AddRow(userID, snapshot(t, apartmentID)).
			AddRow(userID, snapshot(t, "5f8d0d55b54764421b7156d1")))

	u, err := s.Users().GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)
	require.Len(t, u.Favorites, 2)
	assert.Equal(t, apartmentID, u.Favorites[0].ID)
	assert.Equal(t, 13.4, u.Favorites[0].Geometry.Lng())
}

func TestUsers_GetByEmail_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Users().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_GetByIDs(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`FROM users WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(userRow(userID))
	mock.ExpectQuery(`FROM user_favorites`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "snapshot"}))

	users, err := s.Users().GetByIDs(context.Background(), []string{userID, "5f8d0d55b54764421b7156ff"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotNil(t, users[userID].Favorites)

	empty, err := s.Users().GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUsers_AddFavorite(t *testing.T) {
	apt := &models.Apartment{ID: apartmentID, Rooms: 2, City: "berlin", Country: "germany"}

	t.Run("inserted", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(`(?s)INSERT INTO user_favorites.*ON CONFLICT \(user_id, apartment_id\) DO NOTHING`).
			WithArgs(userID, apartmentID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE users SET updated_at = \$2 WHERE id = \$1`).
			WithArgs(userID, fixedTime).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(userRow(userID))
		mock.ExpectQuery(`FROM user_favorites`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "snapshot"}).AddRow(userID, snapshot(t, apartmentID)))

		u, err := s.Users().AddFavorite(context.Background(), userID, apt)
		require.NoError(t, err)
		require.Len(t, u.Favorites, 1)
	})

	t.Run("already present", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(`INSERT INTO user_favorites`).
			WithArgs(userID, apartmentID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.Users().AddFavorite(context.Background(), userID, apt)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("unknown user", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(`INSERT INTO user_favorites`).
			WillReturnError(&pq.Error{Code: "23503"})

		_, err := s.Users().AddFavorite(context.Background(), userID, apt)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("driver failure", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectExec(`INSERT INTO user_favorites`).
			WillReturnError(errors.New("connection reset"))

		_, err := s.Users().AddFavorite(context.Background(), userID, apt)
		require.Error(t, err)
		assert.NotErrorIs(t, err, store.ErrDuplicate)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

var apartmentCols = []string{"id", "description", "rooms", "country", "city", "st_x", "st_y", "added_by", "created_at"}

func TestApartments_Create(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectExec(`(?s)INSERT INTO apartments .*ST_SetSRID\(ST_MakePoint\(\$6, \$7\), 4326\)::geography`).
		WithArgs(sqlmock.AnyArg(), "", 1, "germany", "berlin", 13.4, 52.5, userID, fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Apartment{
		Rooms: 1, Country: "germany", City: "berlin", AddedBy: userID,
		Geometry: models.Point{Type: models.PointType, Coordinates: [2]float64{13.4, 52.5}},
	}
	require.NoError(t, s.Apartments().Create(context.Background(), a))
	assert.Len(t, a.ID, 24)
	assert.Equal(t, fixedTime, a.CreatedAt)
}

func TestApartments_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(`FROM apartments WHERE id = \$1`).
			WithArgs(apartmentID).
			WillReturnRows(sqlmock.NewRows(apartmentCols).
				AddRow(apartmentID, "loft", 3, "germany", "berlin", 13.4, 52.5, nil, fixedTime))

		a, err := s.Apartments().GetByID(context.Background(), apartmentID)
		require.NoError(t, err)
		assert.Equal(t, "loft", a.Description)
		assert.Equal(t, [2]float64{13.4, 52.5}, a.Geometry.Coordinates)
		assert.Equal(t, models.PointType, a.Geometry.Type)
		assert.Empty(t, a.AddedBy)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(`FROM apartments WHERE id = \$1`).
			WithArgs(apartmentID).
			WillReturnRows(sqlmock.NewRows(apartmentCols))

		_, err := s.Apartments().GetByID(context.Background(), apartmentID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSearchQuery(t *testing.T) {
	query, args := searchQuery(store.ApartmentQuery{})
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY created_at, id")
	assert.Empty(t, args)

	query, args = searchQuery(store.ApartmentQuery{
		City:    "berlin",
		Country: "germany",
		Rooms:   2,
		Near: &store.Proximity{
			Origin:            models.Point{Type: models.PointType, Coordinates: [2]float64{13.4, 52.5}},
			MaxDistanceMeters: 3000,
		},
	})
	assert.Contains(t, query, "WHERE city = $1 AND country = $2 AND rooms = $3 AND ST_DWithin(geometry, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)")
	assert.Contains(t, query, "ORDER BY ST_Distance(geometry, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography)")
	assert.Equal(t, []any{"berlin", "germany", 2, 13.4, 52.5, 3000.0}, args)
}

func TestApartments_Search(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`FROM apartments WHERE city = \$1 ORDER BY created_at, id`).
		WithArgs("berlin").
		WillReturnRows(sqlmock.NewRows(apartmentCols).
			AddRow(apartmentID, "", 2, "germany", "berlin", 13.4, 52.5, userID, fixedTime))

	got, err := s.Apartments().Search(context.Background(), store.ApartmentQuery{City: "berlin"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, userID, got[0].AddedBy)
}
