package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/utils"
	"github.com/lib/pq"
)

const userColumns = `id, first_name, last_name, email, password_hash, created_at, updated_at`

type Users struct {
	db  *sql.DB
	now func() time.Time
}

func (r *Users) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	id := utils.NewID()
	now := r.clock()
	query := `
		INSERT INTO users (id, first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		id, user.FirstName, user.LastName, user.Email, user.PasswordHash, now, now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	user.Favorites = []models.Apartment{}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *Users) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	favorites, err := r.favorites(ctx, []string{u.ID})
	if err != nil {
		return nil, err
	}
	u.Favorites = favorites[u.ID]
	if u.Favorites == nil {
		u.Favorites = []models.Apartment{}
	}
	return &u, nil
}

func (r *Users) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	found := make([]string, 0, len(ids))
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Favorites = []models.Apartment{}
		users[u.ID] = &u
		found = append(found, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(found) == 0 {
		return users, nil
	}

	favorites, err := r.favorites(ctx, found)
	if err != nil {
		return nil, err
	}
	for id, favs := range favorites {
		users[id].Favorites = favs
	}
	return users, nil
}

// favorites returns each user's snapshots in insertion order.
func (r *Users) favorites(ctx context.Context, userIDs []string) (map[string][]models.Apartment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, snapshot FROM user_favorites
		WHERE user_id = ANY($1)
		ORDER BY user_id, position
	`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Apartment, len(userIDs))
	for rows.Next() {
		var userID string
		var raw []byte
		if err := rows.Scan(&userID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		var a models.Apartment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("failed to decode favorite: %w", err)
		}
		out[userID] = append(out[userID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return out, nil
}

// AddFavorite relies on the (user_id, apartment_id) primary key: a second
// insert for the same pair affects no rows.
func (r *Users) AddFavorite(ctx context.Context, userID string, apartment *models.Apartment) (*models.User, error) {
	snapshot, err := json.Marshal(apartment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode favorite: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, apartment_id, snapshot)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, apartment_id) DO NOTHING
	`, userID, apartment.ID, snapshot)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	if n == 0 {
		return nil, store.ErrDuplicate
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, userID, r.clock()); err != nil {
		return nil, fmt.Errorf("failed to touch user: %w", err)
	}
	return r.GetByID(ctx, userID)
}
