// Package postgres implements store.Store on PostgreSQL with PostGIS.
// Geometry is stored as geography(Point, 4326) so distances come back in
// metres, and favorites live in their own table keyed by (user, apartment).
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/flathunt/platform/shared/store"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// pq error codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Store struct {
	db         *sql.DB
	users      *Users
	apartments *Apartments
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{
		db:         db,
		users:      &Users{db: db},
		apartments: &Apartments{db: db},
	}
}

func (s *Store) Users() store.Users           { return s.users }
func (s *Store) Apartments() store.Apartments { return s.apartments }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema applies the embedded goose migrations.
func (s *Store) EnsureSchema(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
