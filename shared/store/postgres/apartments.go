package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/utils"
)

const apartmentColumns = `id, description, rooms, country, city,
	ST_X(geometry::geometry), ST_Y(geometry::geometry), added_by, created_at`

type Apartments struct {
	db  *sql.DB
	now func() time.Time
}

func (r *Apartments) Create(ctx context.Context, apartment *models.Apartment) error {
	id := utils.NewID()
	now := time.Now().UTC()
	if r.now != nil {
		now = r.now().UTC()
	}
	query := `
		INSERT INTO apartments (id, description, rooms, country, city, geometry, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		id, apartment.Description, apartment.Rooms, apartment.Country, apartment.City,
		apartment.Geometry.Lng(), apartment.Geometry.Lat(), nullString(apartment.AddedBy), now,
	)
	if err != nil {
		return fmt.Errorf("failed to create apartment: %w", err)
	}
	apartment.ID = id
	apartment.CreatedAt = now
	return nil
}

func (r *Apartments) GetByID(ctx context.Context, id string) (*models.Apartment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+apartmentColumns+` FROM apartments WHERE id = $1`, id)
	a, err := scanApartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apartment: %w", err)
	}
	return a, nil
}

func (r *Apartments) Search(ctx context.Context, q store.ApartmentQuery) ([]models.Apartment, error) {
	query, args := searchQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search apartments: %w", err)
	}
	defer rows.Close()

	apartments := []models.Apartment{}
	for rows.Next() {
		a, err := scanApartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan apartment: %w", err)
		}
		apartments = append(apartments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search apartments: %w", err)
	}
	return apartments, nil
}

func searchQuery(q store.ApartmentQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.City != "" {
		conds = append(conds, "city = "+arg(q.City))
	}
	if q.Country != "" {
		conds = append(conds, "country = "+arg(q.Country))
	}
	if q.Rooms > 0 {
		conds = append(conds, "rooms = "+arg(q.Rooms))
	}

	order := "created_at, id"
	if q.Near != nil {
		origin := fmt.Sprintf("ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography",
			arg(q.Near.Origin.Lng()), arg(q.Near.Origin.Lat()))
		conds = append(conds, fmt.Sprintf("ST_DWithin(geometry, %s, %s)", origin, arg(q.Near.MaxDistanceMeters)))
		order = "ST_Distance(geometry, " + origin + ")"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(apartmentColumns)
	b.WriteString(" FROM apartments")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)
	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApartment(row rowScanner) (*models.Apartment, error) {
	var (
		a        models.Apartment
		lng, lat float64
		addedBy  sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Description, &a.Rooms, &a.Country, &a.City, &lng, &lat, &addedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Geometry = models.Point{Type: models.PointType, Coordinates: [2]float64{lng, lat}}
	a.AddedBy = addedBy.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
