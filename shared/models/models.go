package models

import "time"

const PointType = "Point"

// DefaultRooms is used when a listing is submitted without a room count.
const DefaultRooms = 1

// Point is a GeoJSON point. Coordinates are ordered [lng, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func (p Point) Lng() float64 { return p.Coordinates[0] }
func (p Point) Lat() float64 { return p.Coordinates[1] }

type User struct {
	ID           string      `json:"id"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Favorites    []Apartment `json:"favorites"`
	CreatedAt    time.Time   `json:"createdTimestamp"`
	UpdatedAt    time.Time   `json:"updatedTimestamp"`
}

// HasFavorite reports whether apartmentID is already among the user's favorites.
func (u *User) HasFavorite(apartmentID string) bool {
	for _, f := range u.Favorites {
		if f.ID == apartmentID {
			return true
		}
	}
	return false
}

// Apartment is a listing. City and Country are stored lower-cased.
// AddedBy holds the owning user's id; it is empty only for legacy rows.
type Apartment struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Rooms       int       `json:"rooms"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Geometry    Point     `json:"geometry"`
	AddedBy     string    `json:"addedBy,omitempty"`
	CreatedAt   time.Time `json:"createdTimestamp"`
}
