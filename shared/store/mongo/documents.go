package mongo

import (
	"time"

	"github.com/flathunt/platform/shared/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pointDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type apartmentDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Description string              `bson:"description,omitempty"`
	Rooms       int                 `bson:"rooms"`
	Country     string              `bson:"country"`
	City        string              `bson:"city"`
	Geometry    pointDoc            `bson:"geometry"`
	AddedBy     *primitive.ObjectID `bson:"addedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
}

// userDoc embeds favorites as full apartment snapshots, matching how the
// collection has always been laid out.
type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Favorites []apartmentDoc     `bson:"favorites"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func toPointDoc(p models.Point) pointDoc {
	return pointDoc{Type: models.PointType, Coordinates: []float64{p.Lng(), p.Lat()}}
}

func (d pointDoc) model() models.Point {
	p := models.Point{Type: d.Type}
	if len(d.Coordinates) == 2 {
		p.Coordinates = [2]float64{d.Coordinates[0], d.Coordinates[1]}
	}
	if p.Type == "" {
		p.Type = models.PointType
	}
	return p
}

func toApartmentDoc(a *models.Apartment) (apartmentDoc, error) {
	id, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return apartmentDoc{}, err
	}
	doc := apartmentDoc{
		ID:          id,
		Description: a.Description,
		Rooms:       a.Rooms,
		Country:     a.Country,
		City:        a.City,
		Geometry:    toPointDoc(a.Geometry),
		CreatedAt:   a.CreatedAt,
	}
	if owner, err := primitive.ObjectIDFromHex(a.AddedBy); err == nil {
		doc.AddedBy = &owner
	}
	return doc, nil
}

func (d apartmentDoc) model() models.Apartment {
	a := models.Apartment{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Rooms:       d.Rooms,
		Country:     d.Country,
		City:        d.City,
		Geometry:    d.Geometry.model(),
		CreatedAt:   d.CreatedAt,
	}
	if d.AddedBy != nil {
		a.AddedBy = d.AddedBy.Hex()
	}
	return a
}

func (d userDoc) model() *models.User {
	u := &models.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.Password,
		Favorites:    make([]models.Apartment, 0, len(d.Favorites)),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, f := range d.Favorites {
		u.Favorites = append(u.Favorites, f.model())
	}
	return u
}
