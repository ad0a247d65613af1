package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed marks an event that no retry can fix. Subscribers dead-letter
// it on the first failure.
var ErrMalformed = errors.New("malformed event")

// Event types
const (
	UserRegistered   = "user.registered"
	FavoriteAdded    = "favorite.added"
	ApartmentCreated = "apartment.created"
)

// Stream names
const (
	AccountEventsStream = "account.events"
	ListingEventsStream = "listing.events"
)

// Event is the envelope written to a stream under the "event" field.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// DecodeData converts the loosely typed Data of a received event into dst.
func (e Event) DecodeData(dst any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal %s payload: %v", ErrMalformed, e.Type, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: failed to unmarshal %s payload: %v", ErrMalformed, e.Type, err)
	}
	return nil
}

// Account events
type UserRegisteredEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type FavoriteAddedEvent struct {
	UserID      string `json:"userId"`
	ApartmentID string `json:"apartmentId"`
}

// Listing events
type ApartmentCreatedEvent struct {
	ApartmentID string  `json:"apartmentId"`
	AddedBy     string  `json:"addedBy"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Rooms       int     `json:"rooms"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
}
