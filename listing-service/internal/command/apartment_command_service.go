package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/flathunt/platform/shared/auth"
	"github.com/flathunt/platform/shared/cqrs"
	"github.com/flathunt/platform/shared/events"
	"github.com/flathunt/platform/shared/geo"
	"github.com/flathunt/platform/shared/logging"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/result"
	"github.com/flathunt/platform/shared/store"
)

const (
	MsgInvalidRooms    = "The number of rooms must be at least 1"
	MsgLocationMissing = "Both country and city are required"
)

// ApartmentCommandService writes listings and publishes listing events.
type ApartmentCommandService struct {
	apartments store.Apartments
	users      store.Users
	tokens     auth.TokenVerifier
	publisher  events.EventPublisher
	logger     logging.Logger
	timeout    time.Duration
}

func NewApartmentCommandService(
	st store.Store,
	tokens auth.TokenVerifier,
	publisher events.EventPublisher,
	logger logging.Logger,
	timeout time.Duration,
) *ApartmentCommandService {
	return &ApartmentCommandService{
		apartments: st.Apartments(),
		users:      st.Users(),
		tokens:     tokens,
		publisher:  publisher,
		logger:     logger,
		timeout:    timeout,
	}
}

// AddApartment lists an apartment owned by the caller. City and country are
// stored lower-cased; rooms defaults to 1 when left out.
func (s *ApartmentCommandService) AddApartment(ctx context.Context, cmd cqrs.AddApartmentCommand) (*models.ApartmentView, error) {
	userID, err := s.tokens.Verify(cmd.Authorization)
	if err != nil {
		return nil, result.Unauthorized(result.MsgSignInRequired)
	}

	city := strings.ToLower(strings.TrimSpace(cmd.City))
	country := strings.ToLower(strings.TrimSpace(cmd.Country))
	if city == "" || country == "" {
		return nil, result.BadRequest(MsgLocationMissing)
	}
	if cmd.Lng == nil || cmd.Lat == nil || !geo.ValidateCoordinates(*cmd.Lng, *cmd.Lat) {
		return nil, result.BadRequest(result.MsgInvalidCoords)
	}
	rooms := models.DefaultRooms
	if cmd.Rooms != nil {
		rooms = *cmd.Rooms
	}
	if rooms < 1 {
		return nil, result.BadRequest(MsgInvalidRooms)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	owner, err := s.users.GetByID(lookupCtx, userID)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, result.Unauthorized(result.MsgSignInRequired)
		}
		return nil, s.failure(ctx, "failed to load owner", err)
	}

	apartment := &models.Apartment{
		Description: cmd.Description,
		Rooms:       rooms,
		Country:     country,
		City:        city,
		Geometry:    geo.NewPoint(*cmd.Lng, *cmd.Lat),
		AddedBy:     owner.ID,
	}
	createCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err = s.apartments.Create(createCtx, apartment)
	cancel()
	if err != nil {
		return nil, s.failure(ctx, "failed to create apartment", err)
	}

	if err := s.publisher.Publish(ctx, events.ListingEventsStream, events.ApartmentCreated, events.ApartmentCreatedEvent{
		ApartmentID: apartment.ID,
		AddedBy:     apartment.AddedBy,
		City:        apartment.City,
		Country:     apartment.Country,
		Rooms:       apartment.Rooms,
		Lng:         apartment.Geometry.Lng(),
		Lat:         apartment.Geometry.Lat(),
	}); err != nil {
		s.logger.Warn(ctx, "failed to publish event", "type", events.ApartmentCreated, "error", err)
	}

	return models.NewApartmentView(apartment, models.NewOwnerView(owner)), nil
}

func (s *ApartmentCommandService) failure(ctx context.Context, msg string, err error) *result.Error {
	s.logger.Error(ctx, msg, "error", err)
	return result.Failure(err)
}
