package command

import (
	"context"
	"errors"
	"time"

	"github.com/flathunt/platform/account-service/internal/repository"
	"github.com/flathunt/platform/shared/auth"
	"github.com/flathunt/platform/shared/cqrs"
	"github.com/flathunt/platform/shared/events"
	"github.com/flathunt/platform/shared/logging"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/result"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/utils"
)

const (
	MsgEmailTaken        = "The email has been taken"
	MsgNoSuchApartment   = "No apartment with the specified ID exists"
	MsgDuplicateFavorite = "You already have this apartment in your list of favorites"
)

// Tokens issues a token on signup and verifies the caller on writes.
type Tokens interface {
	auth.TokenIssuer
	auth.TokenVerifier
}

// UserCommandService writes user state to the document store and publishes
// account events.
type UserCommandService struct {
	users      store.Users
	apartments store.Apartments
	readRepo   *repository.UserReadRepository
	hasher     utils.PasswordHasher
	tokens     Tokens
	publisher  events.EventPublisher
	logger     logging.Logger
	timeout    time.Duration
}

func NewUserCommandService(
	st store.Store,
	readRepo *repository.UserReadRepository,
	hasher utils.PasswordHasher,
	tokens Tokens,
	publisher events.EventPublisher,
	logger logging.Logger,
	timeout time.Duration,
) *UserCommandService {
	return &UserCommandService{
		users:      st.Users(),
		apartments: st.Apartments(),
		readRepo:   readRepo,
		hasher:     hasher,
		tokens:     tokens,
		publisher:  publisher,
		logger:     logger,
		timeout:    timeout,
	}
}

// Register creates a user with no favorites and signs them in.
func (s *UserCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.AuthPayload, error) {
	if cmd.FirstName == "" || cmd.LastName == "" || cmd.Email == "" || cmd.Password == "" {
		return nil, result.BadRequest(result.MsgInvalidRequest)
	}

	lookupCtx, cancel := s.storeCtx(ctx)
	_, err := s.users.GetByEmail(lookupCtx, cmd.Email)
	cancel()
	switch {
	case err == nil:
		return nil, result.Conflict(MsgEmailTaken)
	case !errors.Is(err, store.ErrNotFound):
		return nil, s.failure(ctx, "failed to look up email", err)
	}

	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, s.failure(ctx, "failed to hash password", err)
	}
	user := &models.User{
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		Favorites:    []models.Apartment{},
	}
	createCtx, cancel := s.storeCtx(ctx)
	err = s.users.Create(createCtx, user)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, result.Conflict(MsgEmailTaken)
		}
		return nil, s.failure(ctx, "failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, s.failure(ctx, "failed to issue token", err)
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
	})
	return &models.AuthPayload{User: models.NewUserView(user), JWT: token}, nil
}

// AddFavorite appends an existing apartment to the caller's favorites.
// The checks run in a fixed order: token, id format, apartment existence,
// then the store's atomic insert-if-absent.
func (s *UserCommandService) AddFavorite(ctx context.Context, cmd cqrs.AddFavoriteCommand) (*models.UserView, error) {
	userID, err := s.tokens.Verify(cmd.Authorization)
	if err != nil {
		return nil, result.Unauthorized(result.MsgSignInRequired)
	}
	if !utils.ValidateID(cmd.ApartmentID) {
		return nil, result.BadRequest(result.MsgInvalidID)
	}

	lookupCtx, cancel := s.storeCtx(ctx)
	apartment, err := s.apartments.GetByID(lookupCtx, cmd.ApartmentID)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, result.Forbidden(MsgNoSuchApartment)
		}
		return nil, s.failure(ctx, "failed to load apartment", err)
	}

	addCtx, cancel := s.storeCtx(ctx)
	user, err := s.users.AddFavorite(addCtx, userID, apartment)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, result.Forbidden(MsgDuplicateFavorite)
		case errors.Is(err, store.ErrNotFound):
			return nil, result.NotFound(result.MsgUserNotFound)
		}
		return nil, s.failure(ctx, "failed to add favorite", err)
	}

	s.publish(ctx, events.FavoriteAdded, events.FavoriteAddedEvent{
		UserID:      user.ID,
		ApartmentID: apartment.ID,
	})

	// The favorite is committed at this point, so an owner lookup failure
	// only leaves addedBy unresolved.
	ownersCtx, cancel := s.storeCtx(ctx)
	owners, err := s.readRepo.Owners(ownersCtx, user.Favorites)
	cancel()
	if err != nil {
		s.logger.Warn(ctx, "favorite owners unresolved", "user_id", user.ID, "error", err)
	}
	return models.NewResolvedUserView(user, owners), nil
}

// HandleListingEvent is the Redis stream subscriber handler. It keeps the
// per-user listing counter current. Idempotent per apartment ID.
func (s *UserCommandService) HandleListingEvent(ctx context.Context, event events.Event) error {
	s.logger.Debug(ctx, "received listing event", "type", event.Type)
	switch event.Type {
	case events.ApartmentCreated:
		var data events.ApartmentCreatedEvent
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		if data.AddedBy == "" {
			return nil
		}
		incrCtx, cancel := s.storeCtx(ctx)
		applied, err := s.readRepo.IncrListingCount(incrCtx, data.AddedBy, data.ApartmentID)
		cancel()
		if err != nil {
			return err
		}
		if !applied {
			s.logger.Debug(ctx, "apartment already counted, skipping", "apartment_id", data.ApartmentID)
			return nil
		}
		s.logger.Info(ctx, "apartment listed", "user_id", data.AddedBy, "apartment_id", data.ApartmentID)
	}
	return nil
}

// storeCtx bounds a single store or counter round trip. Hashing and token
// work between calls do not use up the budget.
func (s *UserCommandService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, data); err != nil {
		s.logger.Warn(ctx, "failed to publish event", "type", eventType, "error", err)
	}
}

func (s *UserCommandService) failure(ctx context.Context, msg string, err error) *result.Error {
	s.logger.Error(ctx, msg, "error", err)
	return result.Failure(err)
}
