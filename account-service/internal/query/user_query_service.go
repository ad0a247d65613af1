package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flathunt/platform/account-service/internal/repository"
	"github.com/flathunt/platform/shared/auth"
	"github.com/flathunt/platform/shared/cqrs"
	"github.com/flathunt/platform/shared/logging"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/result"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/utils"
)

const MsgBadCredentials = "Incorrect Email or password"

// dummyPassword is hashed once and compared against when the email is
// unknown, so both login failures cost one bcrypt comparison.
const dummyPassword = "flathunt-no-such-user"

// UserQueryService serves logins and user lookups.
type UserQueryService struct {
	users    store.Users
	readRepo *repository.UserReadRepository
	hasher   utils.PasswordHasher
	tokens   auth.TokenIssuer
	logger   logging.Logger
	timeout  time.Duration

	dummyOnce sync.Once
	dummyHash string
}

func NewUserQueryService(
	users store.Users,
	readRepo *repository.UserReadRepository,
	hasher utils.PasswordHasher,
	tokens auth.TokenIssuer,
	logger logging.Logger,
	timeout time.Duration,
) *UserQueryService {
	return &UserQueryService{
		users:    users,
		readRepo: readRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		timeout:  timeout,
	}
}

// Authenticate checks the credentials and issues a token. An unknown email
// and a wrong password fail identically.
func (s *UserQueryService) Authenticate(ctx context.Context, q cqrs.LoginQuery) (*models.AuthPayload, error) {
	lookupCtx, cancel := s.storeCtx(ctx)
	user, err := s.users.GetByEmail(lookupCtx, q.Email)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Compare(s.dummy(), q.Password)
			return nil, result.Unauthorized(MsgBadCredentials)
		}
		s.logger.Error(ctx, "failed to look up user", "error", err)
		return nil, result.Failure(err)
	}
	if !s.hasher.Compare(user.PasswordHash, q.Password) {
		return nil, result.Unauthorized(MsgBadCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error(ctx, "failed to issue token", "user_id", user.ID, "error", err)
		return nil, result.Internal(err)
	}

	ownersCtx, cancel := s.storeCtx(ctx)
	owners, err := s.readRepo.Owners(ownersCtx, user.Favorites)
	cancel()
	if err != nil {
		s.logger.Warn(ctx, "favorite owners unresolved", "user_id", user.ID, "error", err)
	}
	return &models.AuthPayload{User: models.NewResolvedUserView(user, owners), JWT: token}, nil
}

// FindUser returns a user with every favorite's owner resolved. It is public.
func (s *UserQueryService) FindUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if !utils.ValidateID(q.UserID) {
		return nil, result.BadRequest(result.MsgInvalidID)
	}

	lookupCtx, cancel := s.storeCtx(ctx)
	user, err := s.users.GetByID(lookupCtx, q.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, result.NotFound(result.MsgUserNotFound)
		}
		s.logger.Error(ctx, "failed to load user", "user_id", q.UserID, "error", err)
		return nil, result.Failure(err)
	}

	ownersCtx, cancel := s.storeCtx(ctx)
	owners, err := s.readRepo.Owners(ownersCtx, user.Favorites)
	cancel()
	if err != nil {
		s.logger.Error(ctx, "failed to resolve favorites", "user_id", q.UserID, "error", err)
		return nil, result.Failure(err)
	}
	view := models.NewResolvedUserView(user, owners)

	countCtx, cancel := s.storeCtx(ctx)
	count, err := s.readRepo.ListingCount(countCtx, user.ID)
	cancel()
	if err != nil {
		s.logger.Warn(ctx, "listing count unavailable", "user_id", user.ID, "error", err)
	}
	view.ListingCount = count
	return view, nil
}

// storeCtx bounds a single store or counter round trip. The bcrypt
// comparison does not use up the budget.
func (s *UserQueryService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *UserQueryService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn(context.Background(), "failed to prepare dummy hash", "error", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
