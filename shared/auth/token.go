// Package auth issues and verifies the signed session tokens carried in the
// Authorization header. Verification is stateless: there is no revocation list
// and a token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is fixed at issuance.
const TokenTTL = 10 * time.Hour

var (
	// ErrMalformedToken is returned when the header is absent or not "Scheme token".
	ErrMalformedToken = errors.New("malformed authorization header")
	// ErrInvalidToken covers bad signatures, foreign algorithms and expiry.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type TokenVerifier interface {
	Verify(authHeader string) (string, error)
}

// JWTService signs HS256 tokens with a shared secret.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*JWTService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) { s.now = now }
}

// WithTTL overrides the token lifetime. Only the admin CLI uses it.
func WithTTL(ttl time.Duration) Option {
	return func(s *JWTService) { s.ttl = ttl }
}

func NewJWTService(secret string, opts ...Option) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	s := &JWTService{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *JWTService) Issue(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// Verify extracts the user id from an Authorization header value.
func (s *JWTService) Verify(authHeader string) (string, error) {
	tokenString, err := ExtractToken(authHeader)
	if err != nil {
		return "", err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// ExtractToken splits "Scheme token" and returns the token part.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMalformedToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedToken
	}
	if strings.ContainsRune(parts[1], ' ') {
		return "", ErrMalformedToken
	}
	return parts[1], nil
}
