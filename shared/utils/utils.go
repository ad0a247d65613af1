package utils

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// SaltRounds is the bcrypt cost used for stored passwords.
const SaltRounds = 10

// PasswordHasher hashes and verifies passwords. Implementations must be one-way.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// BcryptHasher is the PasswordHasher used in production.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = SaltRounds
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return CheckPassword(password, hash)
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NewID returns a fresh store identifier (24 hex characters).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidateID reports whether id is a well-formed store identifier.
func ValidateID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
