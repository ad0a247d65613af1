package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("securepass123")
	require.NoError(t, err)
	assert.NotEqual(t, "securepass123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, h.Compare(hash, "securepass123"))
	assert.False(t, h.Compare(hash, "wrongpass"))
	assert.False(t, h.Compare("not-a-hash", "securepass123"))
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	a, err := h.Hash("pw")
	require.NoError(t, err)
	b, err := h.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, SaltRounds, NewBcryptHasher(0).cost)
	assert.Equal(t, SaltRounds, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestCheckPassword(t *testing.T) {
	hash, err := NewBcryptHasher(bcrypt.MinCost).Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{NewID(), true},
		{"5f8d0d55b54764421b7156c9", true},
		{"5F8D0D55B54764421B7156C9", true},
		{"", false},
		{"123", false},
		{"5f8d0d55b54764421b7156c", false},
		{"5f8d0d55b54764421b7156c9a", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzz", false},
		{"usr-abcdefghij", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateID(tt.id))
		})
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
