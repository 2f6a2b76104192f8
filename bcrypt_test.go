package accounts_test

import (
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := accounts.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, accounts.ComparePasswordAndHash("correct horse battery staple", hash))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	hash, err := accounts.HashPassword("")
	assert.Empty(t, hash)
	assert.ErrorIs(t, err, accounts.ErrNoEmptyString)
}

func TestComparePasswordAndHashMismatch(t *testing.T) {
	hash, err := accounts.HashPassword("password12345")
	require.NoError(t, err)

	err = accounts.ComparePasswordAndHash("not-the-password", hash)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

func TestComparePasswordAndHashGarbageHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"short hash", "abc"},
		{"bad prefix", "x2a(10)nonsense-that-is-not-a-real-bcrypt-hash-at-all-here-x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounts.ComparePasswordAndHash("password12345", tt.hash)
			assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	hash := accounts.RandomPasswordHash()
	require.NotEmpty(t, hash)
	// A random placeholder should never match a user supplied password.
	assert.Error(t, accounts.ComparePasswordAndHash("password12345", hash))
}
