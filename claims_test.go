package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsAccessors(t *testing.T) {
	now := time.Now()
	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-accounts",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:       "user-1",
		UserEmail: "pepe.rone@example.com",
	}

	assert.Equal(t, "user-1", claims.Subject())
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "pepe.rone@example.com", claims.Email())
	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
}

func TestJWTClaimsUserIDFallsBackToSubject(t *testing.T) {
	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-only"},
	}
	assert.Equal(t, "subject-only", claims.UserID())
}

func TestJWTClaimsZeroTimes(t *testing.T) {
	claims := &accounts.JWTClaims{}
	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
