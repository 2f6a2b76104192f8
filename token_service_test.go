package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-0123456789abcdef")

func newTestTokenService() accounts.TokenService {
	return accounts.NewTokenService(testSigningKey, 1, "go-accounts", testLogger{})
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	svc := newTestTokenService()

	identity := testIdentity{
		id:       "c0a80121-7ac0-4e1c-ab51-10d6d4ce5a3f",
		email:    "pepe.rone@example.com",
		fullname: "Pepe Rone",
	}

	token, err := svc.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, identity.email, claims.Email())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), time.Minute)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt(), time.Minute)
}

func TestTokenServiceGenerateNilIdentity(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Generate(nil)
	assert.Empty(t, token)
	assert.Error(t, err)
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	svc := newTestTokenService()
	other := accounts.NewTokenService([]byte("another-signing-key-fedcba98765432"), 1, "go-accounts", testLogger{})

	token, err := other.Generate(testIdentity{id: "user-1", email: "pepe.rone@example.com"})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceValidateExpired(t *testing.T) {
	svc := newTestTokenService()

	past := time.Now().Add(-2 * time.Hour)
	token, err := svc.SignClaims(&accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-accounts",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		UID:       "user-1",
		UserEmail: "pepe.rone@example.com",
	})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	assert.True(t, accounts.IsTokenExpiredError(err))
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	svc := newTestTokenService()

	claims, err := svc.Validate("not.a.token")
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceValidateWrongIssuer(t *testing.T) {
	svc := newTestTokenService()
	other := accounts.NewTokenService(testSigningKey, 1, "someone-else", testLogger{})

	token, err := other.Generate(testIdentity{id: "user-1", email: "pepe.rone@example.com"})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestTokenServiceValidateRejectsUnsignedToken(t *testing.T) {
	svc := newTestTokenService()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:  "go-accounts",
		Subject: "user-1",
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestTokenServiceValidateMissingClaims(t *testing.T) {
	svc := newTestTokenService()

	now := time.Now()
	token, err := svc.SignClaims(&accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-accounts",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID: "user-1",
	})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, accounts.ErrUnableToMapClaims)
}
