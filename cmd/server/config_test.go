package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-key-0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("BROKER_CLIENT_ID", "accounts-test")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "file::memory:?cache=shared", cfg.DatabaseDSN)
	assert.Equal(t, testSecret, cfg.SigningKey)
	assert.Equal(t, 1, cfg.TokenExpiration)
	assert.Equal(t, "go-accounts", cfg.Issuer)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.BrokerURL)
	assert.Equal(t, "accounts-test", cfg.BrokerClientID)
	assert.Equal(t, "user-parameters", cfg.BrokerTopic)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("JWT_EXPIRES_HOURS", "24")
	t.Setenv("JWT_ISSUER", "accounts-stage")
	t.Setenv("BROKER_TOPIC", "user-events")
	t.Setenv("DEBUG", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24, cfg.TokenExpiration)
	assert.Equal(t, "accounts-stage", cfg.Issuer)
	assert.Equal(t, "user-events", cfg.BrokerTopic)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BROKER_CLIENT_ID", "accounts-test")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("BROKER_CLIENT_ID", "accounts-test")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigMissingBrokerClientID(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("BROKER_CLIENT_ID", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigBadExpiryFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_EXPIRES_HOURS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.TokenExpiration)
}

func TestAuthConfigView(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	auth := cfg.GetAuth()
	assert.Equal(t, testSecret, auth.GetSigningKey())
	assert.Equal(t, "session", auth.GetContextKey())
	assert.Equal(t, 1, auth.GetTokenExpiration())
	assert.Equal(t, "header:Authorization", auth.GetTokenLookup())
	assert.Equal(t, "Bearer", auth.GetAuthScheme())
	assert.Equal(t, "go-accounts", auth.GetIssuer())
}
