package main

import (
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
)

// Config holds everything the service needs to boot. Values come from
// the environment with development-friendly defaults; secrets and the
// broker identity have no default and abort startup when absent.
type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	SigningKey      string
	TokenExpiration int
	Issuer          string
	BrokerURL       string
	BrokerClientID  string
	BrokerTopic     string
	Debug           bool
}

// LoadConfig reads the environment, overlaying an optional .env file.
func LoadConfig() (*Config, error) {
	// Missing .env is fine, real env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":3000"),
		DatabaseDSN:     envOr("DATABASE_DSN", "file::memory:?cache=shared"),
		SigningKey:      os.Getenv("JWT_SECRET"),
		TokenExpiration: envIntOr("JWT_EXPIRES_HOURS", 1),
		Issuer:          envOr("JWT_ISSUER", "go-accounts"),
		BrokerURL:       envOr("BROKER_URL", "nats://127.0.0.1:4222"),
		BrokerClientID:  os.Getenv("BROKER_CLIENT_ID"),
		BrokerTopic:     envOr("BROKER_TOPIC", "user-parameters"),
		Debug:           os.Getenv("DEBUG") == "true",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the startup contract: no service without a strong
// signing secret, a broker identity, and a sane token TTL.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&c.BrokerURL, validation.Required),
		validation.Field(&c.BrokerClientID, validation.Required),
		validation.Field(&c.BrokerTopic, validation.Required),
	)
}

// GetAuth returns the view of the config the accounts package consumes.
func (c *Config) GetAuth() *AuthConfig {
	return &AuthConfig{config: c}
}

// AuthConfig adapts Config to the accounts.Config interface.
type AuthConfig struct {
	config *Config
}

func (a *AuthConfig) GetSigningKey() string {
	return a.config.SigningKey
}

func (a *AuthConfig) GetContextKey() string {
	return "session"
}

func (a *AuthConfig) GetTokenExpiration() int {
	return a.config.TokenExpiration
}

func (a *AuthConfig) GetTokenLookup() string {
	return "header:Authorization"
}

func (a *AuthConfig) GetAuthScheme() string {
	return "Bearer"
}

func (a *AuthConfig) GetIssuer() string {
	return a.config.Issuer
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
