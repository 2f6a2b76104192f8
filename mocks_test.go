package accounts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

// MockUsers stubs the user repository. The embedded interface covers the
// generic repository surface; only the methods the handlers touch are
// implemented, anything else panics loudly if a test wanders into it.
type MockUsers struct {
	accounts.Users
	mock.Mock
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, identifier)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, identifier)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, email)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) GetByResetTokenTx(ctx context.Context, tx bun.IDB, token string) (*accounts.User, error) {
	args := m.Called(ctx, tx, token)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expires time.Time) (*accounts.User, error) {
	args := m.Called(ctx, tx, id, token, expires)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token, passwordHash string) (*accounts.User, error) {
	args := m.Called(ctx, tx, id, token, passwordHash)
	return userArg(args), args.Error(1)
}

func (m *MockUsers) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*accounts.User, error) {
	args := m.Called(ctx, tx, id)
	return userArg(args), args.Error(1)
}

func userArg(args mock.Arguments) *accounts.User {
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u
	}
	return nil
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if id, ok := args.Get(0).(accounts.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	if id, ok := args.Get(0).(accounts.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

type testIdentity struct {
	id       string
	email    string
	fullname string
}

func (t testIdentity) ID() string       { return t.id }
func (t testIdentity) Email() string    { return t.email }
func (t testIdentity) Fullname() string { return t.fullname }

// capturePublisher funnels published lifecycle events into a channel so
// tests can wait on the detached dispatch goroutine.
type capturePublisher struct {
	events chan accounts.UserEvent
	err    error
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{events: make(chan accounts.UserEvent, 4)}
}

func (p *capturePublisher) Publish(_ context.Context, event accounts.UserEvent) error {
	p.events <- event
	return p.err
}

func waitForEvent(t *testing.T, events <-chan accounts.UserEvent) accounts.UserEvent {
	t.Helper()
	select {
	case evt := <-events:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lifecycle event")
		return accounts.UserEvent{}
	}
}

func expectNoEvent(t *testing.T, events <-chan accounts.UserEvent) {
	t.Helper()
	select {
	case evt := <-events:
		t.Fatalf("unexpected lifecycle event: %s", evt.EventType)
	case <-time.After(100 * time.Millisecond):
	}
}

// captureMailer records deliveries on channels, again because the
// handlers send mail off the request goroutine.
type captureMailer struct {
	welcome chan string
	reset   chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		welcome: make(chan string, 4),
		reset:   make(chan string, 4),
	}
}

func (m *captureMailer) SendWelcomeEmail(_ context.Context, email, _ string) error {
	m.welcome <- email
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, _, _, token string) error {
	m.reset <- token
	return nil
}

func waitForMail(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail delivery")
		return ""
	}
}

// testAuthConfig implements accounts.Config
type testAuthConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
}

func (c testAuthConfig) GetSigningKey() string {
	if c.signingKey != "" {
		return c.signingKey
	}
	return "test-signing-key-0123456789abcdef"
}

func (c testAuthConfig) GetContextKey() string { return "session" }

func (c testAuthConfig) GetTokenExpiration() int {
	if c.tokenExpiration > 0 {
		return c.tokenExpiration
	}
	return 1
}

func (c testAuthConfig) GetTokenLookup() string { return "header:Authorization" }
func (c testAuthConfig) GetAuthScheme() string  { return "Bearer" }
func (c testAuthConfig) GetIssuer() string      { return c.issuer }
