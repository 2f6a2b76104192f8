package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserFinder is a store we can use to retrieve users
type UserFinder interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider handles users
type UserProvider struct {
	store    UserFinder
	logger   Logger
	provider LoggerProvider
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	loggerProvider, logger := ResolveLogger("accounts.user_provider", nil, nil)
	return &UserProvider{
		store:    store,
		logger:   logger,
		provider: loggerProvider,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.provider, u.logger = ResolveLogger("accounts.user_provider", u.provider, l)
	return u
}

// WithLoggerProvider overrides the logger provider used by the user provider.
func (u *UserProvider) WithLoggerProvider(provider LoggerProvider) *UserProvider {
	u.provider, u.logger = ResolveLogger("accounts.user_provider", provider, nil)
	return u
}

// VerifyIdentity will find the user, compare the password, and return identity.
// Unknown identifiers and wrong passwords produce the same error so the
// caller cannot tell which accounts exist.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return NewIdentityFromUser(user), nil
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return NewIdentityFromUser(user), nil
}

var _ IdentityProvider = UserProvider{}
