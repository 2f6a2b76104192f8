package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestRegisterUserHandlerCreatesAccount(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepositoryManager)
	users := new(MockUsers)
	sink := newCapturePublisher()
	mailer := newCaptureMailer()

	created := &accounts.User{
		ID:       uuid.New(),
		Fullname: "Pepe Rone",
		Email:    "pepe.rone@example.com",
	}

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, "pepe.rone@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()
	users.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
		return u.Email == "pepe.rone@example.com" &&
			u.Fullname == "Pepe Rone" &&
			accounts.ComparePasswordAndHash("password12345", u.PasswordHash) == nil
	})).Return(created, nil).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			require.NoError(t, fn(args.Get(0).(context.Context), bun.Tx{}))
		}).Once()

	var resp *accounts.RegisterUserResponse

	handler := accounts.NewRegisterUserHandler(repo).
		WithLifecyclePublisher(sink).
		WithMailer(mailer).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Fullname: "Pepe Rone",
		Email:    "pepe.rone@example.com",
		Password: "password12345",
		OnResponse: func(r *accounts.RegisterUserResponse) {
			resp = r
		},
	})
	require.NoError(t, err)

	require.NotNil(t, resp)
	assert.Equal(t, created, resp.User)

	evt := waitForEvent(t, sink.events)
	assert.Equal(t, accounts.UserCreated, evt.EventType)
	assert.Equal(t, created.ID.String(), evt.UserID)
	assert.Equal(t, created.Email, evt.Email)

	assert.Equal(t, created.Email, waitForMail(t, mailer.welcome))

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepositoryManager)
	users := new(MockUsers)
	sink := newCapturePublisher()

	existing := &accounts.User{ID: uuid.New(), Email: "pepe.rone@example.com"}

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, "pepe.rone@example.com").
		Return(existing, nil).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(accounts.ErrEmailRegistered).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			err := fn(args.Get(0).(context.Context), bun.Tx{})
			assert.ErrorIs(t, err, accounts.ErrEmailRegistered)
		}).Once()

	handler := accounts.NewRegisterUserHandler(repo).
		WithLifecyclePublisher(sink).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Fullname: "Pepe Rone",
		Email:    "pepe.rone@example.com",
		Password: "password12345",
	})
	assert.ErrorIs(t, err, accounts.ErrEmailRegistered)

	expectNoEvent(t, sink.events)
	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestRegisterUserHandlerHashidAssignsDeterministicID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepositoryManager)
	users := new(MockUsers)

	wantID, err := hashid.NewUUID("pepe.rone@example.com")
	require.NoError(t, err)

	created := &accounts.User{ID: wantID, Email: "pepe.rone@example.com"}

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, "pepe.rone@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()
	users.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
		return u.ID == wantID
	})).Return(created, nil).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			require.NoError(t, fn(args.Get(0).(context.Context), bun.Tx{}))
		}).Once()

	handler := accounts.NewRegisterUserHandler(repo).WithLogger(testLogger{})

	err = handler.Execute(ctx, accounts.RegisterUserMessage{
		Fullname:  "Pepe Rone",
		Email:     "pepe.rone@example.com",
		Password:  "password12345",
		UseHashid: true,
	})
	require.NoError(t, err)

	users.AssertExpectations(t)
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	repo := new(MockRepositoryManager)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := accounts.NewRegisterUserHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Fullname: "Pepe Rone",
		Email:    "pepe.rone@example.com",
		Password: "password12345",
	})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}
