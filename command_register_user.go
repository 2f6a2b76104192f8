package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User *User
}

type RegisterUserHandler struct {
	repo      RepositoryManager
	publisher LifecyclePublisher
	mailer    Mailer
	logger    Logger
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:      repo,
		publisher: noopLifecyclePublisher{},
		mailer:    noopMailer{},
		logger:    defLogger{},
	}
}

// WithLifecyclePublisher sets the publisher used to emit user events.
func (h *RegisterUserHandler) WithLifecyclePublisher(publisher LifecyclePublisher) *RegisterUserHandler {
	h.publisher = normalizeLifecyclePublisher(publisher)
	return h
}

// WithMailer sets the mailer used to send the welcome email.
func (h *RegisterUserHandler) WithMailer(mailer Mailer) *RegisterUserHandler {
	h.mailer = normalizeMailer(mailer)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil && existing != nil {
			return ErrEmailRegistered
		} else if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = NormalizeEmail(event.Email)
		user.Fullname = event.Fullname
		if event.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user").
				WithCode(goerrors.CodeConflict).
				WithTextCode(TextCodeEmailRegistered)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	DispatchUserEvent(h.publisher, h.logger, NewUserEvent(user, UserCreated))

	email, fullname := user.Email, user.Fullname
	dispatchMail(h.logger, func(ctx context.Context) error {
		return h.mailer.SendWelcomeEmail(ctx, email, fullname)
	})

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{User: user})
	}

	return nil
}
