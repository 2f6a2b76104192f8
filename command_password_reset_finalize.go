package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"resetPasswordToken" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Reset password token"`
	Password string `json:"password" example:"some_secret_word" doc:"New password"`
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetHandler struct {
	repo      RepositoryManager
	publisher LifecyclePublisher
	logger    Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:      repo,
		publisher: noopLifecyclePublisher{},
		logger:    defLogger{},
	}
}

// WithLifecyclePublisher sets the publisher used to emit user events.
func (h *FinalizePasswordResetHandler) WithLifecyclePublisher(publisher LifecyclePublisher) *FinalizePasswordResetHandler {
	h.publisher = normalizeLifecyclePublisher(publisher)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	var updated *User

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByResetTokenTx(ctx, tx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrResetTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
		}

		// Tokens are valid strictly before their expiry instant.
		if !user.HasActiveResetToken(time.Now()) {
			return ErrResetTokenInvalid
		}

		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		// The consuming update matches the token in its WHERE clause, so a
		// redeem that lost a concurrent race comes back as not found.
		updated, err = h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, event.Token, passwordHash)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrResetTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	DispatchUserEvent(h.publisher, h.logger, NewUserEvent(updated, UserUpdated))

	return nil
}
