package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetTokenTTL is how long a password reset token stays redeemable.
var ResetTokenTTL = time.Hour

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

// InitializePasswordResetResponse reports the outcome to the caller.
// Found stays internal; the HTTP layer answers the same either way.
type InitializePasswordResetResponse struct {
	Found   bool
	Token   string
	Expires time.Time
	User    *User
}

type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	publisher LifecyclePublisher
	mailer    Mailer
	logger    Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:      repo,
		publisher: noopLifecyclePublisher{},
		mailer:    noopMailer{},
		logger:    defLogger{},
	}
}

// WithLifecyclePublisher sets the publisher used to emit user events.
func (h *InitializePasswordResetHandler) WithLifecyclePublisher(publisher LifecyclePublisher) *InitializePasswordResetHandler {
	h.publisher = normalizeLifecyclePublisher(publisher)
	return h
}

// WithMailer sets the mailer used to send the reset link.
func (h *InitializePasswordResetHandler) WithMailer(mailer Mailer) *InitializePasswordResetHandler {
	h.mailer = normalizeMailer(mailer)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// Unknown emails succeed silently, same shape as a hit.
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		token := uuid.NewString()
		expires := time.Now().Add(ResetTokenTTL)

		// A newer request overwrites any outstanding token; the old link dies.
		updated, err := h.repo.Users().SetResetTokenTx(ctx, tx, user.ID, token, expires)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password reset token")
		}

		resp.Found = true
		resp.Token = token
		resp.Expires = expires
		resp.User = updated

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if resp.Found {
		DispatchUserEvent(h.publisher, h.logger, NewUserEvent(resp.User, UserUpdated))

		email, fullname, token := resp.User.Email, resp.User.Fullname, resp.Token
		dispatchMail(h.logger, func(ctx context.Context) error {
			return h.mailer.SendPasswordResetEmail(ctx, email, fullname, token)
		})
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
