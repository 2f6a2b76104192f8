package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DeleteUserMessage struct {
	ID         uuid.UUID `json:"id"`
	OnResponse func(resp *DeleteUserResponse)
}

func (e DeleteUserMessage) Type() string { return "user.delete" }

type DeleteUserResponse struct {
	User *User
}

type DeleteUserHandler struct {
	repo      RepositoryManager
	publisher LifecyclePublisher
	logger    Logger
}

// NewDeleteUserHandler creates a handler with sane defaults.
func NewDeleteUserHandler(repo RepositoryManager) *DeleteUserHandler {
	return &DeleteUserHandler{
		repo:      repo,
		publisher: noopLifecyclePublisher{},
		logger:    defLogger{},
	}
}

// WithLifecyclePublisher sets the publisher used to emit user events.
func (h *DeleteUserHandler) WithLifecyclePublisher(publisher LifecyclePublisher) *DeleteUserHandler {
	h.publisher = normalizeLifecyclePublisher(publisher)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *DeleteUserHandler) WithLogger(logger Logger) *DeleteUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *DeleteUserHandler) Execute(ctx context.Context, event DeleteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteUserHandler) execute(ctx context.Context, event DeleteUserMessage) error {
	// Snapshot taken before the removal so the event still carries the
	// account's email and fullname.
	var snapshot *User

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.ID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user for deletion")
		}

		snapshot = user

		if _, err := h.repo.Users().SoftDeleteTx(ctx, tx, user.ID); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user deletion transaction failed")
	}

	DispatchUserEvent(h.publisher, h.logger, NewUserEvent(snapshot, UserDeleted))

	if event.OnResponse != nil {
		event.OnResponse(&DeleteUserResponse{User: snapshot})
	}

	return nil
}
