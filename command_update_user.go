package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateUserMessage struct {
	ID         uuid.UUID `json:"id"`
	Fullname   string    `json:"fullname"`
	OnResponse func(resp *UpdateUserResponse)
}

func (e UpdateUserMessage) Type() string { return "user.update" }

type UpdateUserResponse struct {
	User *User
}

type UpdateUserHandler struct {
	repo      RepositoryManager
	publisher LifecyclePublisher
	logger    Logger
}

// NewUpdateUserHandler creates a handler with sane defaults.
func NewUpdateUserHandler(repo RepositoryManager) *UpdateUserHandler {
	return &UpdateUserHandler{
		repo:      repo,
		publisher: noopLifecyclePublisher{},
		logger:    defLogger{},
	}
}

// WithLifecyclePublisher sets the publisher used to emit user events.
func (h *UpdateUserHandler) WithLifecyclePublisher(publisher LifecyclePublisher) *UpdateUserHandler {
	h.publisher = normalizeLifecyclePublisher(publisher)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateUserHandler) WithLogger(logger Logger) *UpdateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateUserHandler) Execute(ctx context.Context, event UpdateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateUserHandler) execute(ctx context.Context, event UpdateUserMessage) error {
	var updated *User

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &User{
			ID:       event.ID,
			Fullname: event.Fullname,
		}

		var err error
		updated, err = h.repo.Users().UpdateTx(ctx, tx, record, repository.UpdateByID(event.ID.String()))
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user update transaction failed")
	}

	DispatchUserEvent(h.publisher, h.logger, NewUserEvent(updated, UserUpdated))

	if event.OnResponse != nil {
		event.OnResponse(&UpdateUserResponse{User: updated})
	}

	return nil
}
