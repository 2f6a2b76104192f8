package accounts

import (
	"context"
	"time"
)

// UserEventType enumerates the lifecycle transitions we broadcast.
type UserEventType string

const (
	UserCreated UserEventType = "UserCreated"
	UserUpdated UserEventType = "UserUpdated"
	UserDeleted UserEventType = "UserDeleted"
)

// eventTimestampLayout is ISO-8601 with millisecond precision, matching
// what downstream consumers of the user topic expect.
const eventTimestampLayout = "2006-01-02T15:04:05.000Z"

// UserEvent is the wire payload published after a committed user mutation.
type UserEvent struct {
	UserID    string        `json:"userId"`
	Fullname  string        `json:"fullname"`
	Email     string        `json:"email"`
	EventType UserEventType `json:"eventType"`
	Timestamp string        `json:"timestamp"`
}

// NewUserEvent builds the event payload for a user record snapshot.
func NewUserEvent(user *User, eventType UserEventType) UserEvent {
	evt := UserEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(eventTimestampLayout),
	}
	if user != nil {
		evt.UserID = user.ID.String()
		evt.Fullname = user.Fullname
		evt.Email = user.Email
	}
	return evt
}

// LifecyclePublisher forwards user lifecycle events to a message bus
// without blocking account operations.
type LifecyclePublisher interface {
	Publish(ctx context.Context, event UserEvent) error
}

// LifecyclePublisherFunc adapts a function to the LifecyclePublisher interface.
type LifecyclePublisherFunc func(ctx context.Context, event UserEvent) error

// Publish implements LifecyclePublisher.
func (f LifecyclePublisherFunc) Publish(ctx context.Context, event UserEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopLifecyclePublisher struct{}

func (noopLifecyclePublisher) Publish(context.Context, UserEvent) error {
	return nil
}

func normalizeLifecyclePublisher(p LifecyclePublisher) LifecyclePublisher {
	if p == nil {
		return noopLifecyclePublisher{}
	}
	return p
}

// DispatchUserEvent publishes on a detached goroutine so callers never
// wait on the broker. Failures are logged and swallowed; delivery is
// at-least-once only while the broker cooperates.
func DispatchUserEvent(publisher LifecyclePublisher, logger Logger, event UserEvent) {
	sink := normalizeLifecyclePublisher(publisher)
	if logger == nil {
		logger = defLogger{}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sink.Publish(ctx, event); err != nil {
			logger.Warn("lifecycle publish error",
				"event_type", string(event.EventType),
				"user_id", event.UserID,
				"error", err,
			)
		}
	}()
}
