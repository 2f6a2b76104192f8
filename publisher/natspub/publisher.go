// Package natspub publishes user lifecycle events to a NATS subject.
package natspub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/nats-io/nats.go"
)

// Config holds the broker connection options.
type Config struct {
	// URL is the broker address, e.g. nats://127.0.0.1:4222.
	URL string
	// ClientID names the connection on the broker.
	ClientID string
	// Topic is the subject user events are published to.
	Topic string
}

// Publisher is a LifecyclePublisher backed by a single process-lifetime
// NATS connection.
type Publisher struct {
	conn   *nats.Conn
	topic  string
	logger accounts.Logger
}

var _ accounts.LifecyclePublisher = (*Publisher)(nil)

// Connect opens the broker connection. Call Close on shutdown.
func Connect(cfg Config, logger accounts.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("broker URL is required", errors.CategoryBadInput)
	}
	if cfg.Topic == "" {
		return nil, errors.New("broker topic is required", errors.CategoryBadInput)
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientID),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to connect to broker")
	}

	return &Publisher{
		conn:   conn,
		topic:  cfg.Topic,
		logger: logger,
	}, nil
}

// Publish serializes the event as JSON and hands it to the broker.
// Delivery is at-least-once while the connection holds; there is no
// retry beyond what the client buffers.
func (p *Publisher) Publish(ctx context.Context, event accounts.UserEvent) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "context cancelled before publish")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to serialize user event")
	}

	if err := p.conn.Publish(p.topic, data); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to publish user event").
			WithMetadata(map[string]any{
				"topic":      p.topic,
				"event_type": string(event.EventType),
			})
	}

	return nil
}

// Close drains buffered messages and shuts the connection down.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}

	if err := p.conn.Drain(); err != nil && p.logger != nil {
		p.logger.Warn("broker drain error", "error", err)
	}
}
