package accounts

import (
	"context"
	"time"
)

// Mailer delivers account notification emails. Failures must not block
// or fail the account operation that triggered them.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, email, fullname string) error
	SendPasswordResetEmail(ctx context.Context, email, fullname, token string) error
}

type noopMailer struct{}

func (noopMailer) SendWelcomeEmail(context.Context, string, string) error {
	return nil
}

func (noopMailer) SendPasswordResetEmail(context.Context, string, string, string) error {
	return nil
}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}

// LogMailer writes the notifications to the logger instead of sending
// them. Useful for development and as a default wiring.
type LogMailer struct {
	logger Logger
}

// NewLogMailer returns a Mailer that records deliveries on the logger.
func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendWelcomeEmail(_ context.Context, email, fullname string) error {
	m.logger.Info("sending welcome email", "to", email, "fullname", fullname)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, email, _, token string) error {
	m.logger.Info("sending password reset email", "to", email, "link", "/password-reset/"+token)
	return nil
}

var _ Mailer = (*LogMailer)(nil)

// dispatchMail runs a mail send on a detached goroutine, logging errors.
func dispatchMail(logger Logger, send func(ctx context.Context) error) {
	if send == nil {
		return
	}
	if logger == nil {
		logger = defLogger{}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := send(ctx); err != nil {
			logger.Warn("mail delivery error", "error", err)
		}
	}()
}
