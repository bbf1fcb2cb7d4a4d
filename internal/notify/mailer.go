package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers formatted emails. Sends are at-least-once under
// dispatcher re-delivery; recipients may see duplicates after a crash.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer records outgoing mail to the log instead of delivering.
// Stands in for a real SMTP transport outside production.
type LogMailer struct {
	from   string
	logger *zap.Logger
}

// NewLogMailer builds the logging mailer.
func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger}
}

// Send logs the message.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("sending email",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}
