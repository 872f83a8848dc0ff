package sink

import (
	"context"

	"github.com/okian/tenderdesk/pkg/logger"
)

// LogMailer writes messages to the log instead of sending them. It stands in
// for SMTP in development.
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer creates a mailer logging through l, or the global logger when nil.
func NewLogMailer(l logger.Logger) *LogMailer {
	if l == nil {
		l = logger.Get().Named("mail")
	}
	return &LogMailer{logger: l}
}

// Send logs the envelope and body size.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info(ctx, "mail not sent, smtp not configured",
		logger.String("to", msg.To),
		logger.String("subject", msg.Subject),
		logger.Int("body_bytes", len(msg.HTMLBody)),
	)
	return nil
}
