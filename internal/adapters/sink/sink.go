// Package sink delivers rendered documents: workbooks to a file store and
// summary emails to a mail transport. Sinks never retry.
package sink

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a sink lacks required settings.
var ErrNotConfigured = errors.New("sink not configured")

// FileSink stores a rendered file under a suggested name and returns where it went.
type FileSink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Message is one outbound HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
