// Package push is the thin transport boundary to the external push service.
package push

import (
	"context"
	"errors"
)

// Permanent delivery failures. Either one means the token will never work
// again and must be cleared from the user record; everything else is
// transient and only worth a log line.
var (
	// ErrUnregistered means the device uninstalled the app or rotated its token.
	ErrUnregistered = errors.New("device token is unregistered")
	// ErrSenderMismatch means the token belongs to a different sender project.
	ErrSenderMismatch = errors.New("device token belongs to a different sender")
)

// Message is one push delivery to one device. Data values must already be
// strings; the service rejects anything else.
type Message struct {
	Title string
	Body  string
	Token string
	Data  map[string]string
}

// Sender delivers a message to a single device token.
// Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// IsPermanent reports whether err means the token must be cleared.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnregistered) || errors.Is(err, ErrSenderMismatch)
}
