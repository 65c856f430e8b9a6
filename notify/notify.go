// Package notify delivers account emails (verification, password reset,
// welcome) off the request path.
//
// Delivery is fire-and-forget: a failed or dropped notification is logged and
// counted, never reported to the operation that produced it.
//
// # What this package must NOT do
//
//   - Render templates or speak SMTP. A [Sender] owns transport.
//   - Log raw tokens.
package notify

import (
	"context"
	"log/slog"
)

// Kind selects the message a Sender renders.
type Kind string

const (
	KindEmailVerification Kind = "email_verification"
	KindPasswordReset     Kind = "password_reset"
	KindWelcome           Kind = "welcome"
)

// Notification is one outbound message. Token is the raw one-time token for
// verification and reset messages and empty otherwise.
type Notification struct {
	Kind  Kind
	To    string
	Name  string
	Token string
}

// Sender delivers a notification over some transport.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, n Notification) error

func (f SenderFunc) Send(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogSender records that a notification would have been sent. It never
// logs the token.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, n Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification sent",
		slog.String("component", "notify"),
		slog.String("kind", string(n.Kind)),
		slog.String("to", n.To),
	)
	return nil
}
