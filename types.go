package authcore

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/provider"
	"github.com/MrEthical07/authcore/store"
)

// TokenPair is the access/refresh pair returned by every sign-in path.
// ExpiresIn is the access token lifetime in milliseconds.
type TokenPair = flows.TokenPair

// AccessClaims is the verified content of an access token.
type AccessClaims = jwt.AccessClaims

// SignInResult is returned by Register, Login, Refresh and the federated
// sign-in methods. Created is true only when a federated sign-in made a new
// account.
type SignInResult struct {
	User    *store.User
	Tokens  TokenPair
	Created bool
}

// RegisterInput is a self-service signup request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// GoogleVerifier checks a Google ID token and returns the identity it
// asserts. *google.Verifier implements it.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (provider.Identity, error)
}

// GitHubExchanger trades an OAuth authorization code for the GitHub
// identity behind it. *github.Client implements it.
type GitHubExchanger interface {
	Exchange(ctx context.Context, code string) (provider.Identity, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that logs events through a [slog.Logger].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink]. Failed outcomes are logged at warn level.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
