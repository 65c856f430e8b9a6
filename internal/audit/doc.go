// Package audit delivers security events (sign-ins, lockouts, token
// rotation, password changes) to a pluggable sink off the request path.
//
// # Components
//
//   - [Sink]: event consumer (slog, JSON lines, channel, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: timestamp, type, user, provider, IP, device, outcome, metadata.
//
// # What this package must NOT do
//
//   - Decide which events to emit. The engine does that.
//   - Import authcore or any sibling internal package.
package audit
