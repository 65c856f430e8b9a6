// Package authcore is the authentication core of a CMS backend: JWT access
// tokens, rotating opaque refresh tokens with a bounded per-user window,
// Redis-backed access-token revocation, automatic account lockout, Google and
// GitHub sign-in linking, and single-use tokens for email verification and
// password reset.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config] and
// the typed [Error] kinds. Flow orchestration, rate limiting, revocation
// storage and audit dispatch live under internal/ and are never exported.
// Persistence is reached through [store.UserStore]; delivery of account
// emails through [notify.Sender].
//
// # What this package must NOT do
//
//   - Log or persist raw refresh, reset or verification tokens.
//   - Hold in-process locks around store mutations. Atomicity belongs to the
//     store's single-statement updates.
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Failure contract
//
// Every operation returns either nil or an error matching one of the package
// sentinels via errors.Is. Store, cache and provider faults surface as
// [ErrServiceUnavailable] when they look transient and [ErrInternal]
// otherwise; the cause is logged, never returned to clients.
package authcore
