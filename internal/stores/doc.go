// Package stores provides Redis-backed, short-lived records for the auth
// engine. Today that is the access-token revocation ledger.
//
// # Design
//
// Entries are independent keys written with SET EX so Redis reaps them when
// the revoked token would have expired anyway. No background sweeper runs.
//
// # What this package must NOT do
//
//   - Import authcore.
//   - Log raw tokens.
//   - Decide whether a token is valid. Verification happens in jwt.
package stores
