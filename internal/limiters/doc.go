// Package limiters holds the policies built on top of raw counters.
//
// # Limiters
//
//   - [LockoutLimiter]: per-account failure counter persisted on the user
//     record; opens a lock window once the threshold is reached.
//   - [RequestLimiter]: per-email + per-IP throttle for password-reset and
//     verification-email requests, on internal/rate.
//
// All limiters are nil-safe: calling any method on a nil receiver is a no-op.
//
// # What this package must NOT do
//
//   - Import authcore.
//   - Decide client-visible outcomes. Flow functions map results to errors.
package limiters
