// Package rate provides Redis-backed fixed-window counters used to throttle
// login attempts and one-time-token requests per client.
//
// # Window semantics
//
// INCR + conditional EXPIRE on first hit. Key prefixes:
//   - rl:login:ip: failed logins per client IP
//   - rl:req: one-time token requests (see internal/limiters)
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Lock accounts. Account lockout is persisted on the user record.
package rate
