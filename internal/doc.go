// Package internal holds helpers private to the authcore module, such as
// random token generation.
//
// # Sub-packages
//
//   - audit: asynchronous audit event dispatch
//   - flows: one orchestrator per Engine operation
//   - limiters: lockout and request throttles
//   - rate: Redis fixed-window counters
//   - security: configuration posture report
//   - stores: Redis-backed access token blacklist
package internal
