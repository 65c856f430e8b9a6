// Package middleware adapts authcore's Authenticate check to net/http.
//
// # Guards
//
//   - [Guard] verifies the bearer token (signature, expiry, revocation) and
//     stores the claims in the request context.
//   - [RequireRole] admits only requests whose claims carry one of the given
//     roles. It must run behind Guard.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the engine).
//   - Access Redis (the engine handles I/O).
package middleware
