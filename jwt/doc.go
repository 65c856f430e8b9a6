// Package jwt issues and verifies stateless access tokens and parses the
// compact TTL strings ("15m", "7d") used to configure token lifetimes.
//
// Verification distinguishes an expired token (ErrExpired) from every other
// failure (ErrInvalid) so callers can tell clients to refresh instead of
// signing in again.
package jwt
