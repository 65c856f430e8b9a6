package flows

import (
	"net/mail"
	"strings"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Tokens            TokenDeps
	Validate          ValidateDeps
	Logout            LogoutDeps
	Login             LoginDeps
	Account           AccountDeps
	PasswordReset     OneTimeDeps
	EmailVerification OneTimeDeps
	Federated         FederatedDeps
}

// Errors carries the host's typed errors so flows can return them without
// importing the root package.
type Errors struct {
	InvalidCredentials error
	AccountLocked      error
	AccountDisabled    error
	TokenExpired       error
	InvalidToken       error
	MissingToken       error
	EmailExists        error
	EmailRequired      error
	Validation         error
	WeakPassword       error
	RateLimited        error
	AlreadyVerified    error
	ProviderAuthFailed error
}

// NormalizeEmail is the canonical form used for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail accepts a bare address only, without display name.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
