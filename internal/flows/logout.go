package flows

import (
	"context"
	"time"
)

type AccessBlacklist interface {
	Add(ctx context.Context, token string, remaining time.Duration) error
}

type LogoutStore interface {
	PullRefreshToken(ctx context.Context, tokenHash string) (bool, error)
	ClearRefreshTokens(ctx context.Context, userID string) error
}

// LogoutDeps captures revocation dependencies. ExpiresAt decodes exp
// without a signature check; VerifiedExpiresAt requires a valid signature and
// fails for expired tokens. MaxTTL caps every ledger entry.
type LogoutDeps struct {
	Now               func() time.Time
	ExpiresAt         func(string) (time.Time, error)
	VerifiedExpiresAt func(string) (time.Time, error)
	MaxTTL            time.Duration
	HashToken         func(string) string
	Blacklist         AccessBlacklist
	Store             LogoutStore
}

// RunBlacklistAccessToken revokes tokenStr for the rest of its lifetime.
// Tokens that cannot be decoded or have already expired need no entry.
func RunBlacklistAccessToken(ctx context.Context, tokenStr string, deps LogoutDeps) (bool, error) {
	return blacklistUntilExpiry(ctx, tokenStr, deps.ExpiresAt, deps)
}

// blacklistVerified is the revocation used by the unauthenticated logout
// paths: only tokens this service signed get an entry.
func blacklistVerified(ctx context.Context, tokenStr string, deps LogoutDeps) (bool, error) {
	return blacklistUntilExpiry(ctx, tokenStr, deps.VerifiedExpiresAt, deps)
}

func blacklistUntilExpiry(ctx context.Context, tokenStr string, expiresAt func(string) (time.Time, error), deps LogoutDeps) (bool, error) {
	if tokenStr == "" {
		return false, nil
	}
	exp, err := expiresAt(tokenStr)
	if err != nil {
		return false, nil
	}
	remaining := exp.Sub(deps.Now())
	if remaining <= 0 {
		return false, nil
	}
	if deps.MaxTTL > 0 && remaining > deps.MaxTTL {
		remaining = deps.MaxTTL
	}
	if err := deps.Blacklist.Add(ctx, tokenStr, remaining); err != nil {
		return false, err
	}
	return true, nil
}

// RunRevokeRefreshToken removes one refresh record. Unknown tokens are a no-op.
func RunRevokeRefreshToken(ctx context.Context, refreshToken string, deps LogoutDeps) error {
	if refreshToken == "" {
		return nil
	}
	_, err := deps.Store.PullRefreshToken(ctx, deps.HashToken(refreshToken))
	return err
}

// RunLogout ends one device session. It reports whether the access token
// was added to the ledger.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps LogoutDeps) (bool, error) {
	revoked, err := blacklistVerified(ctx, accessToken, deps)
	if err != nil {
		return false, err
	}
	return revoked, RunRevokeRefreshToken(ctx, refreshToken, deps)
}

// RunLogoutAll ends every session of userID.
func RunLogoutAll(ctx context.Context, userID, accessToken string, deps LogoutDeps) (bool, error) {
	revoked, err := blacklistVerified(ctx, accessToken, deps)
	if err != nil {
		return false, err
	}
	return revoked, deps.Store.ClearRefreshTokens(ctx, userID)
}
