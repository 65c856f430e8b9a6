package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/store"
)

// BlacklistAccessToken revokes an access token for the rest of its
// lifetime. Tokens that are already expired or cannot be decoded need no
// entry and return nil.
func (e *Engine) BlacklistAccessToken(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	added, err := e.flow.BlacklistAccessToken(ctx, token)
	if err != nil {
		return e.fault(ctx, "blacklist_access_token", err)
	}
	if added {
		e.metricInc(MetricAccessTokenBlacklisted)
		e.emitAudit(ctx, auditEventAccessTokenRevoked, true, "", "", nil, nil)
	}
	return nil
}

// IsTokenBlacklisted reports whether token has been revoked and its entry
// has not yet expired.
func (e *Engine) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	if token == "" {
		return false, nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	found, err := e.blacklist.Contains(ctx, token)
	if err != nil {
		return false, e.fault(ctx, "is_token_blacklisted", err)
	}
	return found, nil
}

// Authenticate verifies token and rejects it when revoked. It is the check
// the HTTP middleware runs on every authenticated request. An unreachable
// revocation ledger fails closed with [ErrServiceUnavailable].
func (e *Engine) Authenticate(ctx context.Context, token string) (*AccessClaims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	claims, err := e.flow.Authenticate(ctx, token)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}
	if err != nil {
		return nil, e.fault(ctx, "authenticate", err)
	}
	return claims, nil
}

// Logout ends one device session: the access token is blacklisted and the
// refresh token removed. Either token may be empty.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	revoked, err := e.flow.Logout(ctx, accessToken, refreshToken)
	if err != nil {
		return e.fault(ctx, "logout", err)
	}
	if revoked {
		e.metricInc(MetricAccessTokenBlacklisted)
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, e.subjectOf(accessToken), "", nil, nil)
	return nil
}

// LogoutAll blacklists accessToken and removes every refresh token of
// userID.
func (e *Engine) LogoutAll(ctx context.Context, userID, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrValidation
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	revoked, err := e.flow.LogoutAll(ctx, userID, accessToken)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return e.fault(ctx, "logout_all", err)
	}
	if revoked {
		e.metricInc(MetricAccessTokenBlacklisted)
	}
	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)
	return nil
}

func (e *Engine) subjectOf(accessToken string) string {
	if accessToken == "" {
		return ""
	}
	claims, err := e.flow.VerifyAccess(accessToken)
	if err != nil {
		return ""
	}
	return claims.UserID
}
