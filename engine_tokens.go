package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/store"
)

// IssueTokenPair signs an access token for user and stores a new refresh
// token on it. The oldest refresh token is dropped once the user holds the
// configured maximum. Device and IP come from [WithDevice] and
// [WithClientIP].
func (e *Engine) IssueTokenPair(ctx context.Context, user *store.User) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	if user == nil || user.ID == "" {
		return TokenPair{}, ErrValidation
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	pair, err := e.flow.IssueTokenPair(ctx, user)
	if err != nil {
		return TokenPair{}, e.fault(ctx, "issue_token_pair", err)
	}
	e.metricInc(MetricTokenPairIssued)
	return pair, nil
}

// VerifyAccessToken checks signature and expiry without consulting the
// revocation ledger. Use [Engine.Authenticate] on request paths.
func (e *Engine) VerifyAccessToken(token string) (*AccessClaims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return e.flow.VerifyAccess(token)
}

// Refresh consumes a refresh token and returns a fresh pair. Each refresh
// token works once; a replay, an expired token and an unknown token all
// fail with [ErrInvalidToken].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*SignInResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.flow.Refresh(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		var uid string
		if res != nil {
			uid = userID(res.User)
		}
		e.emitAudit(ctx, auditEventRefreshInvalid, false, uid, "", err, nil)
		return nil, e.fault(ctx, "refresh", err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.metricInc(MetricTokenPairIssued)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.User.ID, "", nil, nil)
	return &SignInResult{User: res.User, Tokens: res.Tokens}, nil
}

// RevokeRefreshToken removes one refresh token. Unknown tokens are ignored.
func (e *Engine) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	return e.fault(ctx, "revoke_refresh_token", e.flow.RevokeRefreshToken(ctx, refreshToken))
}

// RevokeAllRefreshTokens signs userID out of every device. Access tokens
// already issued stay valid until they expire unless blacklisted.
func (e *Engine) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrValidation
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	err := e.users.ClearRefreshTokens(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return e.fault(ctx, "revoke_all_refresh_tokens", err)
}
