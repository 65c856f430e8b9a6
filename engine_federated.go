package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/provider"
)

// ResolveGoogleSignIn verifies a Google ID token and signs in the matching
// account, creating it on first use.
func (e *Engine) ResolveGoogleSignIn(ctx context.Context, idToken string) (*SignInResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if idToken == "" {
		return nil, ErrMissingToken
	}
	if e.google == nil {
		return nil, ErrProviderNotConfigured
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	id, err := e.google.Verify(ctx, idToken)
	if err != nil {
		return nil, e.providerFault(ctx, provider.Google, err)
	}
	return e.resolveFederated(ctx, id)
}

// ResolveGithubSignIn exchanges a GitHub OAuth code and signs in the
// matching account, creating it on first use.
func (e *Engine) ResolveGithubSignIn(ctx context.Context, code string) (*SignInResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if code == "" {
		return nil, ErrMissingCode
	}
	if e.github == nil {
		return nil, ErrProviderNotConfigured
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	id, err := e.github.Exchange(ctx, code)
	if err != nil {
		return nil, e.providerFault(ctx, provider.GitHub, err)
	}
	return e.resolveFederated(ctx, id)
}

func (e *Engine) resolveFederated(ctx context.Context, id provider.Identity) (*SignInResult, error) {
	res, err := e.flow.Federated(ctx, id)
	if err != nil {
		e.metricInc(MetricFederatedSignInFailure)
		var uid string
		if res != nil {
			uid = userID(res.User)
		}
		e.emitAudit(ctx, auditEventFederatedSignIn, false, uid, id.Provider, err, nil)
		return nil, e.fault(ctx, "federated_sign_in", err)
	}

	e.metricInc(MetricFederatedSignInSuccess)
	e.metricInc(MetricTokenPairIssued)
	if res.Created {
		e.metricInc(MetricFederatedAccountCreated)
	}
	e.emitAudit(ctx, auditEventFederatedSignIn, true, res.User.ID, id.Provider, nil, func() map[string]string {
		if res.Created {
			return map[string]string{"created": "true"}
		}
		return nil
	})
	return &SignInResult{User: res.User, Tokens: res.Tokens, Created: res.Created}, nil
}

// providerFault keeps provider detail in the server log and returns a
// generic kind to the caller.
func (e *Engine) providerFault(ctx context.Context, name string, err error) error {
	e.metricInc(MetricFederatedSignInFailure)
	switch {
	case errors.Is(err, provider.ErrEmailRequired):
		e.emitAudit(ctx, auditEventFederatedSignIn, false, "", name, ErrEmailRequired, nil)
		return ErrEmailRequired.with(err)
	case errors.Is(err, context.DeadlineExceeded):
		e.metricInc(MetricServiceUnavailable)
		e.logger.WarnContext(ctx, "provider timed out", "provider", name, "error", err)
		return ErrServiceUnavailable.with(err)
	}
	e.logger.WarnContext(ctx, "provider sign-in rejected", "provider", name, "error", err)
	e.emitAudit(ctx, auditEventFederatedSignIn, false, "", name, ErrProviderAuthFailed, nil)
	return ErrProviderAuthFailed.with(err)
}
