package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/store"
)

// RequestEmailVerification sends a new verification link, replacing any
// earlier one. Unknown addresses return nil; verified accounts return
// [ErrAlreadyVerified].
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.metricInc(MetricEmailVerificationRequest)
	user, err := e.flow.RequestEmailVerification(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricRequestRateLimited)
			e.emitRateLimit(ctx, "email_verification")
		}
		return e.fault(ctx, "request_email_verification", err)
	}

	e.emitAudit(ctx, auditEventEmailVerificationRequest, true, userID(user), "", nil, nil)
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (*store.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	user, err := e.flow.VerifyEmail(ctx, token)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", "", err, nil)
		return nil, e.fault(ctx, "verify_email", err)
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerificationConfirm, true, user.ID, "", nil, nil)
	return user, nil
}
