package authcore

import (
	"context"
	"errors"
)

// RequestPasswordReset mails a single-use reset link to an active account.
//
// The result is the same nil for registered, unregistered and disabled
// addresses so callers cannot probe which emails exist. Only
// [ErrValidation], [ErrRateLimited] and backend faults are reported.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.metricInc(MetricPasswordResetRequest)
	user, err := e.flow.RequestPasswordReset(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricRequestRateLimited)
			e.emitRateLimit(ctx, "password_reset")
		}
		return e.fault(ctx, "request_password_reset", err)
	}

	e.emitAudit(ctx, auditEventPasswordResetRequest, true, userID(user), "", nil, nil)
	return nil
}

// ResetPassword consumes a reset token and sets a new password. Every
// refresh token of the account is revoked in the same update.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	user, err := e.flow.ResetPassword(ctx, token, newPassword)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", err, nil)
		return e.fault(ctx, "reset_password", err)
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.ID, "", nil, nil)
	return nil
}
