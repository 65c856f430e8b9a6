package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/store"
)

// Register creates a password account, queues its verification email and
// signs it in.
//
// Register returns [ErrValidation] for a malformed email or empty name,
// [ErrWeakPassword] when the password fails the policy, [ErrEmailExists] for
// a taken address and [ErrRateLimited] when the client IP exhausted its
// registration budget.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*SignInResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	user, err := e.flow.Register(ctx, flows.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			e.metricInc(MetricAccountCreationDuplicate)
		case errors.Is(err, ErrRateLimited):
			e.metricInc(MetricAccountCreationRateLimited)
			e.emitRateLimit(ctx, "register")
		}
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", "", err, nil)
		return nil, e.fault(ctx, "register", err)
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(ctx, auditEventAccountCreationSuccess, true, user.ID, "", nil, nil)

	if err := e.flow.IssueEmailVerification(ctx, user); err != nil {
		e.logger.WarnContext(ctx, "verification email not issued", "user_id", user.ID, "error", err)
	}

	pair, err := e.flow.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, e.fault(ctx, "register", err)
	}
	e.metricInc(MetricTokenPairIssued)
	return &SignInResult{User: user, Tokens: pair}, nil
}

// Login authenticates an email/password pair.
//
// Unknown emails and wrong passwords both return [ErrInvalidCredentials].
// The failure that reaches the lockout threshold, and every attempt while
// the lock holds, return [ErrAccountLocked]. A successful login clears the
// failure counter.
func (e *Engine) Login(ctx context.Context, email, password string) (*SignInResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	now := e.now()
	res, err := e.flow.Login(ctx, email, password)
	if err != nil {
		var user *store.User
		if res != nil {
			user = res.User
		}
		e.recordLoginFailure(ctx, user, now, err)
		return nil, e.fault(ctx, "login", err)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTokenPairIssued)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.User.ID, "", nil, nil)
	return &SignInResult{User: res.User, Tokens: res.Tokens}, nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, user *store.User, now time.Time, err error) {
	uid := userID(user)
	switch {
	case errors.Is(err, ErrRateLimited):
		e.metricInc(MetricLoginRateLimited)
		e.emitRateLimit(ctx, "login")
	case errors.Is(err, ErrAccountLocked):
		if user != nil && user.IsLocked(now) {
			e.metricInc(MetricLoginRejectedLocked)
		} else {
			e.metricInc(MetricAccountLocked)
			e.emitAudit(ctx, auditEventAccountLocked, false, uid, "", err, nil)
		}
	case errors.Is(err, ErrAccountDisabled):
		e.metricInc(MetricLoginRejectedDisabled)
	default:
		e.metricInc(MetricLoginFailure)
	}
	e.emitAudit(ctx, auditEventLoginFailure, false, uid, "", err, nil)
}

// ChangePassword replaces the password after checking the current one and
// signs the user out of every device.
func (e *Engine) ChangePassword(ctx context.Context, userID, current, next string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.flow.ChangePassword(ctx, userID, current, next); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metricInc(MetricPasswordChangeInvalidOld)
		}
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", err, nil)
		return e.fault(ctx, "change_password", err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, "", nil, nil)
	return nil
}

// SetAccountActive enables or disables an account. Disabling also removes
// every refresh token; access tokens run out on their own.
func (e *Engine) SetAccountActive(ctx context.Context, userID string, active bool) (*store.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrValidation
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	user, err := e.flow.SetActive(ctx, userID, active)
	if err != nil {
		return nil, e.fault(ctx, "set_account_active", err)
	}

	if active {
		e.metricInc(MetricAccountEnabled)
	} else {
		e.metricInc(MetricAccountDisabled)
	}
	e.emitAudit(ctx, auditEventAccountStatusChange, true, userID, "", nil, func() map[string]string {
		if active {
			return map[string]string{"status": "active"}
		}
		return map[string]string{"status": "disabled"}
	})
	return user, nil
}

// GetUser loads the account behind an authenticated request.
func (e *Engine) GetUser(ctx context.Context, userID string) (*store.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrInvalidToken
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, e.fault(ctx, "get_user", err)
	}
	return user, nil
}
