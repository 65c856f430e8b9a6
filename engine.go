package authcore

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/limiters"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// Engine runs every authentication operation. It is built once through
// [Builder] and then treated as immutable.
type Engine struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	users          store.UserStore
	jwtManager     *jwt.Manager
	passwordHash   *password.Argon2
	blacklist      *stores.BlacklistStore
	rateLimiter    *rate.Limiter
	lockout        *limiters.LockoutLimiter
	requestLimiter *limiters.RequestLimiter
	accountLimiter *limiters.AccountCreationLimiter

	google GoogleVerifier
	github GitHubExchanger

	audit    *internalaudit.Dispatcher
	notifier *notify.Dispatcher
	metrics  *Metrics

	flow flows.Service
}

// Close drains the audit and notification queues. The Engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.notifier != nil {
		e.notifier.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flow.Initialized()
}

// withTimeout bounds one operation's store, cache and provider calls.
func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Timeouts.Default)
}

// fault maps an error coming out of a flow to the public contract. Typed
// errors pass through; infrastructure errors become SERVICE_UNAVAILABLE or
// INTERNAL and are logged with their cause.
func (e *Engine) fault(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	if transient(err) {
		e.metricInc(MetricServiceUnavailable)
		e.logger.WarnContext(ctx, "backend unavailable", "op", op, "error", err)
		return ErrServiceUnavailable.with(err)
	}
	e.logger.ErrorContext(ctx, "internal error", "op", op, "error", err)
	return ErrInternal.with(err)
}

func transient(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, store.ErrUnavailable),
		errors.Is(err, rate.ErrRedisUnavailable),
		errors.Is(err, stores.ErrBlacklistRedisUnavailable),
		errors.Is(err, limiters.ErrLockoutUnavailable),
		errors.Is(err, limiters.ErrRequestRedisUnavailable),
		errors.Is(err, limiters.ErrAccountRedisUnavailable):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (e *Engine) flowErrors() flows.Errors {
	return flows.Errors{
		InvalidCredentials: ErrInvalidCredentials,
		AccountLocked:      ErrAccountLocked,
		AccountDisabled:    ErrAccountDisabled,
		TokenExpired:       ErrTokenExpired,
		InvalidToken:       ErrInvalidToken,
		MissingToken:       ErrMissingToken,
		EmailExists:        ErrEmailExists,
		EmailRequired:      ErrEmailRequired,
		Validation:         ErrValidation,
		WeakPassword:       ErrWeakPassword,
		RateLimited:        ErrRateLimited,
		AlreadyVerified:    ErrAlreadyVerified,
		ProviderAuthFailed: ErrProviderAuthFailed,
	}
}

// dispatchNotification hands n to the async notifier. Delivery failures
// never reach the caller.
func (e *Engine) dispatchNotification(n notify.Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.Dispatch(n)
}

func userID(u *store.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
