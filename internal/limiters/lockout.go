package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/store"
)

// LockoutConfig holds configuration for the automatic account lockout.
type LockoutConfig struct {
	Enabled   bool
	Threshold int
	Duration  time.Duration
}

var (
	// ErrLockoutUnavailable indicates the lockout backend is unreachable.
	ErrLockoutUnavailable = errors.New("lockout backend unavailable")
)

// LockoutCounter is the slice of the credential store the lockout guard
// needs. Counters live on the user record so a lock survives cache loss.
type LockoutCounter interface {
	IncrementLoginAttempts(ctx context.Context, userID string, policy store.LockPolicy, now time.Time) (store.LockState, error)
	ResetLoginAttempts(ctx context.Context, userID string) error
}

// LockoutLimiter tracks persistent failed login attempts and locks the
// account when the configured threshold is reached.
type LockoutLimiter struct {
	store  LockoutCounter
	config LockoutConfig
}

// NewLockoutLimiter creates a new lockout limiter.
func NewLockoutLimiter(counter LockoutCounter, cfg LockoutConfig) *LockoutLimiter {
	return &LockoutLimiter{store: counter, config: cfg}
}

// IsLocked reports whether user is inside an unexpired lock window.
func (l *LockoutLimiter) IsLocked(user *store.User, now time.Time) bool {
	if l == nil || !l.config.Enabled {
		return false
	}
	return user.IsLocked(now)
}

// RecordFailure atomically increments the user's failure counter. It returns
// true when this failure opened a lock window.
func (l *LockoutLimiter) RecordFailure(ctx context.Context, userID string, now time.Time) (bool, error) {
	if l == nil || !l.config.Enabled || userID == "" {
		return false, nil
	}

	state, err := l.store.IncrementLoginAttempts(ctx, userID, store.LockPolicy{
		Threshold: l.config.Threshold,
		Duration:  l.config.Duration,
	}, now)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLockoutUnavailable, err)
	}

	return state.LockUntil != nil && state.LockUntil.After(now), nil
}

// Reset clears the counter and any lock, e.g. after a successful sign-in.
func (l *LockoutLimiter) Reset(ctx context.Context, userID string) error {
	if l == nil || userID == "" {
		return nil
	}

	if err := l.store.ResetLoginAttempts(ctx, userID); err != nil {
		return fmt.Errorf("%w: %w", ErrLockoutUnavailable, err)
	}
	return nil
}
