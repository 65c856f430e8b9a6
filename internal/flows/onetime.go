package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/internal/limiters"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/store"
)

type OneTimeStore interface {
	FindByEmail(ctx context.Context, email string) (*store.User, error)
	SetOneTimeToken(ctx context.Context, userID string, purpose store.Purpose, tokenHash string, expiresAt time.Time) error
	ConsumeOneTimeToken(ctx context.Context, purpose store.Purpose, tokenHash string, effect store.ConsumeEffect, now time.Time) (*store.User, error)
}

type RequestLimiter interface {
	Check(ctx context.Context, purpose, email, ip string) error
}

// OneTimeDeps captures one purpose of the single-use token flows. Password
// reset and email verification each get their own copy.
type OneTimeDeps struct {
	Purpose      store.Purpose
	LimiterKey   string
	NotifyKind   notify.Kind
	TTL          time.Duration
	CheckPolicy  func(string) error
	HashPassword func(string) (string, error)

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string
	NewToken            func() (string, error)
	HashToken           func(string) string
	Notify              func(notify.Notification)

	Limiter RequestLimiter
	Store   OneTimeStore
	Errors  Errors
}

// RunIssueOneTimeToken stores the hash of a fresh token on user, replacing
// any earlier one for the same purpose, and hands the raw token to Notify.
func RunIssueOneTimeToken(ctx context.Context, user *store.User, deps OneTimeDeps) error {
	raw, err := deps.NewToken()
	if err != nil {
		return fmt.Errorf("generate %s token: %w", deps.Purpose, err)
	}
	expiresAt := deps.Now().Add(deps.TTL)
	if err := deps.Store.SetOneTimeToken(ctx, user.ID, deps.Purpose, deps.HashToken(raw), expiresAt); err != nil {
		return err
	}
	if deps.Notify != nil {
		deps.Notify(notify.Notification{
			Kind:  deps.NotifyKind,
			To:    user.Email,
			Name:  user.Name,
			Token: raw,
		})
	}
	return nil
}

// lookupForRequest applies the request throttle and resolves email. A nil
// user with a nil error means there is nothing to send.
func lookupForRequest(ctx context.Context, email string, deps OneTimeDeps) (*store.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, deps.Errors.Validation
	}
	if err := deps.Limiter.Check(ctx, deps.LimiterKey, email, deps.ClientIPFromContext(ctx)); err != nil {
		if errors.Is(err, limiters.ErrRequestRateLimited) {
			return nil, deps.Errors.RateLimited
		}
		return nil, err
	}

	user, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func consume(ctx context.Context, token string, effect store.ConsumeEffect, deps OneTimeDeps) (*store.User, error) {
	user, err := deps.Store.ConsumeOneTimeToken(ctx, deps.Purpose, deps.HashToken(token), effect, deps.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, deps.Errors.InvalidToken
		}
		return nil, err
	}
	return user, nil
}
