package limiters

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal/rate"
)

var (
	ErrRequestRateLimited      = errors.New("one-time token request rate limited")
	ErrRequestRedisUnavailable = errors.New("request limiter redis unavailable")
)

// RequestConfig throttles password-reset and verification-email requests.
type RequestConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Window                   time.Duration
	MaxAttempts              int
}

// RequestLimiter throttles requests that send a one-time token by email,
// keyed by the submitted address and by client IP. The identifier key uses
// the submitted address, so unknown and known emails are throttled alike.
type RequestLimiter struct {
	rate   *rate.Limiter
	config RequestConfig
}

func NewRequestLimiter(limiter *rate.Limiter, cfg RequestConfig) *RequestLimiter {
	return &RequestLimiter{rate: limiter, config: cfg}
}

// Check consumes one request for purpose ("reset", "verify").
func (l *RequestLimiter) Check(ctx context.Context, purpose, email, ip string) error {
	if l == nil || l.rate == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle && email != "" {
		if err := l.hit(ctx, requestIdentifierKey(purpose, email)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.hit(ctx, requestIPKey(purpose, ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *RequestLimiter) hit(ctx context.Context, key string) error {
	err := l.rate.Hit(ctx, key, l.config.MaxAttempts, l.config.Window)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRequestRateLimited
	default:
		return errors.Join(ErrRequestRedisUnavailable, err)
	}
}

func requestIdentifierKey(purpose, email string) string {
	return "rl:req:" + purpose + ":id:" + email
}

func requestIPKey(purpose, ip string) string {
	return "rl:req:" + purpose + ":ip:" + ip
}
