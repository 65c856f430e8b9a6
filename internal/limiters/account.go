package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAccountRateLimited      = errors.New("account rate limited")
	ErrAccountRedisUnavailable = errors.New("account redis unavailable")
)

// AccountConfig throttles self-service registrations per client IP.
type AccountConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

type AccountCreationLimiter struct {
	redis  redis.UniversalClient
	config AccountConfig
}

func NewAccountCreationLimiter(redisClient redis.UniversalClient, cfg AccountConfig) *AccountCreationLimiter {
	return &AccountCreationLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Enforce counts one registration attempt from ip.
func (l *AccountCreationLimiter) Enforce(ctx context.Context, ip string) error {
	if l == nil || !l.config.Enabled || ip == "" {
		return nil
	}
	key := "rl:register:ip:" + ip

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAccountRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrAccountRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return ErrAccountRateLimited
	}

	return nil
}
