package stores

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrBlacklistRedisUnavailable = errors.New("blacklist redis unavailable")
)

// BlacklistStore is the revocation ledger for access tokens. Each entry is
// an independent key that expires together with the token it revokes.
type BlacklistStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewBlacklistStore(redisClient redis.UniversalClient, prefix string) *BlacklistStore {
	if prefix == "" {
		prefix = "blacklist"
	}
	return &BlacklistStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *BlacklistStore) key(token string) string {
	return s.prefix + ":" + token
}

// Add marks token revoked for the remaining lifetime, rounded up to whole
// seconds. A non-positive remainder writes nothing.
func (s *BlacklistStore) Add(ctx context.Context, token string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	ttl := time.Duration(math.Ceil(remaining.Seconds())) * time.Second

	if err := s.redis.Set(ctx, s.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlacklistRedisUnavailable, err)
	}
	return nil
}

// Contains reports whether token has an unexpired revocation entry.
func (s *BlacklistStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBlacklistRedisUnavailable, err)
	}
	return n > 0, nil
}
