package rate

import "errors"

var (
	// ErrRateLimited means the caller exhausted the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures while counting.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
