package jwt

import (
	"regexp"
	"strconv"
	"time"
)

const (
	// DefaultAccessTTL applies when the configured access TTL is malformed.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL applies when the configured refresh TTL is malformed.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var ttlPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseTTL parses a duration string of the form <digits><unit>, unit one of
// s, m, h, d. Malformed, zero or overflowing input yields fallback.
func ParseTTL(s string, fallback time.Duration) time.Duration {
	m := ttlPattern.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}

	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	if n > int64((1<<63-1)/unit) {
		return fallback
	}
	return time.Duration(n) * unit
}
