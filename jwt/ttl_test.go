package jwt

import (
	"testing"
	"time"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"", DefaultAccessTTL},
		{"0m", DefaultAccessTTL},
		{"15", DefaultAccessTTL},
		{"m15", DefaultAccessTTL},
		{"1.5h", DefaultAccessTTL},
		{"15M", DefaultAccessTTL},
		{" 15m", DefaultAccessTTL},
		{"-5m", DefaultAccessTTL},
		{"1w", DefaultAccessTTL},
		{"999999999999d", DefaultAccessTTL},
	}
	for _, tc := range tests {
		if got := ParseTTL(tc.in, DefaultAccessTTL); got != tc.want {
			t.Fatalf("ParseTTL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if got := ParseTTL("bogus", DefaultRefreshTTL); got != 7*24*time.Hour {
		t.Fatalf("expected refresh fallback, got %v", got)
	}
}
