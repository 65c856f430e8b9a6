package authcore

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "test defaults valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "hs256 short key invalid",
			mutate: func(c *Config) {
				c.JWT.PrivateKey = []byte("too-short")
			},
			wantValid: false,
		},
		{
			name: "signing method is case insensitive",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "HS256"
			},
			wantValid: true,
		},
		{
			name: "ed25519 without public key invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "ed25519"
			},
			wantValid: false,
		},
		{
			name: "unknown signing method invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "refresh window of zero invalid",
			mutate: func(c *Config) {
				c.Refresh.MaxTokens = 0
			},
			wantValid: false,
		},
		{
			name: "refresh window above five invalid",
			mutate: func(c *Config) {
				c.Refresh.MaxTokens = 6
			},
			wantValid: false,
		},
		{
			name: "lockout threshold zero invalid",
			mutate: func(c *Config) {
				c.Lockout.Threshold = 0
			},
			wantValid: false,
		},
		{
			name: "disabled lockout ignores threshold",
			mutate: func(c *Config) {
				c.Lockout.Enabled = false
				c.Lockout.Threshold = 0
			},
			wantValid: true,
		},
		{
			name: "reset ttl zero invalid",
			mutate: func(c *Config) {
				c.OneTime.ResetTTL = 0
			},
			wantValid: false,
		},
		{
			name: "argon2 memory below floor invalid",
			mutate: func(c *Config) {
				c.Password.Memory = 4 * 1024
			},
			wantValid: false,
		},
		{
			name: "policy min above max invalid",
			mutate: func(c *Config) {
				c.Password.Policy.MinLength = 64
				c.Password.Policy.MaxLength = 32
			},
			wantValid: false,
		},
		{
			name: "timeout zero invalid",
			mutate: func(c *Config) {
				c.Timeouts.Default = 0
			},
			wantValid: false,
		},
		{
			name: "login throttle without window invalid",
			mutate: func(c *Config) {
				c.RateLimit.LoginWindow = 0
			},
			wantValid: false,
		},
		{
			name: "disabled request throttle ignores budget",
			mutate: func(c *Config) {
				c.RateLimit.EnableRequestThrottle = false
				c.RateLimit.MaxRequests = 0
			},
			wantValid: true,
		},
		{
			name: "audit enabled with empty buffer invalid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "latency histograms need metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigNeedsOnlyAKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without a signing key must not validate")
	}
	cfg.JWT.PrivateKey = make([]byte, 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with key: %v", err)
	}
}

func TestConfigTTLFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = "fifteen"
	cfg.Refresh.TTL = "2w"
	if got := cfg.accessTTL(); got != 15*time.Minute {
		t.Fatalf("access fallback: got %v", got)
	}
	if got := cfg.refreshTTL(); got != 7*24*time.Hour {
		t.Fatalf("refresh fallback: got %v", got)
	}

	cfg.JWT.AccessTTL = "30s"
	cfg.Refresh.TTL = "2d"
	if cfg.accessTTL() != 30*time.Second || cfg.refreshTTL() != 48*time.Hour {
		t.Fatalf("unexpected parsed TTLs %v / %v", cfg.accessTTL(), cfg.refreshTTL())
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.GoogleClientIDs = []string{"client-a"}
	out := cloneConfig(cfg)

	cfg.JWT.PrivateKey[0] = 'X'
	cfg.Providers.GoogleClientIDs[0] = "mutated"
	if out.JWT.PrivateKey[0] == 'X' || out.Providers.GoogleClientIDs[0] != "client-a" {
		t.Fatal("cloneConfig must not share slices with its input")
	}
}
