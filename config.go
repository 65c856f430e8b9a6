package authcore

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override what you need; Build validates the result.
type Config struct {
	JWT       JWTConfig
	Refresh   RefreshConfig
	Lockout   LockoutConfig
	OneTime   OneTimeConfig
	Password  PasswordConfig
	Providers ProvidersConfig
	Timeouts  TimeoutConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Notify    NotifyConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures access tokens. AccessTTL uses the "<n><s|m|h|d>"
// grammar; malformed values fall back to 15m.
type JWTConfig struct {
	AccessTTL     string
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures opaque refresh tokens. TTL uses the same grammar
// as JWTConfig.AccessTTL with a 7d fallback.
type RefreshConfig struct {
	TTL       string
	MaxTokens int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls automatic lockout after repeated failed logins.
type LockoutConfig struct {
	Enabled   bool
	Threshold int
	Duration  time.Duration
}

/*
====================================
ONE-TIME TOKEN CONFIG
====================================
*/

type OneTimeConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters and the strength policy applied
// to user-chosen passwords.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
	Policy         password.Policy
}

/*
====================================
PROVIDERS CONFIG
====================================
*/

// ProvidersConfig names the accepted Google OAuth client ids. When set and no
// verifier is injected, Build creates one against Google's published keys.
// The GitHub exchanger is always injected through the Builder.
type ProvidersConfig struct {
	GoogleClientIDs []string
}

type TimeoutConfig struct {
	Default time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig configures Redis fixed-window throttles. Login is per IP;
// reset and verification requests are per address and per IP.
type RateLimitConfig struct {
	EnableLoginIPThrottle bool
	MaxLoginAttempts      int
	LoginWindow           time.Duration

	EnableRequestThrottle bool
	MaxRequests           int
	RequestWindow         time.Duration

	EnableRegisterThrottle bool
	MaxRegistrations       int
	RegisterWindow         time.Duration
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

type NotifyConfig struct {
	BufferSize  int
	SendTimeout time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the production defaults. JWT keys are left empty and
// must be supplied.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:     "15m",
			SigningMethod: "hs256",
		},
		Refresh: RefreshConfig{
			TTL:       "7d",
			MaxTokens: store.MaxRefreshTokens,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Threshold: 5,
			Duration:  30 * time.Minute,
		},
		OneTime: OneTimeConfig{
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
		},
		Password: PasswordConfig{
			Memory:         pw.Memory,
			Time:           pw.Time,
			Parallelism:    pw.Parallelism,
			SaltLength:     pw.SaltLength,
			KeyLength:      pw.KeyLength,
			UpgradeOnLogin: true,
			Policy:         password.DefaultPolicy(),
		},
		Timeouts: TimeoutConfig{
			Default: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			EnableLoginIPThrottle:  true,
			MaxLoginAttempts:       20,
			LoginWindow:            15 * time.Minute,
			EnableRequestThrottle:  true,
			MaxRequests:            5,
			RequestWindow:          15 * time.Minute,
			EnableRegisterThrottle: true,
			MaxRegistrations:       10,
			RegisterWindow:         time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Notify: NotifyConfig{
			BufferSize:  256,
			SendTimeout: 10 * time.Second,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Providers.GoogleClientIDs = append([]string(nil), cfg.Providers.GoogleClientIDs...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// accessTTL and refreshTTL resolve the duration strings with their fallbacks.
func (c *Config) accessTTL() time.Duration {
	return jwt.ParseTTL(c.JWT.AccessTTL, jwt.DefaultAccessTTL)
}

func (c *Config) refreshTTL() time.Duration {
	return jwt.ParseTTL(c.Refresh.TTL, jwt.DefaultRefreshTTL)
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "", "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	if c.Refresh.MaxTokens < 1 || c.Refresh.MaxTokens > store.MaxRefreshTokens {
		return errors.New("Refresh MaxTokens must be between 1 and 5")
	}

	if c.Lockout.Enabled {
		if c.Lockout.Threshold < 1 {
			return errors.New("Lockout Threshold must be >= 1")
		}
		if c.Lockout.Duration <= 0 {
			return errors.New("Lockout Duration must be > 0")
		}
	}

	if c.OneTime.VerificationTTL <= 0 {
		return errors.New("OneTime VerificationTTL must be > 0")
	}
	if c.OneTime.ResetTTL <= 0 {
		return errors.New("OneTime ResetTTL must be > 0")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if p := c.Password.Policy; p.MaxLength > 0 && p.MinLength > p.MaxLength {
		return errors.New("Password Policy MinLength exceeds MaxLength")
	}

	if c.Timeouts.Default <= 0 {
		return errors.New("Timeouts Default must be > 0")
	}

	if c.RateLimit.EnableLoginIPThrottle && (c.RateLimit.MaxLoginAttempts < 1 || c.RateLimit.LoginWindow <= 0) {
		return errors.New("RateLimit login throttle requires MaxLoginAttempts >= 1 and LoginWindow > 0")
	}
	if c.RateLimit.EnableRequestThrottle && (c.RateLimit.MaxRequests < 1 || c.RateLimit.RequestWindow <= 0) {
		return errors.New("RateLimit request throttle requires MaxRequests >= 1 and RequestWindow > 0")
	}
	if c.RateLimit.EnableRegisterThrottle && (c.RateLimit.MaxRegistrations < 1 || c.RateLimit.RegisterWindow <= 0) {
		return errors.New("RateLimit register throttle requires MaxRegistrations >= 1 and RegisterWindow > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
