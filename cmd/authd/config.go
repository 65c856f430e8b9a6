package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/MrEthical07/authcore"
)

type appConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"authd"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	TrustProxy   bool          `env:"TRUST_PROXY" envDefault:"false"`
	MetricsPath  string        `env:"METRICS_PATH" envDefault:"/metrics"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	JWTSecret     string `env:"JWT_SECRET"`
	JWTPrivateKey string `env:"JWT_PRIVATE_KEY_B64"`
	JWTPublicKey  string `env:"JWT_PUBLIC_KEY_B64"`
	JWTMethod     string `env:"JWT_SIGNING_METHOD" envDefault:"hs256"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"authcore"`
	JWTAudience   string `env:"JWT_AUDIENCE"`
	AccessTTL     string `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL    string `env:"REFRESH_TOKEN_TTL" envDefault:"7d"`

	LockoutThreshold int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOGIN_LOCK_DURATION" envDefault:"30m"`
	AuditEnabled     bool          `env:"AUDIT_ENABLED" envDefault:"false"`

	GoogleClientIDs    []string `env:"GOOGLE_CLIENT_IDS" envSeparator:","`
	GitHubClientID     string   `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string   `env:"GITHUB_REDIRECT_URL"`
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// engineConfig maps the process environment onto the engine configuration.
func (c appConfig) engineConfig() (authcore.Config, error) {
	cfg := authcore.DefaultConfig()
	cfg.JWT.SigningMethod = strings.ToLower(strings.TrimSpace(c.JWTMethod))
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.JWT.Audience = c.JWTAudience
	cfg.JWT.AccessTTL = c.AccessTTL
	cfg.Refresh.TTL = c.RefreshTTL
	cfg.Lockout.Threshold = c.LockoutThreshold
	cfg.Lockout.Duration = c.LockoutDuration
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Providers.GoogleClientIDs = c.GoogleClientIDs

	switch cfg.JWT.SigningMethod {
	case "", "hs256":
		if c.JWTSecret == "" {
			return authcore.Config{}, errors.New("JWT_SECRET is required for hs256")
		}
		cfg.JWT.PrivateKey = []byte(c.JWTSecret)
	case "ed25519":
		priv, err := base64.StdEncoding.DecodeString(c.JWTPrivateKey)
		if err != nil {
			return authcore.Config{}, fmt.Errorf("decode JWT_PRIVATE_KEY_B64: %w", err)
		}
		pub, err := base64.StdEncoding.DecodeString(c.JWTPublicKey)
		if err != nil {
			return authcore.Config{}, fmt.Errorf("decode JWT_PUBLIC_KEY_B64: %w", err)
		}
		cfg.JWT.PrivateKey = priv
		cfg.JWT.PublicKey = pub
	}

	if err := cfg.Validate(); err != nil {
		return authcore.Config{}, err
	}
	return cfg, nil
}

func (c appConfig) githubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}
