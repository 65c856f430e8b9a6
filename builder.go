package authcore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal"
	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/limiters"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/provider/google"
	"github.com/MrEthical07/authcore/store"
)

const blacklistPrefix = "blacklist"

// Builder assembles an [Engine]. Builder instances are single-use: Build may
// be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	users  store.UserStore

	notifier  notify.Sender
	google    GoogleVerifier
	github    GitHubExchanger
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the credential store. Required.
func (b *Builder) WithUserStore(users store.UserStore) *Builder {
	b.users = users
	return b
}

// WithRedis sets the cache used for the revocation ledger and rate limits.
// Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithNotifier sets the transport for verification, reset and welcome
// emails. Without one, notifications are dropped.
func (b *Builder) WithNotifier(sender notify.Sender) *Builder {
	b.notifier = sender
	return b
}

// WithGoogleVerifier enables Google sign-in and takes precedence over
// Config.Providers.GoogleClientIDs.
func (b *Builder) WithGoogleVerifier(v GoogleVerifier) *Builder {
	b.google = v
	return b
}

// WithGitHubExchanger enables GitHub sign-in.
func (b *Builder) WithGitHubExchanger(x GitHubExchanger) *Builder {
	b.github = x
	return b
}

// WithAuditSink sets where audit events go when Config.Audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for token issuance, expiry and lockout
// decisions. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config: cfg,
		logger: logger,
		now:    now,
		users:  b.users,
		google: b.google,
		github: b.github,
	}

	// -------- PROVIDERS --------
	if engine.google == nil && len(cfg.Providers.GoogleClientIDs) > 0 {
		verifier, err := google.NewVerifier(google.Config{
			ClientIDs: cfg.Providers.GoogleClientIDs,
			Now:       now,
		})
		if err != nil {
			return nil, err
		}
		engine.google = verifier
	}

	// -------- CRYPTO --------
	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.accessTTL(),
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWT.SigningMethod)),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	// -------- LIMITERS AND LEDGER --------
	engine.blacklist = stores.NewBlacklistStore(b.redis, blacklistPrefix)
	engine.rateLimiter = rate.New(b.redis, rate.Config{
		EnableIPThrottle:      cfg.RateLimit.EnableLoginIPThrottle,
		MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
		LoginCooldownDuration: cfg.RateLimit.LoginWindow,
	})
	engine.lockout = limiters.NewLockoutLimiter(b.users, limiters.LockoutConfig{
		Enabled:   cfg.Lockout.Enabled,
		Threshold: cfg.Lockout.Threshold,
		Duration:  cfg.Lockout.Duration,
	})
	engine.requestLimiter = limiters.NewRequestLimiter(engine.rateLimiter, limiters.RequestConfig{
		EnableIdentifierThrottle: cfg.RateLimit.EnableRequestThrottle,
		EnableIPThrottle:         cfg.RateLimit.EnableRequestThrottle,
		Window:                   cfg.RateLimit.RequestWindow,
		MaxAttempts:              cfg.RateLimit.MaxRequests,
	})
	engine.accountLimiter = limiters.NewAccountCreationLimiter(b.redis, limiters.AccountConfig{
		Enabled:     cfg.RateLimit.EnableRegisterThrottle,
		MaxAttempts: cfg.RateLimit.MaxRegistrations,
		Cooldown:    cfg.RateLimit.RegisterWindow,
	})

	// -------- ASYNC SIDE CHANNELS --------
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.notifier = notify.NewDispatcher(b.notifier, notify.Config{
		BufferSize:  cfg.Notify.BufferSize,
		SendTimeout: cfg.Notify.SendTimeout,
	}, logger)

	engine.flow = flows.New(engine.flowDeps())

	b.built = true
	return engine, nil
}

func newUserID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// flowDeps binds the engine's collaborators into the flow dependency sets.
func (e *Engine) flowDeps() flows.Deps {
	cfg := e.config
	errs := e.flowErrors()
	checkPolicy := cfg.Password.Policy.Check

	tokens := flows.TokenDeps{
		AccessTTL:           e.jwtManager.AccessTTL(),
		RefreshTTL:          cfg.refreshTTL(),
		MaxTokens:           cfg.Refresh.MaxTokens,
		Now:                 e.now,
		ClientIPFromContext: clientIPFromContext,
		DeviceFromContext:   deviceFromContext,
		IssueAccessToken: func(u *store.User) (string, error) {
			return e.jwtManager.CreateAccess(jwt.Payload{UserID: u.ID, Email: u.Email, Role: u.Role})
		},
		NewRefreshToken: internal.NewRefreshToken,
		HashToken:       internal.HashToken,
		Store:           e.users,
		Errors:          errs,
	}

	oneTime := func(purpose store.Purpose, key string, kind notify.Kind, ttl time.Duration) flows.OneTimeDeps {
		return flows.OneTimeDeps{
			Purpose:             purpose,
			LimiterKey:          key,
			NotifyKind:          kind,
			TTL:                 ttl,
			CheckPolicy:         checkPolicy,
			HashPassword:        e.passwordHash.Hash,
			Now:                 e.now,
			ClientIPFromContext: clientIPFromContext,
			NewToken:            internal.NewOneTimeToken,
			HashToken:           internal.HashToken,
			Notify:              e.dispatchNotification,
			Limiter:             e.requestLimiter,
			Store:               e.users,
			Errors:              errs,
		}
	}

	return flows.Deps{
		Tokens: tokens,
		Validate: flows.ValidateDeps{
			ParseAccess: e.jwtManager.ParseAccess,
			IsBlacklisted: func(ctx context.Context, token string) (bool, error) {
				found, err := e.blacklist.Contains(ctx, token)
				if found {
					e.metricInc(MetricBlacklistRejected)
				}
				return found, err
			},
			Errors: errs,
		},
		Logout: flows.LogoutDeps{
			Now:               e.now,
			ExpiresAt:         jwt.ExpiresAtUnverified,
			VerifiedExpiresAt: e.jwtManager.VerifiedExpiresAt,
			MaxTTL:            e.jwtManager.AccessTTL(),
			HashToken:         internal.HashToken,
			Blacklist:         e.blacklist,
			Store:             e.users,
		},
		Login: flows.LoginDeps{
			Now:                 e.now,
			ClientIPFromContext: clientIPFromContext,
			Logger:              e.logger,
			FindByEmail:         e.users.FindByEmail,
			UpdatePassword: func(ctx context.Context, userID, hash string) error {
				return e.users.UpdatePassword(ctx, userID, hash, false)
			},
			VerifyPassword: e.passwordHash.Verify,
			NeedsUpgrade:   e.passwordHash.NeedsUpgrade,
			HashPassword:   e.passwordHash.Hash,
			UpgradeOnLogin: cfg.Password.UpgradeOnLogin,
			Rate:           e.rateLimiter,
			Lockout:        e.lockout,
			Tokens:         tokens,
			Errors:         errs,
		},
		Account: flows.AccountDeps{
			Now:                 e.now,
			ClientIPFromContext: clientIPFromContext,
			NewID:               newUserID,
			CheckPolicy:         checkPolicy,
			HashPassword:        e.passwordHash.Hash,
			VerifyPassword:      e.passwordHash.Verify,
			Limiter:             e.accountLimiter,
			Store:               e.users,
			Errors:              errs,
		},
		PasswordReset: oneTime(store.PurposePasswordReset, "reset", notify.KindPasswordReset, cfg.OneTime.ResetTTL),
		EmailVerification: oneTime(
			store.PurposeEmailVerification, "verify", notify.KindEmailVerification, cfg.OneTime.VerificationTTL,
		),
		Federated: flows.FederatedDeps{
			Now:                  e.now,
			NewID:                newUserID,
			NewSyntheticPassword: internal.NewSyntheticPassword,
			HashPassword:         e.passwordHash.Hash,
			Notify:               e.dispatchNotification,
			Store:                e.users,
			Tokens:               tokens,
			Errors:               errs,
		},
	}
}
