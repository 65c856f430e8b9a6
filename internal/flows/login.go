package flows

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/store"
)

// LoginRate is the per-IP login budget.
type LoginRate interface {
	CheckLogin(ctx context.Context, ip string) error
	IncrementLogin(ctx context.Context, ip string) error
	ResetLogin(ctx context.Context, ip string) error
}

// Lockout is the persistent per-account failure counter.
type Lockout interface {
	IsLocked(user *store.User, now time.Time) bool
	RecordFailure(ctx context.Context, userID string, now time.Time) (bool, error)
	Reset(ctx context.Context, userID string) error
}

// LoginDeps captures password login dependencies.
type LoginDeps struct {
	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string
	Logger              *slog.Logger

	FindByEmail    func(context.Context, string) (*store.User, error)
	UpdatePassword func(ctx context.Context, userID, hash string) error

	VerifyPassword func(password, hash string) (bool, error)
	NeedsUpgrade   func(hash string) (bool, error)
	HashPassword   func(string) (string, error)
	UpgradeOnLogin bool

	Rate    LoginRate
	Lockout Lockout
	Tokens  TokenDeps
	Errors  Errors
}

// LoginResult carries the authenticated user and its new session.
type LoginResult struct {
	User   *store.User
	Tokens TokenPair
}

// RunLogin authenticates email/password. Checks run in a fixed order:
// existence, lock, active, password. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, deps.Errors.InvalidCredentials
	}

	ip := deps.ClientIPFromContext(ctx)
	if err := deps.Rate.CheckLogin(ctx, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return nil, deps.Errors.RateLimited
		}
		return nil, err
	}

	user, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			countIPFailure(ctx, ip, deps)
			return nil, deps.Errors.InvalidCredentials
		}
		return nil, err
	}

	now := deps.Now()
	if deps.Lockout.IsLocked(user, now) {
		return &LoginResult{User: user}, deps.Errors.AccountLocked
	}
	if !user.IsActive {
		return &LoginResult{User: user}, deps.Errors.AccountDisabled
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		countIPFailure(ctx, ip, deps)
		locked, lerr := deps.Lockout.RecordFailure(ctx, user.ID, now)
		if lerr != nil {
			return &LoginResult{User: user}, lerr
		}
		if locked {
			return &LoginResult{User: user}, deps.Errors.AccountLocked
		}
		return &LoginResult{User: user}, deps.Errors.InvalidCredentials
	}

	if err := deps.Lockout.Reset(ctx, user.ID); err != nil {
		return &LoginResult{User: user}, err
	}
	if err := deps.Rate.ResetLogin(ctx, ip); err != nil {
		deps.Logger.WarnContext(ctx, "login rate counter reset failed", "error", err)
	}
	user.LoginAttempts = 0
	user.LockUntil = nil

	if deps.UpgradeOnLogin {
		upgradePassword(ctx, user, password, deps)
	}

	pair, err := RunIssueTokenPair(ctx, user, deps.Tokens)
	if err != nil {
		return &LoginResult{User: user}, err
	}
	return &LoginResult{User: user, Tokens: pair}, nil
}

func countIPFailure(ctx context.Context, ip string, deps LoginDeps) {
	if err := deps.Rate.IncrementLogin(ctx, ip); err != nil {
		deps.Logger.WarnContext(ctx, "login rate counter increment failed", "error", err)
	}
}

// upgradePassword rehashes with the current cost when the stored hash is
// weaker. Failures keep the old hash.
func upgradePassword(ctx context.Context, user *store.User, password string, deps LoginDeps) {
	need, err := deps.NeedsUpgrade(user.PasswordHash)
	if err != nil || !need {
		return
	}
	hash, err := deps.HashPassword(password)
	if err != nil {
		deps.Logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := deps.UpdatePassword(ctx, user.ID, hash); err != nil {
		deps.Logger.WarnContext(ctx, "password upgrade not stored", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}
