package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/internal/limiters"
	"github.com/MrEthical07/authcore/store"
)

type AccountStore interface {
	Create(ctx context.Context, user *store.User) error
	FindByID(ctx context.Context, id string) (*store.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, clearRefreshTokens bool) error
	SetActive(ctx context.Context, userID string, active bool) (*store.User, error)
}

type RegistrationLimiter interface {
	Enforce(ctx context.Context, ip string) error
}

// AccountDeps captures registration and credential management dependencies.
type AccountDeps struct {
	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string
	NewID               func() (string, error)

	CheckPolicy    func(string) error
	HashPassword   func(string) (string, error)
	VerifyPassword func(password, hash string) (bool, error)

	Limiter RegistrationLimiter
	Store   AccountStore
	Errors  Errors
}

// RegisterInput is the validated self-service signup request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// RunRegister creates an active, unverified user with the default role.
func RunRegister(ctx context.Context, in RegisterInput, deps AccountDeps) (*store.User, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if !ValidEmail(email) || name == "" {
		return nil, deps.Errors.Validation
	}
	if err := deps.CheckPolicy(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", deps.Errors.WeakPassword, err)
	}

	if err := deps.Limiter.Enforce(ctx, deps.ClientIPFromContext(ctx)); err != nil {
		if errors.Is(err, limiters.ErrAccountRateLimited) {
			return nil, deps.Errors.RateLimited
		}
		return nil, err
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := deps.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	now := deps.Now()
	user := &store.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         store.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := deps.Store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, deps.Errors.EmailExists
		}
		return nil, err
	}
	return user, nil
}

// RunChangePassword replaces the password of userID and signs out every
// device in the same update.
func RunChangePassword(ctx context.Context, userID, current, next string, deps AccountDeps) error {
	if userID == "" {
		return deps.Errors.InvalidCredentials
	}
	user, err := deps.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return deps.Errors.InvalidCredentials
		}
		return err
	}
	if !user.IsActive {
		return deps.Errors.AccountDisabled
	}

	ok, err := deps.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return deps.Errors.InvalidCredentials
	}
	if err := deps.CheckPolicy(next); err != nil {
		return fmt.Errorf("%w: %w", deps.Errors.WeakPassword, err)
	}

	hash, err := deps.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return deps.Store.UpdatePassword(ctx, userID, hash, true)
}

// RunSetActive toggles the account. Deactivation drops every refresh token;
// access tokens already issued stay valid until they expire.
func RunSetActive(ctx context.Context, userID string, active bool, deps AccountDeps) (*store.User, error) {
	user, err := deps.Store.SetActive(ctx, userID, active)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, deps.Errors.Validation
		}
		return nil, err
	}
	return user, nil
}
