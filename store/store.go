// Package store defines the credential store consumed by the auth engine: the
// User document, its bounded refresh-token list, and the atomic mutations the
// engine relies on instead of read-modify-write round trips.
//
// # Atomicity contract
//
// Every mutating method must be a single server-side operation on one user
// document. In particular TakeRefreshToken must let exactly one of several
// concurrent callers presenting the same hash succeed, and IncrementLoginAttempts
// must never lose an increment.
//
// # What this package must NOT do
//
//   - Hold raw tokens or raw passwords. Only hashes cross this boundary.
//   - Import authcore (no import cycles).
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user (or no matching token) satisfies the query.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateEmail is returned by Create when the email is already taken.
	ErrDuplicateEmail = errors.New("store: duplicate email")
	// ErrUnavailable wraps connectivity and timeout failures of the backing store.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// MaxRefreshTokens bounds the per-user refresh-token list. Older records are
// dropped first once the window is full.
const MaxRefreshTokens = 5

// Role names understood by the CMS.
const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Purpose selects which one-time token field set a call operates on. A user has
// at most one active one-time token per purpose; issuing a new one silently
// replaces the previous hash.
type Purpose int

const (
	PurposeEmailVerification Purpose = iota + 1
	PurposePasswordReset
)

func (p Purpose) String() string {
	switch p {
	case PurposeEmailVerification:
		return "email_verification"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

// RefreshToken is one persisted refresh-token record. TokenHash is the hex
// SHA-256 of the raw token.
type RefreshToken struct {
	TokenHash string    `json:"tokenHash"`
	ExpiresAt time.Time `json:"expiresAt"`
	Device    string    `json:"device,omitempty"`
	IP        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the credential document.
type User struct {
	ID              string
	Email           string
	Name            string
	Avatar          string
	PasswordHash    string
	Role            string
	IsActive        bool
	IsEmailVerified bool

	LoginAttempts int
	LockUntil     *time.Time

	RefreshTokens []RefreshToken

	EmailVerificationTokenHash string
	EmailVerificationExpiresAt *time.Time
	PasswordResetTokenHash     string
	PasswordResetExpiresAt     *time.Time

	GoogleID string
	GitHubID string

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether the lockout window is still open at now.
func (u *User) IsLocked(now time.Time) bool {
	return u != nil && u.LockUntil != nil && u.LockUntil.After(now)
}

// Clone returns a deep copy so callers never share slices or pointers with
// the store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.RefreshTokens != nil {
		c.RefreshTokens = append([]RefreshToken(nil), u.RefreshTokens...)
	}
	c.LockUntil = cloneTime(u.LockUntil)
	c.EmailVerificationExpiresAt = cloneTime(u.EmailVerificationExpiresAt)
	c.PasswordResetExpiresAt = cloneTime(u.PasswordResetExpiresAt)
	c.LastLogin = cloneTime(u.LastLogin)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// LockState is the counter state after an atomic increment.
type LockState struct {
	Attempts  int
	LockUntil *time.Time
}

// LockPolicy tells the store when an increment turns into a lock.
type LockPolicy struct {
	Threshold int
	Duration  time.Duration
}

// ConsumeEffect is applied in the same update that clears a one-time token.
// RequireActive makes the token match only while the account is active.
type ConsumeEffect struct {
	MarkEmailVerified  bool
	PasswordHash       string
	ClearRefreshTokens bool
	RequireActive      bool
}

// FederatedLink describes what a successful federated sign-in writes to an
// existing user.
type FederatedLink struct {
	Provider string
	Subject  string
	Avatar   string
}

// UserStore is the document store seen by the engine.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// PushRefreshToken appends record, keeps only the newest keep entries and
	// stamps LastLogin, as one atomic update.
	PushRefreshToken(ctx context.Context, userID string, record RefreshToken, keep int, now time.Time) error
	// TakeRefreshToken atomically removes the unexpired record whose hash
	// matches and returns the owning user as it is after the removal.
	TakeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	// PullRefreshToken removes the matching record if present. It reports
	// whether a record was removed.
	PullRefreshToken(ctx context.Context, tokenHash string) (bool, error)
	ClearRefreshTokens(ctx context.Context, userID string) error

	IncrementLoginAttempts(ctx context.Context, userID string, policy LockPolicy, now time.Time) (LockState, error)
	ResetLoginAttempts(ctx context.Context, userID string) error

	// SetOneTimeToken overwrites the purpose's hash and expiry.
	SetOneTimeToken(ctx context.Context, userID string, purpose Purpose, tokenHash string, expiresAt time.Time) error
	// ConsumeOneTimeToken matches the unexpired hash, clears the purpose's
	// fields and applies effect in one update.
	ConsumeOneTimeToken(ctx context.Context, purpose Purpose, tokenHash string, effect ConsumeEffect, now time.Time) (*User, error)

	UpdatePassword(ctx context.Context, userID, passwordHash string, clearRefreshTokens bool) error
	LinkFederated(ctx context.Context, userID string, link FederatedLink, now time.Time) (*User, error)
	SetActive(ctx context.Context, userID string, active bool) (*User, error)
}
