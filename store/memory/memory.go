// Package memory is an in-process [store.UserStore]. A single mutex makes every
// method behave like one atomic statement, matching the Postgres store's
// semantics closely enough for tests and the demo server.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/store"
)

// Store keeps users in maps keyed by id and by lower-cased email.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*store.User
	byEmail map[string]string
	now     func() time.Time
}

var _ store.UserStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*store.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *Store) Create(ctx context.Context, user *store.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.byEmail[email]; ok {
		return store.ErrDuplicateEmail
	}
	u := user.Clone()
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) PushRefreshToken(ctx context.Context, userID string, record store.RefreshToken, keep int, now time.Time) error {
	return s.update(ctx, userID, func(u *store.User) {
		u.RefreshTokens = append(u.RefreshTokens, record)
		if keep > 0 && len(u.RefreshTokens) > keep {
			u.RefreshTokens = append([]store.RefreshToken(nil), u.RefreshTokens[len(u.RefreshTokens)-keep:]...)
		}
		at := now
		u.LastLogin = &at
	})
}

func (s *Store) TakeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		for i, rt := range u.RefreshTokens {
			if rt.TokenHash != tokenHash {
				continue
			}
			if !rt.ExpiresAt.After(now) {
				return nil, store.ErrNotFound
			}
			u.RefreshTokens = append(u.RefreshTokens[:i:i], u.RefreshTokens[i+1:]...)
			u.UpdatedAt = s.now()
			return u.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) PullRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		for i, rt := range u.RefreshTokens {
			if rt.TokenHash == tokenHash {
				u.RefreshTokens = append(u.RefreshTokens[:i:i], u.RefreshTokens[i+1:]...)
				u.UpdatedAt = s.now()
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) ClearRefreshTokens(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func(u *store.User) {
		u.RefreshTokens = nil
	})
}

func (s *Store) IncrementLoginAttempts(ctx context.Context, userID string, policy store.LockPolicy, now time.Time) (store.LockState, error) {
	var state store.LockState
	err := s.update(ctx, userID, func(u *store.User) {
		if u.LockUntil != nil && !u.LockUntil.After(now) {
			u.LoginAttempts = 0
			u.LockUntil = nil
		}
		u.LoginAttempts++
		if policy.Threshold > 0 && u.LoginAttempts >= policy.Threshold && u.LockUntil == nil {
			until := now.Add(policy.Duration)
			u.LockUntil = &until
		}
		state = store.LockState{Attempts: u.LoginAttempts, LockUntil: u.LockUntil}
		if state.LockUntil != nil {
			v := *state.LockUntil
			state.LockUntil = &v
		}
	})
	return state, err
}

func (s *Store) ResetLoginAttempts(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func(u *store.User) {
		u.LoginAttempts = 0
		u.LockUntil = nil
	})
}

func (s *Store) SetOneTimeToken(ctx context.Context, userID string, purpose store.Purpose, tokenHash string, expiresAt time.Time) error {
	return s.update(ctx, userID, func(u *store.User) {
		at := expiresAt
		switch purpose {
		case store.PurposeEmailVerification:
			u.EmailVerificationTokenHash = tokenHash
			u.EmailVerificationExpiresAt = &at
		case store.PurposePasswordReset:
			u.PasswordResetTokenHash = tokenHash
			u.PasswordResetExpiresAt = &at
		}
	})
}

func (s *Store) ConsumeOneTimeToken(ctx context.Context, purpose store.Purpose, tokenHash string, effect store.ConsumeEffect, now time.Time) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tokenHash == "" {
		return nil, store.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		hash, exp := oneTimeFields(u, purpose)
		if hash != tokenHash || exp == nil || !exp.After(now) {
			continue
		}
		if effect.RequireActive && !u.IsActive {
			continue
		}
		switch purpose {
		case store.PurposeEmailVerification:
			u.EmailVerificationTokenHash = ""
			u.EmailVerificationExpiresAt = nil
		case store.PurposePasswordReset:
			u.PasswordResetTokenHash = ""
			u.PasswordResetExpiresAt = nil
		}
		if effect.MarkEmailVerified {
			u.IsEmailVerified = true
		}
		if effect.PasswordHash != "" {
			u.PasswordHash = effect.PasswordHash
		}
		if effect.ClearRefreshTokens {
			u.RefreshTokens = nil
		}
		u.UpdatedAt = s.now()
		return u.Clone(), nil
	}
	return nil, store.ErrNotFound
}

func oneTimeFields(u *store.User, purpose store.Purpose) (string, *time.Time) {
	switch purpose {
	case store.PurposeEmailVerification:
		return u.EmailVerificationTokenHash, u.EmailVerificationExpiresAt
	case store.PurposePasswordReset:
		return u.PasswordResetTokenHash, u.PasswordResetExpiresAt
	default:
		return "", nil
	}
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string, clearRefreshTokens bool) error {
	return s.update(ctx, userID, func(u *store.User) {
		u.PasswordHash = passwordHash
		if clearRefreshTokens {
			u.RefreshTokens = nil
		}
	})
}

func (s *Store) LinkFederated(ctx context.Context, userID string, link store.FederatedLink, now time.Time) (*store.User, error) {
	var out *store.User
	err := s.update(ctx, userID, func(u *store.User) {
		u.IsEmailVerified = true
		if u.Avatar == "" {
			u.Avatar = link.Avatar
		}
		switch link.Provider {
		case "google":
			u.GoogleID = link.Subject
		case "github":
			u.GitHubID = link.Subject
		}
		u.LoginAttempts = 0
		u.LockUntil = nil
		u.UpdatedAt = now
		out = u.Clone()
	})
	return out, err
}

func (s *Store) SetActive(ctx context.Context, userID string, active bool) (*store.User, error) {
	var out *store.User
	err := s.update(ctx, userID, func(u *store.User) {
		u.IsActive = active
		if !active {
			u.RefreshTokens = nil
		}
		out = u.Clone()
	})
	return out, err
}

func (s *Store) update(ctx context.Context, userID string, fn func(u *store.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = s.now()
	return nil
}
