package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/store"
)

// TokenPair is returned by every operation that signs a user in. ExpiresIn
// is the access token lifetime in milliseconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RefreshTokenStore interface {
	PushRefreshToken(ctx context.Context, userID string, record store.RefreshToken, keep int, now time.Time) error
	TakeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*store.User, error)
}

// TokenDeps captures token issuance and rotation dependencies.
type TokenDeps struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	MaxTokens  int

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string
	DeviceFromContext   func(context.Context) string

	IssueAccessToken func(*store.User) (string, error)
	NewRefreshToken  func() (string, error)
	HashToken        func(string) string

	Store  RefreshTokenStore
	Errors Errors
}

// RefreshResult is the outcome of a successful rotation.
type RefreshResult struct {
	User   *store.User
	Tokens TokenPair
}

// RunIssueTokenPair signs an access token and records a new refresh token.
// The pair is returned only after the store update succeeded.
func RunIssueTokenPair(ctx context.Context, user *store.User, deps TokenDeps) (TokenPair, error) {
	access, err := deps.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	raw, err := deps.NewRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := deps.Now()
	record := store.RefreshToken{
		TokenHash: deps.HashToken(raw),
		ExpiresAt: now.Add(deps.RefreshTTL),
		Device:    deps.DeviceFromContext(ctx),
		IP:        deps.ClientIPFromContext(ctx),
		CreatedAt: now,
	}
	if err := deps.Store.PushRefreshToken(ctx, user.ID, record, deps.MaxTokens, now); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	user.LastLogin = &now

	return TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    deps.AccessTTL.Milliseconds(),
	}, nil
}

// RunRefresh consumes refreshToken and issues a new pair. A token that was
// never issued, already used or expired fails the same way.
func RunRefresh(ctx context.Context, refreshToken string, deps TokenDeps) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, deps.Errors.MissingToken
	}

	user, err := deps.Store.TakeRefreshToken(ctx, deps.HashToken(refreshToken), deps.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, deps.Errors.InvalidToken
		}
		return nil, err
	}

	if !user.IsActive {
		return &RefreshResult{User: user}, deps.Errors.AccountDisabled
	}

	pair, err := RunIssueTokenPair(ctx, user, deps)
	if err != nil {
		return &RefreshResult{User: user}, err
	}
	return &RefreshResult{User: user, Tokens: pair}, nil
}
