package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/provider"
	"github.com/MrEthical07/authcore/store"
)

type FederatedStore interface {
	Create(ctx context.Context, user *store.User) error
	FindByEmail(ctx context.Context, email string) (*store.User, error)
	LinkFederated(ctx context.Context, userID string, link store.FederatedLink, now time.Time) (*store.User, error)
}

// FederatedDeps captures provider sign-in dependencies.
type FederatedDeps struct {
	Now                  func() time.Time
	NewID                func() (string, error)
	NewSyntheticPassword func(provider string) (string, error)
	HashPassword         func(string) (string, error)
	Notify               func(notify.Notification)

	Store  FederatedStore
	Tokens TokenDeps
	Errors Errors
}

// FederatedResult reports the signed-in user and whether it was created by
// this call.
type FederatedResult struct {
	User    *store.User
	Tokens  TokenPair
	Created bool
}

// RunFederated resolves a verified provider identity to a local account,
// creating one on first sign-in, and issues a token pair.
func RunFederated(ctx context.Context, id provider.Identity, deps FederatedDeps) (*FederatedResult, error) {
	email := NormalizeEmail(id.Email)
	if email == "" {
		return nil, deps.Errors.EmailRequired
	}
	id.Email = email

	user, created, err := resolveFederated(ctx, id, deps)
	if err != nil {
		return &FederatedResult{User: user}, err
	}

	if created && deps.Notify != nil {
		deps.Notify(notify.Notification{Kind: notify.KindWelcome, To: user.Email, Name: user.Name})
	}

	pair, err := RunIssueTokenPair(ctx, user, deps.Tokens)
	if err != nil {
		return &FederatedResult{User: user, Created: created}, err
	}
	return &FederatedResult{User: user, Tokens: pair, Created: created}, nil
}

func resolveFederated(ctx context.Context, id provider.Identity, deps FederatedDeps) (*store.User, bool, error) {
	user, err := deps.Store.FindByEmail(ctx, id.Email)
	switch {
	case err == nil:
		user, err = linkFederated(ctx, user, id, deps)
		return user, false, err
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	}

	user, err = createFederated(ctx, id, deps)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, store.ErrDuplicateEmail) {
		return nil, false, err
	}

	// A concurrent sign-in created the account first.
	existing, err := deps.Store.FindByEmail(ctx, id.Email)
	if err != nil {
		return nil, false, err
	}
	user, err = linkFederated(ctx, existing, id, deps)
	return user, false, err
}

func linkFederated(ctx context.Context, user *store.User, id provider.Identity, deps FederatedDeps) (*store.User, error) {
	if !user.IsActive {
		return user, deps.Errors.AccountDisabled
	}
	if linked := linkedSubject(user, id.Provider); linked != "" && linked != id.Subject {
		return user, deps.Errors.ProviderAuthFailed
	}
	return deps.Store.LinkFederated(ctx, user.ID, store.FederatedLink{
		Provider: id.Provider,
		Subject:  id.Subject,
		Avatar:   id.Picture,
	}, deps.Now())
}

func linkedSubject(user *store.User, p string) string {
	switch p {
	case provider.Google:
		return user.GoogleID
	case provider.GitHub:
		return user.GitHubID
	}
	return ""
}

func createFederated(ctx context.Context, id provider.Identity, deps FederatedDeps) (*store.User, error) {
	secret, err := deps.NewSyntheticPassword(id.Provider)
	if err != nil {
		return nil, fmt.Errorf("generate synthetic password: %w", err)
	}
	hash, err := deps.HashPassword(secret)
	if err != nil {
		return nil, fmt.Errorf("hash synthetic password: %w", err)
	}
	uid, err := deps.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	name := id.Name
	if name == "" {
		name = id.Email
	}
	now := deps.Now()
	user := &store.User{
		ID:              uid,
		Email:           id.Email,
		Name:            name,
		Avatar:          id.Picture,
		PasswordHash:    hash,
		Role:            store.RoleUser,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	switch id.Provider {
	case provider.Google:
		user.GoogleID = id.Subject
	case provider.GitHub:
		user.GitHubID = id.Subject
	}

	if err := deps.Store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
