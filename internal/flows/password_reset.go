package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authcore/store"
)

// RunRequestPasswordReset sends a reset link to an existing active account.
// Unknown and inactive addresses return nil as well so the response does
// not reveal which emails are registered.
func RunRequestPasswordReset(ctx context.Context, email string, deps OneTimeDeps) (*store.User, error) {
	user, err := lookupForRequest(ctx, email, deps)
	if err != nil || user == nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	if err := RunIssueOneTimeToken(ctx, user, deps); err != nil {
		return nil, err
	}
	return user, nil
}

// RunResetPassword consumes token, stores the new hash and clears every
// refresh token in one update. Tokens of disabled accounts do not match.
func RunResetPassword(ctx context.Context, token, newPassword string, deps OneTimeDeps) (*store.User, error) {
	if token == "" {
		return nil, deps.Errors.MissingToken
	}
	if err := deps.CheckPolicy(newPassword); err != nil {
		return nil, fmt.Errorf("%w: %w", deps.Errors.WeakPassword, err)
	}
	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return consume(ctx, token, store.ConsumeEffect{
		PasswordHash:       hash,
		ClearRefreshTokens: true,
		RequireActive:      true,
	}, deps)
}
