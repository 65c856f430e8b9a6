package flows

import (
	"context"

	"github.com/MrEthical07/authcore/store"
)

// RunRequestEmailVerification re-sends the verification link. Unknown
// addresses are silent; verified ones report AlreadyVerified.
func RunRequestEmailVerification(ctx context.Context, email string, deps OneTimeDeps) (*store.User, error) {
	user, err := lookupForRequest(ctx, email, deps)
	if err != nil || user == nil {
		return nil, err
	}
	if user.IsEmailVerified {
		return user, deps.Errors.AlreadyVerified
	}
	if !user.IsActive {
		return nil, nil
	}
	if err := RunIssueOneTimeToken(ctx, user, deps); err != nil {
		return nil, err
	}
	return user, nil
}

// RunVerifyEmail consumes token and marks the owner verified.
func RunVerifyEmail(ctx context.Context, token string, deps OneTimeDeps) (*store.User, error) {
	if token == "" {
		return nil, deps.Errors.MissingToken
	}
	return consume(ctx, token, store.ConsumeEffect{MarkEmailVerified: true}, deps)
}
