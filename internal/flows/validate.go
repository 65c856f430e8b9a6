package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/jwt"
)

// ValidateDeps captures access token verification dependencies.
type ValidateDeps struct {
	ParseAccess   func(string) (*jwt.AccessClaims, error)
	IsBlacklisted func(context.Context, string) (bool, error)
	Errors        Errors
}

// RunVerifyAccess checks signature and expiry only.
func RunVerifyAccess(tokenStr string, deps ValidateDeps) (*jwt.AccessClaims, error) {
	if tokenStr == "" {
		return nil, deps.Errors.MissingToken
	}
	claims, err := deps.ParseAccess(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, deps.Errors.TokenExpired
		}
		return nil, deps.Errors.InvalidToken
	}
	return claims, nil
}

// RunAuthenticate verifies tokenStr and rejects it when revoked. A ledger
// outage fails closed.
func RunAuthenticate(ctx context.Context, tokenStr string, deps ValidateDeps) (*jwt.AccessClaims, error) {
	claims, err := RunVerifyAccess(tokenStr, deps)
	if err != nil {
		return nil, err
	}

	revoked, err := deps.IsBlacklisted(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, deps.Errors.InvalidToken
	}
	return claims, nil
}
