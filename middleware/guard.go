package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

// Authenticator is the slice of *authcore.Engine the guard needs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authcore.AccessClaims, error)
}

// ErrorWriter renders a rejected request. err is an *authcore.Error.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by [Guard].
func ClaimsFromContext(ctx context.Context) (*authcore.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*authcore.AccessClaims)
	return claims, ok
}

// WithClaims stores claims the way Guard does. Useful in handler tests.
func WithClaims(ctx context.Context, claims *authcore.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// Guard rejects requests without a valid, unrevoked bearer token. A nil
// onError falls back to plain-text responses.
func Guard(engine Authenticator, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = plainError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				onError(w, r, authcore.ErrEngineNotReady)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				onError(w, r, authcore.ErrMissingToken)
				return
			}

			claims, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme match is case-insensitive.
func BearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func plainError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusUnauthorized
	var e *authcore.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case authcore.KindServiceUnavailable:
			status = http.StatusServiceUnavailable
		case authcore.KindInternal:
			status = http.StatusInternalServerError
		}
	}
	http.Error(w, string(authcore.KindOf(err)), status)
}
