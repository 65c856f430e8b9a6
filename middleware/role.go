package middleware

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

// RequireRole admits requests whose claims carry one of roles and reports
// [authcore.ErrForbidden] otherwise. Requests that did not pass through Guard
// are treated as unauthenticated.
func RequireRole(onError ErrorWriter, roles ...string) func(http.Handler) http.Handler {
	if onError == nil {
		onError = plainForbidden
	}
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				onError(w, r, authcore.ErrMissingToken)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				onError(w, r, authcore.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func plainForbidden(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, authcore.ErrForbidden) {
		http.Error(w, string(authcore.KindForbidden), http.StatusForbidden)
		return
	}
	plainError(w, r, err)
}
