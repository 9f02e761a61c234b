package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hongminglow/tweeter-be/internal/auth"
	"github.com/hongminglow/tweeter-be/internal/http/respond"
	"github.com/hongminglow/tweeter-be/internal/logging"
)

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(token string) (auth.Claims, error)
}

type claimsKey struct{}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the verified claims in the request context.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := authn.Authenticate(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("bearer auth failed", "err", err)
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	respond.Error(w, http.StatusUnauthorized, auth.MsgAuthError)
}
