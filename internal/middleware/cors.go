package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// OriginPolicy decides which browser origins may call the API.
type OriginPolicy struct {
	allowAll bool
	origins  []string
}

// NewOriginPolicy builds a policy from a list of origins; "*" allows any origin.
func NewOriginPolicy(allowed []string) OriginPolicy {
	p := OriginPolicy{}
	for _, origin := range allowed {
		if origin == "*" {
			return OriginPolicy{allowAll: true}
		}
		p.origins = append(p.origins, strings.ToLower(origin))
	}
	return p
}

// Allows reports whether origin is permitted. An empty origin (non-browser client) is allowed.
func (p OriginPolicy) Allows(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	return slices.Contains(p.origins, strings.ToLower(origin))
}

// CheckOrigin adapts the policy for websocket upgrades.
func (p OriginPolicy) CheckOrigin(r *http.Request) bool {
	return p.Allows(r.Header.Get("Origin"))
}

// CORS adds Access-Control headers for allowed origins and short-circuits preflight requests.
func CORS(policy OriginPolicy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && policy.Allows(origin) {
			if policy.allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
