package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authMiddleware wraps next with bearer token validation. An empty token
// disables authentication entirely.
func authMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		candidate, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) != 1 {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}
