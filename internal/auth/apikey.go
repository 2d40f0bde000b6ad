// Package auth guards the API with static keys, suited to a single-shop
// deployment where clients are provisioned by hand.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// ParseAPIKeys splits a comma-separated key list, trimming whitespace and
// dropping empty entries.
func ParseAPIKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// APIKeyMiddleware validates the X-API-Key header (or the api_key query
// parameter as a fallback for scanner hardware that cannot set headers).
// With no keys configured every request is allowed through.
func APIKeyMiddleware(validKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}

			for _, valid := range validKeys {
				if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}
