package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks successful GET responses as cacheable for maxAge
// seconds. Responses vary on the caller identity headers because
// suggestions and history differ per user.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("private, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", value)
				w.Header().Add("Vary", UserIDHeader)
			} else {
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
