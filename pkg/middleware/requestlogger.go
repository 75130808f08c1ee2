package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Saugat913/femite-sub000/pkg/logger"
)

const (
	// UserIDHeader is set by the upstream gateway for authenticated callers.
	UserIDHeader = "X-User-ID"
	// SessionHeader is the header fallback for the session cookie.
	SessionHeader = "X-Session-ID"
	// SessionCookie names the storefront session cookie.
	SessionCookie = "session_id"
)

// RequestLogger resolves the caller's user and session ids into the context
// and stores a logger enriched with them (plus correlation and trace ids).
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := r.Header.Get(UserIDHeader); id != "" {
				ctx = logger.WithUserID(ctx, id)
			}
			if id := sessionID(r); id != "" {
				ctx = logger.WithSessionID(ctx, id)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionID(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(SessionHeader)
}
