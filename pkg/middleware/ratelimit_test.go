package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerClientBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, discardLogger())
	defer rl.Stop()
	h := rl.Handler(okHandler)

	send := func(ip, user string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search/suggestions?q=he", nil)
		req.RemoteAddr = ip + ":5555"
		if user != "" {
			req.Header.Set(UserIDHeader, user)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1", ""))
	assert.Equal(t, http.StatusOK, send("10.0.0.1", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1", ""))

	// Different client keys have their own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2", ""))
	assert.Equal(t, http.StatusOK, send("10.0.0.1", "user-7"))
}

func TestVisitorStore_CleanupEvictsIdle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newVisitorStore(10, 10, time.Minute)
	s.now = func() time.Time { return now }

	s.allow("a")
	now = now.Add(30 * time.Second)
	s.allow("b")
	now = now.Add(45 * time.Second)
	s.cleanup()

	assert.Equal(t, 1, s.size())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}
