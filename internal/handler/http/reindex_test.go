package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
)

type stubReindexer struct {
	calls int
	err   error
}

func (s *stubReindexer) Start() error {
	s.calls++
	return s.err
}

func TestReindex_Accepted(t *testing.T) {
	stub := &stubReindexer{}
	env := newTestEnv(t, RouterConfig{Reindexer: stub, AdminAllowedCIDRs: []string{"192.0.2.0/24"}})

	w, resp := do(t, env.router, httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status":"reindex started"}`, string(resp.Data))
	assert.Equal(t, 1, stub.calls)
}

func TestReindex_AlreadyRunning(t *testing.T) {
	stub := &stubReindexer{err: apperrors.Conflict("a reindex is already running")}
	env := newTestEnv(t, RouterConfig{Reindexer: stub, AdminAllowedCIDRs: []string{"192.0.2.0/24"}})

	w, resp := do(t, env.router, httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	if assert.NotNil(t, resp.Error) {
		assert.Equal(t, "CONFLICT", resp.Error.Code)
	}
}

func TestReindex_OutsideAllowlist(t *testing.T) {
	stub := &stubReindexer{}
	env := newTestEnv(t, RouterConfig{Reindexer: stub, AdminAllowedCIDRs: []string{"10.0.0.0/8"}})

	w, _ := do(t, env.router, httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, stub.calls)
}

func TestReindex_NotMountedWithoutReindexer(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil))
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, w.Code)
}
