package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("search-test"))
	r.Get("/api/v1/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("search-test", "GET", "/api/v1/search", "503"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hemp", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("search-test", "GET", "/api/v1/search", "503"))

	assert.Equal(t, before+1, after)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("search-test")))
}
