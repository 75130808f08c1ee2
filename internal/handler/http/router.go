package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Saugat913/femite-sub000/internal/service"
	"github.com/Saugat913/femite-sub000/pkg/health"
	"github.com/Saugat913/femite-sub000/pkg/middleware"
)

// RouterConfig carries the transport knobs of the search API.
type RouterConfig struct {
	Environment    string
	AllowedOrigins []string
	// SuggestLimiter throttles the suggestion routes when set.
	SuggestLimiter *middleware.RateLimiter
	// SuggestCacheSeconds is the max-age of suggestion responses; 0 disables it.
	SuggestCacheSeconds int
	PprofEnabled        bool
	PprofAllowedCIDRs   []string
	// Reindexer enables POST /api/v1/search/reindex for AdminAllowedCIDRs.
	Reindexer         Reindexer
	AdminAllowedCIDRs []string
}

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	searchService *service.SearchService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Environment, cfg.AllowedOrigins)))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("search"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("search"))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", searchHandler.Search)

		r.Route("/suggestions", func(r chi.Router) {
			if cfg.SuggestLimiter != nil {
				r.Use(cfg.SuggestLimiter.Handler)
			}
			if cfg.SuggestCacheSeconds > 0 {
				r.Use(middleware.CacheControl(cfg.SuggestCacheSeconds))
			}
			r.Get("/", searchHandler.Suggestions)
			r.Post("/", searchHandler.RecordSelection)
		})

		if cfg.Reindexer != nil {
			reindexHandler := NewReindexHandler(cfg.Reindexer, logger)
			r.With(middleware.IPAllowlist(cfg.AdminAllowedCIDRs, logger)).Post("/reindex", reindexHandler.Reindex)
		}
	})

	return r
}
