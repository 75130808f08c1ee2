package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/Saugat913/femite-sub000/internal/backfill"
	"github.com/Saugat913/femite-sub000/internal/config"
	"github.com/Saugat913/femite-sub000/internal/event"
	handler "github.com/Saugat913/femite-sub000/internal/handler/http"
	"github.com/Saugat913/femite-sub000/internal/search"
	"github.com/Saugat913/femite-sub000/internal/service"
	"github.com/Saugat913/femite-sub000/internal/store"
	esstore "github.com/Saugat913/femite-sub000/internal/store/elasticsearch"
	memstore "github.com/Saugat913/femite-sub000/internal/store/memory"
	pgstore "github.com/Saugat913/femite-sub000/internal/store/postgres"
	"github.com/Saugat913/femite-sub000/internal/suggest"
	"github.com/Saugat913/femite-sub000/internal/telemetry"
	telemem "github.com/Saugat913/femite-sub000/internal/telemetry/memory"
	telepg "github.com/Saugat913/femite-sub000/internal/telemetry/postgres"
	teleredis "github.com/Saugat913/femite-sub000/internal/telemetry/redis"
	"github.com/Saugat913/femite-sub000/migrations"
	"github.com/Saugat913/femite-sub000/pkg/breaker"
	"github.com/Saugat913/femite-sub000/pkg/database"
	"github.com/Saugat913/femite-sub000/pkg/health"
	"github.com/Saugat913/femite-sub000/pkg/httpclient"
	pkgkafka "github.com/Saugat913/femite-sub000/pkg/kafka"
	"github.com/Saugat913/femite-sub000/pkg/middleware"
	"github.com/Saugat913/femite-sub000/pkg/tracing"
)

const serviceName = "search"

// App wires together all dependencies and runs the search service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	recorder       *telemetry.Recorder
	backfill       *backfill.Runner
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	if cfg.UsesPostgres() {
		if err := a.openPostgres(ctx, healthHandler); err != nil {
			return nil, err
		}
	}
	if cfg.TelemetryStore == config.StoreRedis {
		if err := a.openRedis(ctx, healthHandler); err != nil {
			return nil, err
		}
	}

	catalog, err := a.openCatalog(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	history := a.openTelemetry()

	a.recorder = telemetry.NewRecorder(
		history,
		breaker.New(breaker.DefaultConfig("telemetry"), logger),
		telemetry.Config{
			Timeout:           cfg.TelemetryTimeout(),
			TrendingThreshold: cfg.TrendingThreshold,
			Topic:             cfg.SearchEventsTopic,
			Source:            serviceName,
		},
		logger,
	)

	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.recorder.WithPublisher(a.producer)
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return a.producer.Ping(ctx)
		})

		indexer := event.NewConsumer(catalog, logger)
		dlq := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topics:   event.Topics(),
			MinBytes: 1,
			MaxBytes: 10e6,
		}, indexer.Handle, logger).WithDeadLetter(dlq)
		a.consumers = append(a.consumers, c)
		logger.Info("kafka initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", event.Topics()),
		)
	}

	// Build the dependency graph.
	searchService := service.NewSearchService(
		search.NewEngine(catalog),
		suggest.NewEngine(catalog, history),
		a.recorder,
		logger,
	)

	routerCfg := handler.RouterConfig{
		Environment:         cfg.Environment,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		SuggestCacheSeconds: cfg.SuggestCacheSeconds,
		PprofEnabled:        cfg.PprofEnabled,
		PprofAllowedCIDRs:   cfg.PprofAllowedCIDRs,
		AdminAllowedCIDRs:   cfg.AdminAllowedCIDRs,
	}
	if cfg.ProductServiceURL != "" {
		client := httpclient.New(httpclient.DefaultConfig()).
			WithBreaker(breaker.New(breaker.DefaultConfig("product-service"), logger))
		a.backfill = backfill.NewRunner(backfill.NewHTTPSource(client, cfg.ProductServiceURL), catalog, cfg.ReindexPageSize, logger)
		routerCfg.Reindexer = a.backfill
	}

	a.limiter = middleware.NewRateLimiter(cfg.SuggestRateLimitRPS, cfg.SuggestRateLimitBurst, logger)
	routerCfg.SuggestLimiter = a.limiter
	router := handler.NewRouter(searchService, healthHandler, routerCfg, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

func (a *App) openPostgres(ctx context.Context, h *health.Handler) error {
	cfg := a.cfg
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	h.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return nil
}

func (a *App) openRedis(ctx context.Context, h *health.Handler) error {
	cfg := a.cfg
	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:         cfg.RedisHost,
		Port:         cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))

	h.RegisterCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return nil
}

func (a *App) openCatalog(ctx context.Context, h *health.Handler) (store.Catalog, error) {
	switch a.cfg.SearchStore {
	case config.StoreElasticsearch:
		es, err := esstore.New(esstore.Config{
			Addresses: []string{a.cfg.ElasticsearchURL},
			Index:     a.cfg.ElasticsearchIndex,
		}, breaker.New(breaker.DefaultConfig("elasticsearch"), a.logger), a.logger)
		if err != nil {
			return nil, err
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
		}
		h.RegisterCritical("elasticsearch", es.Ping)
		a.logger.Info("using elasticsearch catalogue", slog.String("index", es.Index()))
		return es, nil
	case config.StoreMemory:
		a.logger.Warn("using in-memory catalogue; products arrive only through events")
		return memstore.New(), nil
	default:
		return pgstore.New(a.pool), nil
	}
}

func (a *App) openTelemetry() telemetry.Store {
	switch a.cfg.TelemetryStore {
	case config.StoreRedis:
		return teleredis.New(a.redis, teleredis.Options{})
	case config.StoreMemory:
		return telemem.New()
	default:
		return telepg.New(a.pool)
	}
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests) and any catalogue backfill
// 2. Telemetry recorder (finish detached writes)
// 3. Tracer (flush pending spans)
// 4. Kafka consumers and producer
// 5. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (10s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.limiter.Stop()
	if a.backfill != nil {
		a.backfill.Close()
	}

	// 2. Pending telemetry writes use a store that is closed below.
	recCtx, recCancel := context.WithTimeout(context.Background(), a.cfg.TelemetryTimeout()+time.Second)
	defer recCancel()
	if err := a.recorder.Close(recCtx); err != nil {
		a.logger.Warn("telemetry drain incomplete", slog.String("error", err.Error()))
	}

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeResources()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases kafka clients and connection pools. Safe on a
// partially built App.
func (a *App) closeResources() []error {
	var errs []error
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	a.consumers = nil
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errs
}
