package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Saugat913/femite-sub000/pkg/config"
)

// Store backends.
const (
	StorePostgres      = "postgres"
	StoreElasticsearch = "elasticsearch"
	StoreRedis         = "redis"
	StoreMemory        = "memory"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Backends: postgres, elasticsearch or memory for the catalogue;
	// postgres, redis or memory for telemetry.
	SearchStore    string `env:"SEARCH_STORE" envDefault:"postgres"`
	TelemetryStore string `env:"TELEMETRY_STORE" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ecommerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ecommerce_secret"`
	PostgresDB   string `env:"SEARCH_DB_NAME" envDefault:"search_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"storefront_products"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaGroupID      string   `env:"KAFKA_GROUP_ID" envDefault:"search-indexer"`
	SearchEventsTopic string   `env:"SEARCH_EVENTS_TOPIC" envDefault:"ecommerce.search.queried"`

	// Telemetry
	TelemetryTimeoutMs int `env:"TELEMETRY_TIMEOUT_MS" envDefault:"2000"`
	TrendingThreshold  int `env:"TRENDING_THRESHOLD" envDefault:"10"`

	// Suggestion routes
	SuggestRateLimitRPS   float64 `env:"SUGGEST_RATE_LIMIT_RPS" envDefault:"20"`
	SuggestRateLimitBurst int     `env:"SUGGEST_RATE_LIMIT_BURST" envDefault:"40"`
	SuggestCacheSeconds   int     `env:"SUGGEST_CACHE_SECONDS" envDefault:"30"`

	// Catalogue backfill; an empty URL disables POST /api/v1/search/reindex.
	ProductServiceURL string   `env:"PRODUCT_SERVICE_URL" envDefault:""`
	ReindexPageSize   int      `env:"REINDEX_PAGE_SIZE" envDefault:"100"`
	AdminAllowedCIDRs []string `env:"ADMIN_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Profiling
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SearchStore {
	case StorePostgres, StoreElasticsearch, StoreMemory:
	default:
		return fmt.Errorf("invalid SEARCH_STORE %q: want postgres, elasticsearch or memory", c.SearchStore)
	}
	switch c.TelemetryStore {
	case StorePostgres, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid TELEMETRY_STORE %q: want postgres, redis or memory", c.TelemetryStore)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE %v: must be within [0, 1]", c.OTELSampleRate)
	}
	if c.TelemetryTimeoutMs <= 0 {
		return fmt.Errorf("invalid TELEMETRY_TIMEOUT_MS %d: must be positive", c.TelemetryTimeoutMs)
	}
	if c.TrendingThreshold < 0 {
		return fmt.Errorf("invalid TRENDING_THRESHOLD %d: must not be negative", c.TrendingThreshold)
	}
	if c.SuggestRateLimitRPS <= 0 || c.SuggestRateLimitBurst < 1 {
		return fmt.Errorf("invalid suggestion rate limit: rps %v burst %d", c.SuggestRateLimitRPS, c.SuggestRateLimitBurst)
	}
	if c.ProductServiceURL != "" && (c.ReindexPageSize < 1 || c.ReindexPageSize > 100) {
		return fmt.Errorf("invalid REINDEX_PAGE_SIZE %d: must be within [1, 100]", c.ReindexPageSize)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	return nil
}

// UsesPostgres reports whether any backend needs the PostgreSQL pool.
func (c *Config) UsesPostgres() bool {
	return c.SearchStore == StorePostgres || c.TelemetryStore == StorePostgres
}

// TelemetryTimeout is the deadline of one detached telemetry write.
func (c *Config) TelemetryTimeout() time.Duration {
	return time.Duration(c.TelemetryTimeoutMs) * time.Millisecond
}
