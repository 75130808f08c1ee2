// Package telemetry records executed free-text searches and suggestion
// selections, and maintains the per-query frequency aggregate that feeds
// the history and trending suggestion sources.
package telemetry

import (
	"context"
	"time"

	"github.com/Saugat913/femite-sub000/internal/domain"
)

// DefaultTrendingThreshold promotes a query once its count exceeds it after
// a selection.
const DefaultTrendingThreshold = 10

// QueryLog is the append-only record of executed searches.
type QueryLog interface {
	AppendQuery(ctx context.Context, entry domain.QueryLogEntry) error
}

// Aggregate is the per-key frequency table. Every write must be a single
// atomic insert-or-increment so that concurrent writers never lose counts.
type Aggregate interface {
	// RecordSearch increments the key's count, inserting it with count 1 if
	// new, and sets last_searched_at.
	RecordSearch(ctx context.Context, key string, at time.Time) error

	// RecordSelection does what RecordSearch does and additionally marks the
	// key trending when the new count exceeds threshold. Trending is never
	// cleared.
	RecordSelection(ctx context.Context, key string, at time.Time, threshold int) (domain.PopularQuery, error)

	// History returns keys containing term or similar to it, ranked by
	// prefix match, trending flag, count and similarity.
	History(ctx context.Context, term string, limit int) ([]domain.PopularQuery, error)

	// Trending returns keys searched more than once, ranked by trending
	// flag, count and recency.
	Trending(ctx context.Context, limit int) ([]domain.PopularQuery, error)
}

// Store is a backend providing both the log and the aggregate.
type Store interface {
	QueryLog
	Aggregate
}
