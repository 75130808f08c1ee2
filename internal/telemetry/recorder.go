package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/textrank"
	"github.com/Saugat913/femite-sub000/pkg/breaker"
	"github.com/Saugat913/femite-sub000/pkg/kafka"
	"github.com/Saugat913/femite-sub000/pkg/logger"
)

// EventSearchQueried is the event type published for each logged search.
const EventSearchQueried = "search.queried"

// Publisher fans recorded searches out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Config holds recorder settings.
type Config struct {
	// Timeout bounds each detached write.
	Timeout           time.Duration
	TrendingThreshold int
	// Topic receives search.queried events when a publisher is set.
	Topic  string
	Source string
}

// Recorder writes telemetry in the background. Its methods return
// immediately and never report failures to the caller: failed writes are
// logged and counted, then dropped.
type Recorder struct {
	log       QueryLog
	agg       Aggregate
	breaker   *breaker.Breaker
	publisher Publisher
	cfg       Config
	logger    *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
	now    func() time.Time
}

// NewRecorder creates a recorder writing to store through b.
func NewRecorder(store Store, b *breaker.Breaker, cfg Config, logger *slog.Logger) *Recorder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Recorder{
		log:     store,
		agg:     store,
		breaker: b,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithPublisher enables search.queried fan-out.
func (r *Recorder) WithPublisher(p Publisher) *Recorder {
	r.publisher = p
	return r
}

// RecordSearch logs an executed search and bumps its aggregate. Queries that
// are blank after normalization are ignored.
func (r *Recorder) RecordSearch(ctx context.Context, query string, filters domain.FilterRequest, who domain.Requester) {
	key := textrank.NormalizeKey(query)
	if key == "" {
		return
	}
	now := r.now()
	// FilterRequest holds only strings, bools and finite floats.
	snapshot, _ := json.Marshal(filters)
	entry := domain.QueryLogEntry{
		ID:        uuid.NewString(),
		Query:     key,
		UserID:    who.UserID,
		IPAddress: who.IPAddress,
		UserAgent: who.UserAgent,
		SessionID: Fingerprint(who, now),
		Filters:   snapshot,
		CreatedAt: now,
	}

	r.detach(ctx, "search", key, func(ctx context.Context, log *slog.Logger) {
		r.write(ctx, log, "append_query", key, func() error {
			return r.log.AppendQuery(ctx, entry)
		})
		r.write(ctx, log, "record_search", key, func() error {
			return r.agg.RecordSearch(ctx, key, now)
		})
		r.publish(ctx, log, entry)
	})
}

// RecordSelection reinforces a query picked from the suggestion list.
func (r *Recorder) RecordSelection(ctx context.Context, query string) {
	key := textrank.NormalizeKey(query)
	if key == "" {
		return
	}
	now := r.now()

	r.detach(ctx, "selection", key, func(ctx context.Context, log *slog.Logger) {
		r.write(ctx, log, "record_selection", key, func() error {
			pq, err := r.agg.RecordSelection(ctx, key, now, r.cfg.TrendingThreshold)
			if err == nil && pq.IsTrending {
				log.DebugContext(ctx, "query trending",
					slog.String("query", key),
					slog.Int("search_count", pq.SearchCount),
				)
			}
			return err
		})
	})
}

// Close stops accepting writes and waits for pending ones until ctx ends.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain telemetry: %w", ctx.Err())
	}
}

// detach runs fn off the request path with a context that survives the
// request but carries its values and a bounded deadline.
func (r *Recorder) detach(ctx context.Context, kind, key string, fn func(context.Context, *slog.Logger)) {
	log := logger.WithContext(ctx, r.logger)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		log.WarnContext(ctx, "telemetry dropped after shutdown",
			slog.String("kind", kind),
			slog.String("query", key),
		)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
		defer cancel()
		fn(ctx, log)
	}()
}

func (r *Recorder) write(ctx context.Context, log *slog.Logger, op, key string, fn func() error) {
	if err := r.breaker.Do(fn); err != nil {
		writeFailures.WithLabelValues(op).Inc()
		log.WarnContext(ctx, "telemetry write failed",
			slog.String("operation", op),
			slog.String("query", key),
			slog.String("error", err.Error()),
		)
		return
	}
	writes.WithLabelValues(op).Inc()
}

func (r *Recorder) publish(ctx context.Context, log *slog.Logger, entry domain.QueryLogEntry) {
	if r.publisher == nil {
		return
	}
	event, err := kafka.NewEvent(EventSearchQueried, entry.ID, "search_query", r.cfg.Source, entry)
	if err != nil {
		log.WarnContext(ctx, "build search event", slog.String("error", err.Error()))
		return
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))
	if err := r.publisher.Publish(ctx, r.cfg.Topic, event); err != nil {
		writeFailures.WithLabelValues("publish").Inc()
		log.WarnContext(ctx, "publish search event failed",
			slog.String("query", entry.Query),
			slog.String("error", err.Error()),
		)
		return
	}
	writes.WithLabelValues("publish").Inc()
}
