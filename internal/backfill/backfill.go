// Package backfill rebuilds the search index from the catalogue service. It
// covers products that predate the event stream or whose events were lost.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Saugat913/femite-sub000/internal/store"
	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
)

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = 100

var indexed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "search_backfill_products_total",
	Help: "Products processed by catalogue backfills.",
}, []string{"outcome"})

// Result summarises one backfill run.
type Result struct {
	Pages   int
	Indexed int
	Skipped int
	Elapsed time.Duration
}

// Runner copies every catalogue product into an Indexer. At most one run is
// in flight at a time.
type Runner struct {
	source   Source
	indexer  store.Indexer
	pageSize int
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRunner creates a runner. A non-positive pageSize uses DefaultPageSize.
func NewRunner(source Source, indexer store.Indexer, pageSize int, logger *slog.Logger) *Runner {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		source:   source,
		indexer:  indexer,
		pageSize: pageSize,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches a run in the background and returns immediately. It returns
// a conflict error while another run is in flight.
func (r *Runner) Start() error {
	if err := r.acquire(); err != nil {
		return err
	}
	go func() {
		defer r.release()
		if _, err := r.run(r.ctx); err != nil {
			r.logger.Error("catalogue backfill failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Run performs a run synchronously.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := r.acquire(); err != nil {
		return Result{}, err
	}
	defer r.release()
	return r.run(ctx)
}

// Close cancels a background run and waits for any run to stop. Later
// starts are refused.
func (r *Runner) Close() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return apperrors.Conflict("a reindex is already running")
	}
	if r.ctx.Err() != nil {
		return apperrors.Conflict("reindexing is shut down")
	}
	r.running = true
	r.wg.Add(1)
	return nil
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.wg.Done()
}

func (r *Runner) run(ctx context.Context) (Result, error) {
	started := time.Now()
	var res Result

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("backfill interrupted at page %d: %w", page, err)
		}
		p, err := r.source.FetchPage(ctx, page, r.pageSize)
		if err != nil {
			return res, err
		}
		res.Pages++

		for _, data := range p.Products {
			if data.ID == "" {
				res.Skipped++
				indexed.WithLabelValues("skipped").Inc()
				continue
			}
			if err := r.indexer.Reindex(ctx, data.Product(started.UTC())); err != nil {
				indexed.WithLabelValues("failed").Inc()
				return res, fmt.Errorf("reindex product %s: %w", data.ID, err)
			}
			res.Indexed++
			indexed.WithLabelValues("indexed").Inc()
		}

		if !p.HasNext || len(p.Products) == 0 {
			break
		}
	}

	res.Elapsed = time.Since(started)
	r.logger.Info("catalogue backfill completed",
		slog.Int("pages", res.Pages),
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
