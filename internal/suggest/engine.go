// Package suggest blends product, category and query-history candidates into
// a ranked autocomplete list. It never fails: a source that errors is logged
// and left out.
package suggest

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/store"
	"github.com/Saugat913/femite-sub000/internal/textrank"
	"github.com/Saugat913/femite-sub000/pkg/logger"
)

const (
	DefaultLimit         = 8
	MaxLimit             = 50
	MinQueryLength       = 2
	TrendingLimit        = 5
	RelatedCategoryLimit = 5
)

// Source shares of the requested limit, rounded up.
const (
	productShare  = 0.6
	categoryShare = 0.2
	historyShare  = 0.2
)

// Source names used in logs and the failure counter.
const (
	sourceProducts   = "products"
	sourceCategories = "categories"
	sourceHistory    = "history"
	sourceRelated    = "related_categories"
	sourceTrending   = "trending"
)

var sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "search_suggestion_source_failures_total",
	Help: "Suggestion sources that failed and were left out of a response.",
}, []string{"source"})

// History is the query aggregate as seen by autocomplete.
type History interface {
	History(ctx context.Context, term string, limit int) ([]domain.PopularQuery, error)
	Trending(ctx context.Context, limit int) ([]domain.PopularQuery, error)
}

// Engine answers autocomplete requests.
type Engine struct {
	catalog store.SuggestionStore
	history History
}

// NewEngine creates an engine over the catalogue and query history.
func NewEngine(catalog store.SuggestionStore, history History) *Engine {
	return &Engine{catalog: catalog, history: history}
}

// Suggest returns up to req.Limit candidates. Short queries get trending
// queries instead.
func (e *Engine) Suggest(ctx context.Context, req domain.SuggestionRequest) domain.SuggestionResponse {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	term := textrank.NormalizeQuery(req.Query)

	resp := domain.SuggestionResponse{
		Suggestions: []domain.Suggestion{},
		Categories:  []domain.RelatedCategory{},
	}

	if utf8.RuneCountInString(term) < MinQueryLength {
		resp.Trending = e.trending(ctx)
		return resp
	}

	var (
		wg                          sync.WaitGroup
		products, categories, known []domain.Suggestion
	)
	scope := req.Scope
	share := func(t domain.SuggestionType, fraction float64) int {
		if !scope.Includes(t) {
			return 0
		}
		if scope == domain.ScopeAll || scope == "" {
			return int(math.Ceil(fraction * float64(limit)))
		}
		return limit
	}

	if n := share(domain.SuggestProduct, productShare); n > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products = e.collect(ctx, sourceProducts, term, func() ([]domain.Suggestion, error) {
				return e.catalog.ProductSuggestions(ctx, term, n)
			})
		}()
	}
	if n := share(domain.SuggestCategory, categoryShare); n > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			categories = e.collect(ctx, sourceCategories, term, func() ([]domain.Suggestion, error) {
				return e.catalog.CategorySuggestions(ctx, term, n)
			})
		}()
	}
	if n := share(domain.SuggestHistory, historyShare); n > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			known = e.collect(ctx, sourceHistory, term, func() ([]domain.Suggestion, error) {
				rows, err := e.history.History(ctx, term, n)
				if err != nil {
					return nil, err
				}
				return fromPopular(rows), nil
			})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		related, err := e.catalog.RelatedCategories(ctx, term, RelatedCategoryLimit)
		if err != nil {
			e.sourceFailed(ctx, sourceRelated, term, err)
			return
		}
		if len(related) > RelatedCategoryLimit {
			related = related[:RelatedCategoryLimit]
		}
		resp.Categories = related
	}()
	wg.Wait()

	all := make([]domain.Suggestion, 0, len(products)+len(categories)+len(known))
	all = append(all, products...)
	all = append(all, categories...)
	all = append(all, known...)
	resp.Suggestions = Merge(all, term, limit)
	return resp
}

func (e *Engine) collect(ctx context.Context, source, term string, fn func() ([]domain.Suggestion, error)) []domain.Suggestion {
	out, err := fn()
	if err != nil {
		e.sourceFailed(ctx, source, term, err)
		return nil
	}
	return out
}

func (e *Engine) sourceFailed(ctx context.Context, source, term string, err error) {
	sourceFailures.WithLabelValues(source).Inc()
	logger.FromContext(ctx).WarnContext(ctx, "suggestion source failed",
		slog.String("source", source),
		slog.String("query", term),
		slog.String("error", err.Error()),
	)
}

func (e *Engine) trending(ctx context.Context) []domain.Suggestion {
	rows, err := e.history.Trending(ctx, TrendingLimit)
	if err != nil {
		e.sourceFailed(ctx, sourceTrending, "", err)
		return []domain.Suggestion{}
	}
	return fromPopular(rows)
}

func fromPopular(rows []domain.PopularQuery) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Suggestion{
			Text:       r.Query,
			Type:       domain.SuggestHistory,
			Popularity: r.SearchCount,
			IsTrending: r.IsTrending,
		})
	}
	return out
}

// Merge drops duplicates of the same type and case-folded text, then orders
// candidates starting with term first and by popularity after that. The sort
// is stable, so equal candidates keep source order. The result holds at most
// limit entries.
func Merge(candidates []domain.Suggestion, term string, limit int) []domain.Suggestion {
	type key struct {
		t    domain.SuggestionType
		text string
	}
	seen := make(map[key]struct{}, len(candidates))
	out := make([]domain.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		k := key{c.Type, strings.ToLower(c.Text)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}

	prefix := strings.ToLower(term)
	sort.SliceStable(out, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(out[i].Text), prefix)
		pj := strings.HasPrefix(strings.ToLower(out[j].Text), prefix)
		if pi != pj {
			return pi
		}
		return out[i].Popularity > out[j].Popularity
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
