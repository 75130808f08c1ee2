// Package search executes compiled plans against a ProductStore and
// assembles the paginated result with catalogue facets.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
	"github.com/Saugat913/femite-sub000/internal/store"
	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
)

// Engine runs the page, count and facet reads of a search concurrently.
type Engine struct {
	store store.ProductStore
}

// NewEngine creates an engine over the given store.
func NewEngine(s store.ProductStore) *Engine {
	return &Engine{store: s}
}

// Execute returns the plan's page. Any failed read aborts the whole search
// with a StoreUnavailable error; partial results are never returned.
func (e *Engine) Execute(ctx context.Context, p *plan.Plan) (*domain.SearchResult, error) {
	var (
		hits   []domain.ProductHit
		total  int
		facets domain.Facets
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = e.store.SearchProducts(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = e.store.CountProducts(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		facets, err = e.store.Facets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	if hits == nil {
		hits = []domain.ProductHit{}
	}
	if !p.HasText() {
		for i := range hits {
			hits[i].RelevanceScore = 0
		}
	}
	if facets.Categories == nil {
		facets.Categories = []domain.CategoryFacet{}
	}
	if facets.Attributes == nil {
		facets.Attributes = map[string][]domain.AttributeFacet{}
	}

	return &domain.SearchResult{
		Products:       hits,
		Total:          total,
		Page:           p.Window.Page,
		Limit:          p.Window.Limit,
		HasMore:        p.Window.HasMore(total),
		Facets:         facets,
		SearchQuery:    p.Request.Query,
		AppliedFilters: p.Request,
	}, nil
}
