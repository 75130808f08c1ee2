// Package store declares the storage ports the search core reads from. The
// postgres, elasticsearch and memory subpackages implement them; which one
// backs a process is decided at wiring time.
package store

import (
	"context"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
)

// ProductStore executes compiled plans.
type ProductStore interface {
	// SearchProducts returns the plan's page of matches in plan order. When
	// the plan has free text, each hit carries its relevance score.
	SearchProducts(ctx context.Context, p *plan.Plan) ([]domain.ProductHit, error)

	// CountProducts returns the number of products matching the plan's
	// predicates, ignoring its window.
	CountProducts(ctx context.Context, p *plan.Plan) (int, error)

	// Facets describes the whole catalogue regardless of any filter.
	Facets(ctx context.Context) (domain.Facets, error)
}

// SuggestionStore provides the catalogue-backed autocomplete sources.
type SuggestionStore interface {
	// ProductSuggestions returns products whose rank vector matches term or
	// whose name contains it. Popularity is the number of products sharing
	// the exact name.
	ProductSuggestions(ctx context.Context, term string, limit int) ([]domain.Suggestion, error)

	// CategorySuggestions returns categories whose name contains term and
	// that have at least one product. Popularity is the product count.
	CategorySuggestions(ctx context.Context, term string, limit int) ([]domain.Suggestion, error)

	// RelatedCategories returns categories of products matching term,
	// ordered by product count descending then name.
	RelatedCategories(ctx context.Context, term string, limit int) ([]domain.RelatedCategory, error)
}

// Indexer keeps an adapter's rank data in step with the product write path.
type Indexer interface {
	// Reindex stores or refreshes the rank data for a product.
	Reindex(ctx context.Context, product *domain.Product) error

	// Remove drops a product. Removing an unknown id is not an error.
	Remove(ctx context.Context, id string) error
}

// Catalog is the full capability set an adapter exposes.
type Catalog interface {
	ProductStore
	SuggestionStore
	Indexer
}
