// Package postgres implements the catalogue ports on PostgreSQL. Ranking
// uses the products.search_vector tsvector (name weighted A, description B)
// and ts_rank; category and attribute filters are EXISTS subqueries over the
// join tables.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
	"github.com/Saugat913/femite-sub000/internal/store"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

// Store implements store.Catalog using PostgreSQL.
type Store struct {
	db database.DBTX
}

var _ store.Catalog = (*Store)(nil)

// New creates a PostgreSQL-backed catalogue.
func New(db database.DBTX) *Store {
	return &Store{db: db}
}

const searchSQL = `
		SELECT p.id, p.name, p.description, p.price, p.stock, COALESCE(p.image_url, ''),
			COALESCE((
				SELECT string_agg(c.name, ',' ORDER BY c.name)
				FROM product_categories pc
				JOIN categories c ON c.id = pc.category_id
				WHERE pc.product_id = p.id
			), '') AS category_names,
			%s AS score,
			p.created_at
		FROM products p
		%s
		ORDER BY %s
		LIMIT %s OFFSET %s`

// SearchProducts runs the plan's page query.
func (s *Store) SearchProducts(ctx context.Context, p *plan.Plan) (hits []domain.ProductHit, err error) {
	t := translate(p)
	q := &query{args: t.args}
	sql := fmt.Sprintf(searchSQL, t.score, t.where, t.orderBy, q.arg(p.Limit()), q.arg(p.Offset()))

	ctx, end := database.TraceQuery(ctx, "SearchProducts", sql)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	hits = make([]domain.ProductHit, 0, p.Limit())
	for rows.Next() {
		var (
			h          domain.ProductHit
			categories string
		)
		if err := rows.Scan(
			&h.ID,
			&h.Name,
			&h.Description,
			&h.Price,
			&h.Stock,
			&h.ImageURL,
			&categories,
			&h.RelevanceScore,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		h.Category, _, _ = strings.Cut(categories, ",")
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return hits, nil
}

// CountProducts counts all rows matching the plan's predicates.
func (s *Store) CountProducts(ctx context.Context, p *plan.Plan) (n int, err error) {
	t := translate(p)
	sql := "SELECT COUNT(*) FROM products p " + t.where

	ctx, end := database.TraceQuery(ctx, "CountProducts", sql)
	defer func() { end(err) }()

	if err = s.db.QueryRow(ctx, sql, t.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

const (
	categoryFacetsSQL = `
		SELECT c.name, COUNT(DISTINCT pc.product_id)
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		GROUP BY c.name
		ORDER BY c.name`

	attributeFacetsSQL = `
		SELECT attribute_type, attribute_value, COUNT(DISTINCT product_id)
		FROM product_attributes
		GROUP BY attribute_type, attribute_value
		ORDER BY attribute_type, attribute_value`

	priceRangeSQL = `SELECT COALESCE(MIN(price), 0), COALESCE(MAX(price), 0) FROM products`
)

// Facets aggregates the unfiltered catalogue.
func (s *Store) Facets(ctx context.Context) (f domain.Facets, err error) {
	ctx, end := database.TraceQuery(ctx, "Facets", categoryFacetsSQL)
	defer func() { end(err) }()

	f.Categories = make([]domain.CategoryFacet, 0)
	rows, err := s.db.Query(ctx, categoryFacetsSQL)
	if err != nil {
		return domain.Facets{}, fmt.Errorf("query category facets: %w", err)
	}
	for rows.Next() {
		var c domain.CategoryFacet
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			rows.Close()
			return domain.Facets{}, fmt.Errorf("scan category facet: %w", err)
		}
		f.Categories = append(f.Categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Facets{}, fmt.Errorf("iterate category facets: %w", err)
	}

	f.Attributes = make(map[string][]domain.AttributeFacet)
	rows, err = s.db.Query(ctx, attributeFacetsSQL)
	if err != nil {
		return domain.Facets{}, fmt.Errorf("query attribute facets: %w", err)
	}
	for rows.Next() {
		var (
			typ string
			a   domain.AttributeFacet
		)
		if err := rows.Scan(&typ, &a.Value, &a.Count); err != nil {
			rows.Close()
			return domain.Facets{}, fmt.Errorf("scan attribute facet: %w", err)
		}
		f.Attributes[typ] = append(f.Attributes[typ], a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Facets{}, fmt.Errorf("iterate attribute facets: %w", err)
	}

	if err := s.db.QueryRow(ctx, priceRangeSQL).Scan(&f.PriceRange.Min, &f.PriceRange.Max); err != nil {
		return domain.Facets{}, fmt.Errorf("query price range: %w", err)
	}
	return f, nil
}

const reindexSQL = `
		UPDATE products SET search_vector =
			setweight(to_tsvector('english', COALESCE($2, '')), 'A') ||
			setweight(to_tsvector('english', COALESCE($3, '')), 'B')
		WHERE id = $1`

// Reindex recomputes the product's search vector from the given name and
// description. The row itself belongs to the write path; an unknown id
// updates nothing.
func (s *Store) Reindex(ctx context.Context, product *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "Reindex", reindexSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, reindexSQL, product.ID, product.Name, product.Description); err != nil {
		return fmt.Errorf("reindex product: %w", err)
	}
	return nil
}

// Remove is a no-op: deleting the row removes it from every query.
func (s *Store) Remove(context.Context, string) error {
	return nil
}
