package postgres

import (
	"context"
	"fmt"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

// One row per distinct name, represented by its newest product. The window
// count runs before DISTINCT ON, so popularity counts every product
// sharing the name.
const productSuggestionsSQL = `
		SELECT id, name, image_url, price, popularity FROM (
			SELECT DISTINCT ON (p.name)
				p.id, p.name, COALESCE(p.image_url, '') AS image_url, p.price,
				COUNT(*) OVER (PARTITION BY p.name) AS popularity
			FROM products p
			WHERE p.search_vector @@ plainto_tsquery('english', $1) OR p.name ILIKE $2 ESCAPE '\'
			ORDER BY p.name, p.created_at DESC
		) s
		ORDER BY popularity DESC, name ASC
		LIMIT $3`

// ProductSuggestions returns products matching term by rank vector or name.
func (s *Store) ProductSuggestions(ctx context.Context, term string, limit int) (out []domain.Suggestion, err error) {
	ctx, end := database.TraceQuery(ctx, "ProductSuggestions", productSuggestionsSQL)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, productSuggestionsSQL, term, database.ContainsPattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("query product suggestions: %w", err)
	}
	defer rows.Close()

	out = make([]domain.Suggestion, 0, limit)
	for rows.Next() {
		var (
			sg    = domain.Suggestion{Type: domain.SuggestProduct}
			price float64
		)
		if err := rows.Scan(&sg.ID, &sg.Text, &sg.Image, &price, &sg.Popularity); err != nil {
			return nil, fmt.Errorf("scan product suggestion: %w", err)
		}
		sg.Price = &price
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product suggestions: %w", err)
	}
	return out, nil
}

const categorySuggestionsSQL = `
		SELECT c.name, COUNT(pc.product_id) AS product_count
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE c.name ILIKE $1 ESCAPE '\'
		GROUP BY c.name
		HAVING COUNT(pc.product_id) > 0
		ORDER BY product_count DESC, c.name ASC
		LIMIT $2`

// CategorySuggestions returns non-empty categories whose name contains term.
func (s *Store) CategorySuggestions(ctx context.Context, term string, limit int) (out []domain.Suggestion, err error) {
	ctx, end := database.TraceQuery(ctx, "CategorySuggestions", categorySuggestionsSQL)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, categorySuggestionsSQL, database.ContainsPattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("query category suggestions: %w", err)
	}
	defer rows.Close()

	out = make([]domain.Suggestion, 0, limit)
	for rows.Next() {
		sg := domain.Suggestion{Type: domain.SuggestCategory}
		if err := rows.Scan(&sg.Text, &sg.Popularity); err != nil {
			return nil, fmt.Errorf("scan category suggestion: %w", err)
		}
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category suggestions: %w", err)
	}
	return out, nil
}

const relatedCategoriesSQL = `
		SELECT c.name, COUNT(DISTINCT p.id) AS product_count
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		JOIN categories c ON c.id = pc.category_id
		WHERE p.search_vector @@ plainto_tsquery('english', $1) OR p.name ILIKE $2 ESCAPE '\'
		GROUP BY c.name
		ORDER BY product_count DESC, c.name ASC
		LIMIT $3`

// RelatedCategories counts the categories of products matching term.
func (s *Store) RelatedCategories(ctx context.Context, term string, limit int) (out []domain.RelatedCategory, err error) {
	ctx, end := database.TraceQuery(ctx, "RelatedCategories", relatedCategoriesSQL)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, relatedCategoriesSQL, term, database.ContainsPattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("query related categories: %w", err)
	}
	defer rows.Close()

	out = make([]domain.RelatedCategory, 0, limit)
	for rows.Next() {
		var rc domain.RelatedCategory
		if err := rows.Scan(&rc.Name, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan related category: %w", err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related categories: %w", err)
	}
	return out, nil
}
