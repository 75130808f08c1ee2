package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/textrank"
)

// ProductSuggestions returns one candidate per distinct matching product
// name, taken from the newest product carrying it.
func (s *Store) ProductSuggestions(_ context.Context, term string, limit int) ([]domain.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nameCount := make(map[string]int)
	best := make(map[string]*entry)
	for _, e := range s.suggestMatches(term) {
		nameCount[e.product.Name]++
		cur, ok := best[e.product.Name]
		if !ok || e.product.CreatedAt.After(cur.product.CreatedAt) {
			best[e.product.Name] = e
		}
	}

	out := make([]domain.Suggestion, 0, len(best))
	for name, e := range best {
		price := e.product.Price
		out = append(out, domain.Suggestion{
			Text:       name,
			Type:       domain.SuggestProduct,
			Popularity: nameCount[name],
			ID:         e.product.ID,
			Image:      e.product.ImageURL,
			Price:      &price,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Text < out[j].Text
	})
	return truncate(out, limit), nil
}

// CategorySuggestions returns categories whose name contains term.
func (s *Store) CategorySuggestions(_ context.Context, term string, limit int) ([]domain.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(term)
	counts := make(map[string]int)
	for _, e := range s.products {
		for _, c := range e.product.Categories {
			if strings.Contains(strings.ToLower(c), lower) {
				counts[c]++
			}
		}
	}

	out := make([]domain.Suggestion, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.Suggestion{Text: name, Type: domain.SuggestCategory, Popularity: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Text < out[j].Text
	})
	return truncate(out, limit), nil
}

// RelatedCategories counts the categories of products matching term.
func (s *Store) RelatedCategories(_ context.Context, term string, limit int) ([]domain.RelatedCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.suggestMatches(term) {
		for _, c := range e.product.Categories {
			counts[c]++
		}
	}

	out := make([]domain.RelatedCategory, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.RelatedCategory{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// suggestMatches returns products whose vector matches term or whose name
// contains it. Callers hold the read lock.
func (s *Store) suggestMatches(term string) []*entry {
	terms := textrank.Terms(term)
	lower := strings.ToLower(term)
	var out []*entry
	for _, e := range s.products {
		if e.vector.Matches(terms) || strings.Contains(strings.ToLower(e.product.Name), lower) {
			out = append(out, e)
		}
	}
	return out
}

func truncate(s []domain.Suggestion, limit int) []domain.Suggestion {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
