package elasticsearch

import (
	"context"
	"sort"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
)

type nameBucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
	Newest   struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	} `json:"newest"`
}

var bucketOrder = []any{
	map[string]any{"_count": "desc"},
	map[string]any{"_key": "asc"},
}

// ProductSuggestions returns one candidate per distinct matching product
// name, taken from the newest product carrying it.
func (s *Store) ProductSuggestions(ctx context.Context, term string, limit int) ([]domain.Suggestion, error) {
	body := map[string]any{
		"size":             0,
		"track_total_hits": false,
		"query":            termQuery(term),
		"aggs": map[string]any{
			"names": map[string]any{
				"terms": map[string]any{"field": "name.keyword", "size": limit, "order": bucketOrder},
				"aggs": map[string]any{
					"newest": map[string]any{
						"top_hits": map[string]any{
							"size":    1,
							"sort":    []any{map[string]any{"created_at": "desc"}},
							"_source": []string{"id", "name", "price", "image_url"},
						},
					},
				},
			},
		},
	}

	var res struct {
		Aggregations struct {
			Names struct {
				Buckets []nameBucket `json:"buckets"`
			} `json:"names"`
		} `json:"aggregations"`
	}
	if err := s.search(ctx, "ProductSuggestions", body, &res); err != nil {
		return nil, err
	}

	out := make([]domain.Suggestion, 0, len(res.Aggregations.Names.Buckets))
	for _, b := range res.Aggregations.Names.Buckets {
		sg := domain.Suggestion{Text: b.Key, Type: domain.SuggestProduct, Popularity: b.DocCount}
		if hits := b.Newest.Hits.Hits; len(hits) > 0 {
			doc := hits[0].Source
			price := doc.Price
			sg.ID = doc.ID
			sg.Image = doc.ImageURL
			sg.Price = &price
		}
		out = append(out, sg)
	}
	return out, nil
}

// CategorySuggestions returns categories whose name contains term.
func (s *Store) CategorySuggestions(ctx context.Context, term string, limit int) ([]domain.Suggestion, error) {
	body := map[string]any{
		"size":             0,
		"track_total_hits": false,
		"query": map[string]any{
			"wildcard": map[string]any{
				"categories": map[string]any{"value": containsWildcard(term), "case_insensitive": true},
			},
		},
		"aggs": map[string]any{
			"categories": map[string]any{"terms": map[string]any{"field": "categories", "size": facetSize}},
		},
	}

	var res struct {
		Aggregations struct {
			Categories termsAgg `json:"categories"`
		} `json:"aggregations"`
	}
	if err := s.search(ctx, "CategorySuggestions", body, &res); err != nil {
		return nil, err
	}

	// The query selects products with any matching category; the buckets
	// also carry those products' other categories.
	lower := strings.ToLower(term)
	out := make([]domain.Suggestion, 0)
	for _, b := range res.Aggregations.Categories.Buckets {
		if strings.Contains(strings.ToLower(b.Key), lower) {
			out = append(out, domain.Suggestion{Text: b.Key, Type: domain.SuggestCategory, Popularity: b.DocCount})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Text < out[j].Text
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RelatedCategories counts the categories of products matching term.
func (s *Store) RelatedCategories(ctx context.Context, term string, limit int) ([]domain.RelatedCategory, error) {
	body := map[string]any{
		"size":             0,
		"track_total_hits": false,
		"query":            termQuery(term),
		"aggs": map[string]any{
			"categories": map[string]any{
				"terms": map[string]any{"field": "categories", "size": limit, "order": bucketOrder},
			},
		},
	}

	var res struct {
		Aggregations struct {
			Categories termsAgg `json:"categories"`
		} `json:"aggregations"`
	}
	if err := s.search(ctx, "RelatedCategories", body, &res); err != nil {
		return nil, err
	}

	out := make([]domain.RelatedCategory, 0, len(res.Aggregations.Categories.Buckets))
	for _, b := range res.Aggregations.Categories.Buckets {
		out = append(out, domain.RelatedCategory{Name: b.Key, Count: b.DocCount})
	}
	return out, nil
}
