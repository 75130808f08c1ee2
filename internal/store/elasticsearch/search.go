package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
)

// facetSize bounds the buckets returned per facet aggregation.
const facetSize = 1000

// attributePairSep joins type and value in attribute_pairs. Types never
// contain it; values may.
const attributePairSep = ":"

type hitsResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int `json:"count"`
}

type bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

type termsAgg struct {
	Buckets []bucket `json:"buckets"`
}

type valueAgg struct {
	Value *float64 `json:"value"`
}

// SearchProducts runs the plan's page query.
func (s *Store) SearchProducts(ctx context.Context, p *plan.Plan) ([]domain.ProductHit, error) {
	_, hasText := p.Text()
	body := map[string]any{
		"query":            translate(p),
		"sort":             buildSort(p.Order),
		"from":             p.Offset(),
		"size":             p.Limit(),
		"track_total_hits": false,
	}
	if hasText {
		body["track_scores"] = true
	}

	var res hitsResponse
	if err := s.search(ctx, "SearchProducts", body, &res); err != nil {
		return nil, err
	}

	hits := make([]domain.ProductHit, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		doc := h.Source
		hit := domain.ProductHit{
			ID:          doc.ID,
			Name:        doc.Name,
			Description: doc.Description,
			Price:       doc.Price,
			Stock:       doc.Stock,
			ImageURL:    doc.ImageURL,
			CreatedAt:   doc.CreatedAt,
		}
		if hit.ID == "" {
			hit.ID = h.ID
		}
		if len(doc.Categories) > 0 {
			hit.Category = doc.Categories[0]
		}
		if hasText && h.Score != nil {
			hit.RelevanceScore = normalizeScore(*h.Score)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// CountProducts counts every match of the plan's predicates.
func (s *Store) CountProducts(ctx context.Context, p *plan.Plan) (int, error) {
	buf, err := json.Marshal(map[string]any{"query": translate(p)})
	if err != nil {
		return 0, fmt.Errorf("marshal count query: %w", err)
	}

	var res countResponse
	err = s.do(ctx, "CountProducts", false, &res, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Count(
			s.client.Count.WithIndex(s.index),
			s.client.Count.WithBody(bytes.NewReader(buf)),
			s.client.Count.WithContext(ctx),
		)
	})
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// Facets aggregates the whole catalogue in one size-0 search.
func (s *Store) Facets(ctx context.Context) (domain.Facets, error) {
	aggs := map[string]any{
		"categories": map[string]any{"terms": map[string]any{"field": "categories", "size": facetSize}},
		"min_price":  map[string]any{"min": map[string]any{"field": "price"}},
		"max_price":  map[string]any{"max": map[string]any{"field": "price"}},
		"attributes": map[string]any{"terms": map[string]any{"field": "attribute_pairs", "size": facetSize}},
	}

	var res struct {
		Aggregations map[string]json.RawMessage `json:"aggregations"`
	}
	body := map[string]any{"size": 0, "track_total_hits": false, "aggs": aggs}
	if err := s.search(ctx, "Facets", body, &res); err != nil {
		return domain.Facets{}, err
	}

	facets := domain.Facets{
		Categories: []domain.CategoryFacet{},
		Attributes: make(map[string][]domain.AttributeFacet),
	}

	var categories termsAgg
	if err := decodeAgg(res.Aggregations, "categories", &categories); err != nil {
		return domain.Facets{}, err
	}
	for _, b := range categories.Buckets {
		facets.Categories = append(facets.Categories, domain.CategoryFacet{Name: b.Key, Count: b.DocCount})
	}
	sort.Slice(facets.Categories, func(i, j int) bool {
		return facets.Categories[i].Name < facets.Categories[j].Name
	})

	var pairs termsAgg
	if err := decodeAgg(res.Aggregations, "attributes", &pairs); err != nil {
		return domain.Facets{}, err
	}
	for _, b := range pairs.Buckets {
		typ, value, ok := strings.Cut(b.Key, attributePairSep)
		if !ok || typ == "" {
			continue
		}
		facets.Attributes[typ] = append(facets.Attributes[typ], domain.AttributeFacet{Value: value, Count: b.DocCount})
	}
	for _, list := range facets.Attributes {
		sort.Slice(list, func(i, j int) bool { return list[i].Value < list[j].Value })
	}

	var minPrice, maxPrice valueAgg
	if err := decodeAgg(res.Aggregations, "min_price", &minPrice); err != nil {
		return domain.Facets{}, err
	}
	if err := decodeAgg(res.Aggregations, "max_price", &maxPrice); err != nil {
		return domain.Facets{}, err
	}
	if minPrice.Value != nil {
		facets.PriceRange.Min = *minPrice.Value
	}
	if maxPrice.Value != nil {
		facets.PriceRange.Max = *maxPrice.Value
	}
	return facets, nil
}

// decodeAgg decodes a named aggregation. A missing aggregation leaves out
// untouched.
func decodeAgg(aggs map[string]json.RawMessage, name string, out any) error {
	raw, ok := aggs[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s aggregation: %w", name, err)
	}
	return nil
}
