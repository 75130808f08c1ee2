// Package memory is an in-process Catalog. It ranks with the textrank
// package and is used for local development and as the fixture for engine
// tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
	"github.com/Saugat913/femite-sub000/internal/textrank"
)

type entry struct {
	product domain.Product
	vector  textrank.Vector
}

// Store is an in-memory implementation of store.Catalog.
// Thread-safe via sync.RWMutex.
type Store struct {
	mu       sync.RWMutex
	products map[string]*entry
}

// New creates an empty store.
func New() *Store {
	return &Store{products: make(map[string]*entry)}
}

// Reindex stores a copy of the product and rebuilds its rank vector.
func (s *Store) Reindex(_ context.Context, product *domain.Product) error {
	p := *product
	p.Categories = append([]string(nil), product.Categories...)
	sort.Strings(p.Categories)
	p.Attributes = make(map[string][]string, len(product.Attributes))
	for typ, values := range product.Attributes {
		p.Attributes[typ] = append([]string(nil), values...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &entry{product: p, vector: textrank.BuildVector(p.Name, p.Description)}
	return nil
}

// Remove deletes a product by id.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

type scored struct {
	e     *entry
	score float64
}

// SearchProducts filters, orders and windows the catalogue.
func (s *Store) SearchProducts(_ context.Context, p *plan.Plan) ([]domain.ProductHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(p)
	sortScored(matched, p.Order)

	offset := min(p.Offset(), len(matched))
	end := min(offset+p.Limit(), len(matched))

	hits := make([]domain.ProductHit, 0, end-offset)
	for _, m := range matched[offset:end] {
		hits = append(hits, toHit(m))
	}
	return hits, nil
}

// CountProducts counts every match of the plan's predicates.
func (s *Store) CountProducts(_ context.Context, p *plan.Plan) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(p)), nil
}

// Facets aggregates the whole catalogue.
func (s *Store) Facets(_ context.Context) (domain.Facets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]int)
	attributes := make(map[string]map[string]int)
	var prices domain.PriceRange
	first := true

	for _, e := range s.products {
		p := e.product
		for _, c := range p.Categories {
			categories[c]++
		}
		for typ, values := range p.Attributes {
			if attributes[typ] == nil {
				attributes[typ] = make(map[string]int)
			}
			for _, v := range dedup(values) {
				attributes[typ][v]++
			}
		}
		if first || p.Price < prices.Min {
			prices.Min = p.Price
		}
		if first || p.Price > prices.Max {
			prices.Max = p.Price
		}
		first = false
	}

	facets := domain.Facets{
		Categories: make([]domain.CategoryFacet, 0, len(categories)),
		Attributes: make(map[string][]domain.AttributeFacet, len(attributes)),
		PriceRange: prices,
	}
	for name, n := range categories {
		facets.Categories = append(facets.Categories, domain.CategoryFacet{Name: name, Count: n})
	}
	sort.Slice(facets.Categories, func(i, j int) bool {
		return facets.Categories[i].Name < facets.Categories[j].Name
	})
	for typ, values := range attributes {
		list := make([]domain.AttributeFacet, 0, len(values))
		for v, n := range values {
			list = append(list, domain.AttributeFacet{Value: v, Count: n})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Value < list[j].Value })
		facets.Attributes[typ] = list
	}
	return facets, nil
}

// match returns every entry satisfying all predicates, with its score when
// the plan has free text.
func (s *Store) match(p *plan.Plan) []scored {
	text, hasText := p.Text()
	out := make([]scored, 0)
	for _, e := range s.products {
		if !matchesAll(e, p.Predicates) {
			continue
		}
		m := scored{e: e}
		if hasText {
			m.score = e.vector.Score(text.Terms)
		}
		out = append(out, m)
	}
	return out
}

func matchesAll(e *entry, preds []plan.Predicate) bool {
	for _, pred := range preds {
		if !matches(e, pred) {
			return false
		}
	}
	return true
}

func matches(e *entry, pred plan.Predicate) bool {
	p := e.product
	switch pr := pred.(type) {
	case plan.TextMatch:
		return e.vector.Matches(pr.Terms)
	case plan.Contains:
		return categoryContains(p.Categories, pr.Term)
	case plan.Range:
		v := p.Price
		if pr.Field == plan.FieldStock {
			v = float64(p.Stock)
		}
		if pr.Min != nil && (v < *pr.Min || (pr.MinExclusive && v == *pr.Min)) {
			return false
		}
		return pr.Max == nil || v <= *pr.Max
	case plan.Exists:
		for _, v := range p.Attributes[pr.Type] {
			for _, want := range pr.Values {
				if v == want {
					return true
				}
			}
		}
		return false
	}
	return false
}

func categoryContains(categories []string, term string) bool {
	term = strings.ToLower(term)
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	return false
}

// sortScored orders matches by the plan order, breaking ties by id.
func sortScored(m []scored, order plan.Order) {
	sort.Slice(m, func(i, j int) bool {
		a, b := m[i].e.product, m[j].e.product
		switch order {
		case plan.OrderRelevance:
			if m[i].score != m[j].score {
				return m[i].score > m[j].score
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case plan.OrderPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case plan.OrderPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case plan.OrderNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case plan.OrderOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case plan.OrderNameAsc:
			if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
				return an < bn
			}
		case plan.OrderNameDesc:
			if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
				return an > bn
			}
		}
		return a.ID < b.ID
	})
}

func toHit(m scored) domain.ProductHit {
	p := m.e.product
	hit := domain.ProductHit{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		ImageURL:       p.ImageURL,
		RelevanceScore: m.score,
		CreatedAt:      p.CreatedAt,
	}
	if len(p.Categories) > 0 {
		hit.Category = p.Categories[0]
	}
	return hit
}

func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
