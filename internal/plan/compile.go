package plan

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/textrank"
	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
	"github.com/Saugat913/femite-sub000/pkg/pagination"
)

var sortToOrder = map[domain.SortOrder]Order{
	domain.SortPriceAsc:  OrderPriceAsc,
	domain.SortPriceDesc: OrderPriceDesc,
	domain.SortNewest:    OrderNewest,
	domain.SortOldest:    OrderOldest,
	domain.SortNameAsc:   OrderNameAsc,
	domain.SortNameDesc:  OrderNameDesc,
}

// attributeOrder fixes the position of attribute predicates in a plan.
var attributeOrder = []string{domain.AttrSize, domain.AttrColor, domain.AttrMaterial, domain.AttrBrand}

// Compile turns req into a Plan. It never coerces bad input: a negative or
// non-finite price, minPrice above maxPrice, an unknown sort or an
// out-of-range page or limit yields an InvalidFilter error.
func Compile(req domain.FilterRequest) (*Plan, error) {
	window, err := pagination.New(req.Page, req.Limit)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPage) {
			return nil, apperrors.InvalidFilter("page must be >= 1")
		}
		return nil, apperrors.InvalidFilter("limit must be between 1 and %d", pagination.MaxLimit)
	}

	if err := checkPrice("minPrice", req.MinPrice); err != nil {
		return nil, err
	}
	if err := checkPrice("maxPrice", req.MaxPrice); err != nil {
		return nil, err
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, apperrors.InvalidFilter("minPrice must not exceed maxPrice")
	}
	if !req.SortBy.Valid() {
		return nil, apperrors.InvalidFilter("unknown sortBy %q", req.SortBy)
	}

	applied := domain.FilterRequest{
		Query:     textrank.NormalizeQuery(req.Query),
		Category:  strings.TrimSpace(req.Category),
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		Sizes:     cleanSet(req.Sizes),
		Colors:    cleanSet(req.Colors),
		Materials: cleanSet(req.Materials),
		Brands:    cleanSet(req.Brands),
		InStock:   req.InStock,
		SortBy:    req.SortBy,
		Page:      window.Page,
		Limit:     window.Limit,
	}
	if applied.SortBy == "" {
		applied.SortBy = domain.SortRelevance
	}

	p := &Plan{Window: window, Request: applied}

	if applied.Query != "" {
		p.Predicates = append(p.Predicates, TextMatch{
			Query: applied.Query,
			Terms: textrank.Terms(applied.Query),
		})
	}
	if applied.Category != "" {
		p.Predicates = append(p.Predicates, Contains{Term: applied.Category})
	}
	if applied.MinPrice != nil || applied.MaxPrice != nil {
		p.Predicates = append(p.Predicates, Range{Field: FieldPrice, Min: applied.MinPrice, Max: applied.MaxPrice})
	}
	if applied.InStock != nil && *applied.InStock {
		zero := 0.0
		p.Predicates = append(p.Predicates, Range{Field: FieldStock, Min: &zero, MinExclusive: true})
	}
	sets := applied.AttributeSets()
	for _, typ := range attributeOrder {
		if values := sets[typ]; len(values) > 0 {
			p.Predicates = append(p.Predicates, Exists{Type: typ, Values: values})
		}
	}

	p.Order = order(applied.SortBy, applied.Query != "")
	return p, nil
}

// order applies the sort precedence: an explicit sort always wins, relevance
// needs free text, and everything else falls back to newest first.
func order(sortBy domain.SortOrder, hasText bool) Order {
	if o, ok := sortToOrder[sortBy]; ok {
		return o
	}
	if hasText {
		return OrderRelevance
	}
	return OrderNewest
}

func checkPrice(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return apperrors.InvalidFilter("%s must be a finite number", name)
	}
	if *v < 0 {
		return apperrors.InvalidFilter("%s must be >= 0", name)
	}
	return nil
}

// cleanSet trims values and drops blanks and duplicates, keeping first-seen
// order. It returns nil when nothing is left.
func cleanSet(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
