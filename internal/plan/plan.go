// Package plan compiles a FilterRequest into a storage-neutral query plan:
// AND-combined predicates, exactly one ordering and a pagination window.
// Nothing here touches a store; adapters translate a Plan into their own
// query language in a single step.
package plan

import (
	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/pkg/pagination"
)

// Predicate is one filter clause. The concrete types below are the only
// implementations.
type Predicate interface {
	predicate()
}

// TextMatch requires the product's rank vector to match every term of the
// normalized query.
type TextMatch struct {
	Query string
	Terms []string
}

// Contains requires at least one of the product's categories to contain
// Term, case-insensitively.
type Contains struct {
	Term string
}

// Field is a numeric product column a Range can bound.
type Field string

const (
	FieldPrice Field = "price"
	FieldStock Field = "stock"
)

// Range bounds a numeric field. Nil bounds are open. Both bounds are
// inclusive, except Min when MinExclusive is set.
type Range struct {
	Field        Field
	Min          *float64
	Max          *float64
	MinExclusive bool
}

// Exists requires the product to carry at least one attribute of Type whose
// value is in Values.
type Exists struct {
	Type   string
	Values []string
}

func (TextMatch) predicate() {}
func (Contains) predicate()  {}
func (Range) predicate()     {}
func (Exists) predicate()    {}

// Order is the single ordering clause of a plan. Every adapter breaks the
// remaining ties by product id ascending.
type Order int

const (
	// OrderRelevance is relevance score descending, then created_at descending.
	OrderRelevance Order = iota
	OrderPriceAsc
	OrderPriceDesc
	OrderNewest
	OrderOldest
	OrderNameAsc
	OrderNameDesc
)

func (o Order) String() string {
	switch o {
	case OrderRelevance:
		return "relevance"
	case OrderPriceAsc:
		return "price_asc"
	case OrderPriceDesc:
		return "price_desc"
	case OrderNewest:
		return "newest"
	case OrderOldest:
		return "oldest"
	case OrderNameAsc:
		return "name_asc"
	case OrderNameDesc:
		return "name_desc"
	}
	return "unknown"
}

// Plan is the compiled, side-effect-free form of a search request.
type Plan struct {
	Predicates []Predicate
	Order      Order
	Window     pagination.Window
	// Request is the normalized input, echoed back to callers as the
	// applied filters.
	Request domain.FilterRequest
}

// Text returns the free-text predicate, if the plan has one.
func (p *Plan) Text() (TextMatch, bool) {
	for _, pred := range p.Predicates {
		if tm, ok := pred.(TextMatch); ok {
			return tm, true
		}
	}
	return TextMatch{}, false
}

// HasText reports whether relevance scores are meaningful for this plan.
func (p *Plan) HasText() bool {
	_, ok := p.Text()
	return ok
}

// Limit is the page size.
func (p *Plan) Limit() int {
	return p.Window.Limit
}

// Offset is the number of matching rows skipped before the page.
func (p *Plan) Offset() int {
	return p.Window.Offset()
}
