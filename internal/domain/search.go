package domain

import "slices"

// SortOrder is the requested result ordering.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortNameAsc   SortOrder = "name_asc"
	SortNameDesc  SortOrder = "name_desc"
)

var sortOrders = []SortOrder{
	SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortOldest, SortNameAsc, SortNameDesc,
}

// Valid reports whether s is a known sort. The empty value means relevance.
func (s SortOrder) Valid() bool {
	return s == "" || slices.Contains(sortOrders, s)
}

// FilterRequest is the typed search input. Zero values mean "not set".
type FilterRequest struct {
	Query     string    `json:"query,omitempty"`
	Category  string    `json:"category,omitempty"`
	MinPrice  *float64  `json:"minPrice,omitempty"`
	MaxPrice  *float64  `json:"maxPrice,omitempty"`
	Sizes     []string  `json:"sizes,omitempty"`
	Colors    []string  `json:"colors,omitempty"`
	Materials []string  `json:"materials,omitempty"`
	Brands    []string  `json:"brands,omitempty"`
	InStock   *bool     `json:"inStock,omitempty"`
	SortBy    SortOrder `json:"sortBy,omitempty"`
	Page      int       `json:"page,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// AttributeSets maps attribute type to the requested values.
func (f FilterRequest) AttributeSets() map[string][]string {
	return map[string][]string{
		AttrSize:     f.Sizes,
		AttrColor:    f.Colors,
		AttrMaterial: f.Materials,
		AttrBrand:    f.Brands,
	}
}

// SearchResult is one page of matches plus catalogue facets.
type SearchResult struct {
	Products       []ProductHit  `json:"products"`
	Total          int           `json:"total"`
	Page           int           `json:"page"`
	Limit          int           `json:"limit"`
	HasMore        bool          `json:"hasMore"`
	Facets         Facets        `json:"facets"`
	SearchQuery    string        `json:"searchQuery"`
	AppliedFilters FilterRequest `json:"appliedFilters"`
}
