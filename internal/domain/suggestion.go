package domain

import "time"

// SuggestionType says which source produced a candidate.
type SuggestionType string

const (
	SuggestProduct  SuggestionType = "product"
	SuggestCategory SuggestionType = "category"
	SuggestHistory  SuggestionType = "history"
)

// SuggestionScope restricts which sources are consulted.
type SuggestionScope string

const (
	ScopeAll        SuggestionScope = "all"
	ScopeProducts   SuggestionScope = "products"
	ScopeCategories SuggestionScope = "categories"
	ScopeHistory    SuggestionScope = "history"
)

// Valid reports whether s is a known scope. The empty value means all.
func (s SuggestionScope) Valid() bool {
	switch s {
	case "", ScopeAll, ScopeProducts, ScopeCategories, ScopeHistory:
		return true
	}
	return false
}

// Includes reports whether the scope consults sources of type t.
func (s SuggestionScope) Includes(t SuggestionType) bool {
	switch s {
	case "", ScopeAll:
		return true
	case ScopeProducts:
		return t == SuggestProduct
	case ScopeCategories:
		return t == SuggestCategory
	case ScopeHistory:
		return t == SuggestHistory
	}
	return false
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Text       string         `json:"text"`
	Type       SuggestionType `json:"type"`
	Popularity int            `json:"popularity"`
	ID         string         `json:"id,omitempty"`
	Image      string         `json:"image,omitempty"`
	Price      *float64       `json:"price,omitempty"`
	IsTrending bool           `json:"isTrending,omitempty"`
}

// RelatedCategory is a category linked to products matching the term.
type RelatedCategory struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SuggestionRequest is the autocomplete input.
type SuggestionRequest struct {
	Query string
	Limit int
	Scope SuggestionScope
}

// SuggestionResponse is the autocomplete output. Trending is only filled
// on cold start.
type SuggestionResponse struct {
	Suggestions []Suggestion      `json:"suggestions"`
	Categories  []RelatedCategory `json:"categories"`
	Trending    []Suggestion      `json:"trending,omitempty"`
}

// PopularQuery is a row of the query frequency aggregate.
type PopularQuery struct {
	Query          string    `json:"query"`
	SearchCount    int       `json:"searchCount"`
	IsTrending     bool      `json:"isTrending"`
	LastSearchedAt time.Time `json:"lastSearchedAt"`
	// Similarity to the term that selected this row, when looked up fuzzily.
	Similarity float64 `json:"-"`
}
