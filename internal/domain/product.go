package domain

import "time"

// Attribute types that can be filtered on.
const (
	AttrSize     = "size"
	AttrColor    = "color"
	AttrMaterial = "material"
	AttrBrand    = "brand"
)

// Product is a catalogue entry as owned by the write path.
type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Stock       int                 `json:"stock"`
	ImageURL    string              `json:"imageUrl,omitempty"`
	Categories  []string            `json:"categories"`
	Attributes  map[string][]string `json:"attributes"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// ProductHit is a product as returned by search, with its single display
// category and relevance score.
type ProductHit struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Stock          int       `json:"stock"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Category       string    `json:"category,omitempty"`
	RelevanceScore float64   `json:"relevanceScore"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CategoryFacet is a category with the number of products linked to it.
type CategoryFacet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AttributeFacet is one attribute value with its product count.
type AttributeFacet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceRange is the catalogue-wide price span.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Facets describes the whole catalogue, never the filtered subset.
type Facets struct {
	Categories []CategoryFacet             `json:"categories"`
	Attributes map[string][]AttributeFacet `json:"attributes"`
	PriceRange PriceRange                  `json:"priceRange"`
}
