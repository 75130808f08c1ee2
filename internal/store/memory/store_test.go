package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProduct(name, description string, price float64, age time.Duration) *domain.Product {
	return &domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       5,
		ImageURL:    "https://example.com/" + name + ".jpg",
		Categories:  []string{"Tops"},
		Attributes:  map[string][]string{},
		CreatedAt:   baseTime.Add(-age),
		UpdatedAt:   baseTime.Add(-age),
	}
}

func compile(t *testing.T, req domain.FilterRequest) *plan.Plan {
	t.Helper()
	p, err := plan.Compile(req)
	require.NoError(t, err)
	return p
}

func names(hits []domain.ProductHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Name
	}
	return out
}

func TestStore_HempScenario(t *testing.T) {
	ctx := context.Background()
	s := New()

	tee := newTestProduct("Organic Hemp Tee", "Soft everyday tee", 30, time.Hour)
	hoodie := newTestProduct("Hemp Hoodie", "Warm pullover", 70, 2*time.Hour)
	require.NoError(t, s.Reindex(ctx, tee))
	require.NoError(t, s.Reindex(ctx, hoodie))

	hits, err := s.SearchProducts(ctx, compile(t, domain.FilterRequest{Query: "hemp", SortBy: domain.SortPriceDesc}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hemp Hoodie", "Organic Hemp Tee"}, names(hits))

	// Same name weight for "hemp" in both: ties go to the newest.
	hits, err = s.SearchProducts(ctx, compile(t, domain.FilterRequest{Query: "hemp"}))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, hits[0].RelevanceScore, hits[1].RelevanceScore)
	assert.Equal(t, []string{"Organic Hemp Tee", "Hemp Hoodie"}, names(hits))
	assert.Greater(t, hits[0].RelevanceScore, 0.0)
}

func TestStore_RelevanceBeatsRecency(t *testing.T) {
	ctx := context.Background()
	s := New()

	inDesc := newTestProduct("Cotton Tee", "blended with hemp", 20, time.Minute)
	inName := newTestProduct("Hemp Tee", "plain", 25, time.Hour)
	require.NoError(t, s.Reindex(ctx, inDesc))
	require.NoError(t, s.Reindex(ctx, inName))

	hits, err := s.SearchProducts(ctx, compile(t, domain.FilterRequest{Query: "hemp"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hemp Tee", "Cotton Tee"}, names(hits))
	assert.Greater(t, hits[0].RelevanceScore, hits[1].RelevanceScore)
}

func TestStore_CategoryContains(t *testing.T) {
	ctx := context.Background()
	s := New()

	shirt := newTestProduct("Basic Crew", "", 15, time.Hour)
	shirt.Categories = []string{"T-Shirts", "Basics"}
	pants := newTestProduct("Chino", "", 40, time.Hour)
	pants.Categories = []string{"Pants"}
	require.NoError(t, s.Reindex(ctx, shirt))
	require.NoError(t, s.Reindex(ctx, pants))

	hits, err := s.SearchProducts(ctx, compile(t, domain.FilterRequest{Category: "shirts"}))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Basic Crew", hits[0].Name)
	assert.Equal(t, "Basics", hits[0].Category)
	assert.Zero(t, hits[0].RelevanceScore)
}

func TestStore_Filters(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := newTestProduct("A", "", 10, 1*time.Hour)
	a.Attributes = map[string][]string{domain.AttrSize: {"S", "M"}, domain.AttrColor: {"red"}}
	b := newTestProduct("B", "", 20, 2*time.Hour)
	b.Attributes = map[string][]string{domain.AttrSize: {"L"}, domain.AttrColor: {"red"}}
	b.Stock = 0
	c := newTestProduct("C", "", 30, 3*time.Hour)
	c.Attributes = map[string][]string{domain.AttrSize: {"M"}, domain.AttrColor: {"blue"}}
	for _, p := range []*domain.Product{a, b, c} {
		require.NoError(t, s.Reindex(ctx, p))
	}

	inStock := true
	min, max := 10.0, 20.0

	tests := []struct {
		name string
		req  domain.FilterRequest
		want []string
	}{
		{"or within a set", domain.FilterRequest{Sizes: []string{"M", "L"}}, []string{"A", "B", "C"}},
		{"and across types", domain.FilterRequest{Sizes: []string{"M"}, Colors: []string{"red"}}, []string{"A"}},
		{"in stock", domain.FilterRequest{InStock: &inStock}, []string{"A", "C"}},
		{"inclusive price bounds", domain.FilterRequest{MinPrice: &min, MaxPrice: &max}, []string{"A", "B"}},
		{"no match", domain.FilterRequest{Materials: []string{"wool"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := s.SearchProducts(ctx, compile(t, tt.req))
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(hits))
		})
	}
}

func TestStore_RemoveAndReindex(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := newTestProduct("Hemp Tee", "", 30, time.Hour)
	require.NoError(t, s.Reindex(ctx, p))

	p.Name = "Linen Tee"
	require.NoError(t, s.Reindex(ctx, p))

	n, err := s.CountProducts(ctx, compile(t, domain.FilterRequest{Query: "hemp"}))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.CountProducts(ctx, compile(t, domain.FilterRequest{Query: "linen"}))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Remove(ctx, p.ID))
	require.NoError(t, s.Remove(ctx, "missing"))
	n, err = s.CountProducts(ctx, compile(t, domain.FilterRequest{}))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Facets(t *testing.T) {
	ctx := context.Background()
	s := New()

	empty, err := s.Facets(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Categories)
	assert.Equal(t, domain.PriceRange{}, empty.PriceRange)

	a := newTestProduct("A", "", 12, time.Hour)
	a.Categories = []string{"Tops", "Basics"}
	a.Attributes = map[string][]string{domain.AttrColor: {"red", "red"}}
	b := newTestProduct("B", "", 80, time.Hour)
	b.Attributes = map[string][]string{domain.AttrColor: {"blue", "red"}}
	require.NoError(t, s.Reindex(ctx, a))
	require.NoError(t, s.Reindex(ctx, b))

	facets, err := s.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryFacet{{Name: "Basics", Count: 1}, {Name: "Tops", Count: 2}}, facets.Categories)
	assert.Equal(t, []domain.AttributeFacet{{Value: "blue", Count: 1}, {Value: "red", Count: 2}}, facets.Attributes[domain.AttrColor])
	assert.Equal(t, domain.PriceRange{Min: 12, Max: 80}, facets.PriceRange)
}

func TestStore_Suggestions(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, p := range []*domain.Product{
		newTestProduct("Hemp Tee", "", 30, time.Hour),
		newTestProduct("Hemp Tee", "", 32, time.Minute),
		newTestProduct("Hemp Hoodie", "", 70, time.Hour),
		newTestProduct("Wool Socks", "hemp blend", 9, time.Hour),
	} {
		if i == 2 {
			p.Categories = []string{"Hoodies"}
		}
		require.NoError(t, s.Reindex(ctx, p))
	}

	products, err := s.ProductSuggestions(ctx, "hemp", 10)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Hemp Tee", products[0].Text)
	assert.Equal(t, 2, products[0].Popularity)
	require.NotNil(t, products[0].Price)
	assert.Equal(t, 32.0, *products[0].Price)
	assert.Equal(t, domain.SuggestProduct, products[0].Type)

	limited, err := s.ProductSuggestions(ctx, "hemp", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	cats, err := s.CategorySuggestions(ctx, "oo", 5)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, domain.Suggestion{Text: "Hoodies", Type: domain.SuggestCategory, Popularity: 1}, cats[0])

	related, err := s.RelatedCategories(ctx, "hemp", 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.RelatedCategory{{Name: "Tops", Count: 3}, {Name: "Hoodies", Count: 1}}, related)
}
