package elasticsearch_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
	es "github.com/Saugat913/femite-sub000/internal/store/elasticsearch"
	"github.com/Saugat913/femite-sub000/pkg/breaker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeCluster answers Elasticsearch REST calls from a canned reply per path.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recorded
	replies  map[string]reply
}

type reply struct {
	status int
	body   string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	rep, ok := f.replies[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`)
		return
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (f *fakeCluster) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestStore(t *testing.T, replies map[string]reply) (*es.Store, *fakeCluster) {
	t.Helper()
	fake := &fakeCluster{replies: replies}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	b := breaker.New(breaker.DefaultConfig("elasticsearch-test"), nil)
	s, err := es.New(es.Config{Addresses: []string{srv.URL}, Index: "products_test"}, b, testLogger())
	require.NoError(t, err)
	return s, fake
}

func compile(t *testing.T, req domain.FilterRequest) *plan.Plan {
	t.Helper()
	p, err := plan.Compile(req)
	require.NoError(t, err)
	return p
}

func TestSearchProducts_DecodesHits(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{
			"hits": {"hits": [
				{"_id": "p1", "_score": 3.0, "_source": {"id": "p1", "name": "Hemp Shirt", "description": "soft", "price": 25.5, "stock": 3, "categories": ["Shirts", "Summer"], "created_at": "2026-01-02T03:04:05Z"}},
				{"_id": "p2", "_score": 1.0, "_source": {"id": "p2", "name": "Hemp Bag", "price": 10, "stock": 0, "categories": [], "created_at": "2026-01-01T00:00:00Z"}}
			]}
		}`},
	})

	hits, err := s.SearchProducts(context.Background(), compile(t, domain.FilterRequest{Query: "hemp", Page: 2, Limit: 10}))
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "p1", hits[0].ID)
	assert.Equal(t, "Shirts", hits[0].Category)
	assert.InDelta(t, 0.75, hits[0].RelevanceScore, 1e-9)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), hits[0].CreatedAt)
	assert.Empty(t, hits[1].Category)
	assert.InDelta(t, 0.5, hits[1].RelevanceScore, 1e-9)

	req := fake.last(t)
	assert.Equal(t, float64(10), req.Body["from"])
	assert.Equal(t, float64(10), req.Body["size"])
	assert.Equal(t, true, req.Body["track_scores"])
}

func TestSearchProducts_NoTextZeroesScore(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{"hits": {"hits": [
			{"_id": "p1", "_score": null, "_source": {"id": "p1", "name": "Hemp Shirt", "price": 25, "categories": ["Shirts"]}}
		]}}`},
	})

	hits, err := s.SearchProducts(context.Background(), compile(t, domain.FilterRequest{Category: "shirt"}))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].RelevanceScore)
	assert.NotContains(t, fake.last(t).Body, "track_scores")
}

func TestCountProducts(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"POST /products_test/_count": {http.StatusOK, `{"count": 42}`},
	})

	n, err := s.CountProducts(context.Background(), compile(t, domain.FilterRequest{Query: "hemp"}))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Contains(t, fake.last(t).Body, "query")
}

func TestFacets(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{"aggregations": {
			"categories": {"buckets": [{"key": "Shirts", "doc_count": 2}, {"key": "Bags", "doc_count": 1}]},
			"attributes": {"buckets": [
				{"key": "color:red", "doc_count": 1},
				{"key": "fit:relaxed", "doc_count": 3},
				{"key": "color:blue", "doc_count": 2},
				{"key": "pattern:check:navy", "doc_count": 1}
			]},
			"min_price": {"value": 10},
			"max_price": {"value": 25.5}
		}}`},
	})

	f, err := s.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryFacet{{Name: "Bags", Count: 1}, {Name: "Shirts", Count: 2}}, f.Categories)
	assert.Equal(t, []domain.AttributeFacet{{Value: "blue", Count: 2}, {Value: "red", Count: 1}}, f.Attributes[domain.AttrColor])
	assert.Equal(t, []domain.AttributeFacet{{Value: "relaxed", Count: 3}}, f.Attributes["fit"])
	assert.Equal(t, []domain.AttributeFacet{{Value: "check:navy", Count: 1}}, f.Attributes["pattern"])
	assert.NotContains(t, f.Attributes, domain.AttrSize)

	aggs := fake.last(t).Body["aggs"].(map[string]any)
	assert.Equal(t, "attribute_pairs", aggs["attributes"].(map[string]any)["terms"].(map[string]any)["field"])
	assert.Equal(t, domain.PriceRange{Min: 10, Max: 25.5}, f.PriceRange)
}

func TestFacets_EmptyIndex(t *testing.T) {
	s, _ := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{"aggregations": {
			"categories": {"buckets": []},
			"min_price": {"value": null},
			"max_price": {"value": null}
		}}`},
	})

	f, err := s.Facets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.Categories)
	assert.NotNil(t, f.Attributes)
	assert.Equal(t, domain.PriceRange{}, f.PriceRange)
}

func TestReindex_WritesSortedDocument(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"PUT /products_test/_doc/p1": {http.StatusCreated, `{"result": "created"}`},
	})

	err := s.Reindex(context.Background(), &domain.Product{
		ID:         "p1",
		Name:       "Hemp Shirt",
		Price:      25,
		Stock:      3,
		Categories: []string{"Summer", "Shirts"},
		Attributes: map[string][]string{domain.AttrColor: {"red"}, "fit": {"slim"}},
	})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.Query, "refresh=wait_for")
	assert.Equal(t, []any{"Shirts", "Summer"}, req.Body["categories"])
	assert.Equal(t, map[string]any{"color": []any{"red"}, "fit": []any{"slim"}}, req.Body["attributes"])
	assert.Equal(t, []any{"color:red", "fit:slim"}, req.Body["attribute_pairs"])
}

func TestRemove_MissingDocumentIsNotAnError(t *testing.T) {
	s, _ := newTestStore(t, nil)
	assert.NoError(t, s.Remove(context.Background(), "missing"))
}

func TestSearch_ErrorResponseIsReported(t *testing.T) {
	s, _ := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusBadRequest, `{"error":{"type":"parsing_exception","reason":"bad query"},"status":400}`},
	})

	_, err := s.SearchProducts(context.Background(), compile(t, domain.FilterRequest{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing_exception: bad query")
}

func TestProductSuggestions(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{"aggregations": {"names": {"buckets": [
			{"key": "Hemp Shirt", "doc_count": 2, "newest": {"hits": {"hits": [{"_source": {"id": "p9", "price": 30, "image_url": "img.png"}}]}}},
			{"key": "Hemp Bag", "doc_count": 1, "newest": {"hits": {"hits": []}}}
		]}}}`},
	})

	got, err := s.ProductSuggestions(context.Background(), "hemp", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Hemp Shirt", got[0].Text)
	assert.Equal(t, domain.SuggestProduct, got[0].Type)
	assert.Equal(t, 2, got[0].Popularity)
	assert.Equal(t, "p9", got[0].ID)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 30.0, *got[0].Price)
	assert.Nil(t, got[1].Price)

	aggs := fake.last(t).Body["aggs"].(map[string]any)
	terms := aggs["names"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, float64(5), terms["size"])
}

func TestCategorySuggestions_FiltersNonMatchingBuckets(t *testing.T) {
	s, _ := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{"aggregations": {"categories": {"buckets": [
			{"key": "Summer", "doc_count": 4},
			{"key": "T-Shirts", "doc_count": 2},
			{"key": "Shirts", "doc_count": 2}
		]}}}`},
	})

	got, err := s.CategorySuggestions(context.Background(), "SHIRT", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Shirts", got[0].Text)
	assert.Equal(t, "T-Shirts", got[1].Text)
	assert.Equal(t, domain.SuggestCategory, got[0].Type)
}

func TestRelatedCategories(t *testing.T) {
	s, _ := newTestStore(t, map[string]reply{
		"POST /products_test/_search": {http.StatusOK, `{"aggregations": {"categories": {"buckets": [
			{"key": "Shirts", "doc_count": 3},
			{"key": "Bags", "doc_count": 1}
		]}}}`},
	})

	got, err := s.RelatedCategories(context.Background(), "hemp", 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.RelatedCategory{{Name: "Shirts", Count: 3}, {Name: "Bags", Count: 1}}, got)
}

func TestEnsureIndex_CreatesMissingIndex(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"PUT /products_test": {http.StatusOK, `{"acknowledged": true}`},
	})

	require.NoError(t, s.EnsureIndex(context.Background()))
	req := fake.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.Body, "mappings")
}

func TestEnsureIndex_ExistingIndexUntouched(t *testing.T) {
	s, fake := newTestStore(t, map[string]reply{
		"HEAD /products_test": {http.StatusOK, ``},
	})

	require.NoError(t, s.EnsureIndex(context.Background()))
	assert.Equal(t, http.MethodHead, fake.last(t).Method)
}
