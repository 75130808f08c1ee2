package backfill

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/event"
	"github.com/Saugat913/femite-sub000/pkg/httpclient"
)

const productService = "product-service"

// Page is one page of the catalogue listing.
type Page struct {
	Products   []event.ProductEventData `json:"data"`
	TotalCount int                      `json:"total_count"`
	Page       int                      `json:"page"`
	PerPage    int                      `json:"per_page"`
	TotalPages int                      `json:"total_pages"`
	HasNext    bool                     `json:"has_next"`
}

// Source lists the catalogue page by page. Pages are 1-based.
type Source interface {
	FetchPage(ctx context.Context, page, perPage int) (*Page, error)
}

// HTTPSource reads the product service's paginated listing.
type HTTPSource struct {
	client  *httpclient.Client
	baseURL string
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates a source reading from baseURL/api/v1/products.
func NewHTTPSource(client *httpclient.Client, baseURL string) *HTTPSource {
	return &HTTPSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchPage fetches one listing page.
func (s *HTTPSource) FetchPage(ctx context.Context, page, perPage int) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint := s.baseURL + "/api/v1/products?" + q.Encode()

	var out Page
	if err := s.client.GetJSON(ctx, endpoint, productService, &out); err != nil {
		return nil, fmt.Errorf("fetch catalogue page %d: %w", page, err)
	}
	return &out, nil
}
