// Package elasticsearch implements the catalogue ports on an Elasticsearch
// index. Product writes arrive through Reindex and Remove; reads translate a
// compiled plan into a bool query.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/store"
	"github.com/Saugat913/femite-sub000/pkg/breaker"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

// Config configures the Elasticsearch catalogue.
type Config struct {
	Addresses []string
	Index     string
	// Transport overrides the HTTP transport; nil uses the client default.
	Transport http.RoundTripper
}

// Store implements store.Catalog using Elasticsearch.
type Store struct {
	client  *elasticsearch.Client
	index   string
	breaker *breaker.Breaker
	logger  *slog.Logger
}

var _ store.Catalog = (*Store)(nil)

// document is the indexed form of a product.
type document struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Price          float64             `json:"price"`
	Stock          int                 `json:"stock"`
	ImageURL       string              `json:"image_url,omitempty"`
	Categories     []string            `json:"categories"`
	Attributes     map[string][]string `json:"attributes,omitempty"`
	// AttributePairs holds "type:value" for every attribute so a single
	// terms aggregation can facet types the mapping does not name.
	AttributePairs []string            `json:"attribute_pairs,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates the client. It does not contact the cluster; call EnsureIndex
// before serving.
func New(cfg Config, b *breaker.Breaker, logger *slog.Logger) (*Store, error) {
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return &Store{client: client, index: cfg.Index, breaker: b, logger: logger}, nil
}

// Index returns the index name.
func (s *Store) Index() string { return s.index }

// Ping checks whether the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the products index with its mapping when missing.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		s.logger.Info("elasticsearch index already exists", slog.String("index", s.index))
		return nil
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	s.logger.Info("elasticsearch index created", slog.String("index", s.index))
	return nil
}

// DeleteIndex drops the index. Used by integration tests.
func (s *Store) DeleteIndex(ctx context.Context) error {
	res, err := s.client.Indices.Delete([]string{s.index}, s.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}
	return nil
}

// Reindex writes the product document, replacing any previous version.
func (s *Store) Reindex(ctx context.Context, p *domain.Product) error {
	categories := append([]string(nil), p.Categories...)
	sort.Strings(categories)
	if categories == nil {
		categories = []string{}
	}

	body, err := json.Marshal(document{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		ImageURL:       p.ImageURL,
		Categories:     categories,
		Attributes:     p.Attributes,
		AttributePairs: attributePairs(p.Attributes),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal product document: %w", err)
	}

	return s.do(ctx, "Reindex", false, nil, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Index(
			s.index,
			bytes.NewReader(body),
			s.client.Index.WithDocumentID(p.ID),
			s.client.Index.WithRefresh("wait_for"),
			s.client.Index.WithContext(ctx),
		)
	})
}

func attributePairs(attrs map[string][]string) []string {
	var pairs []string
	for typ, values := range attrs {
		for _, v := range values {
			pairs = append(pairs, typ+attributePairSep+v)
		}
	}
	sort.Strings(pairs)
	return pairs
}

// Remove deletes the product document. A missing document is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.do(ctx, "Remove", true, nil, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Delete(
			s.index,
			id,
			s.client.Delete.WithRefresh("wait_for"),
			s.client.Delete.WithContext(ctx),
		)
	})
}

// search posts body to the _search endpoint and decodes the reply into out.
func (s *Store) search(ctx context.Context, op string, body map[string]any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s query: %w", op, err)
	}
	return s.do(ctx, op, false, out, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Search(
			s.client.Search.WithIndex(s.index),
			s.client.Search.WithBody(bytes.NewReader(buf)),
			s.client.Search.WithContext(ctx),
		)
	})
}

// do runs one request through the breaker, traces it and decodes a
// successful body into out when out is non-nil.
func (s *Store) do(
	ctx context.Context,
	op string,
	ignoreNotFound bool,
	out any,
	call func(context.Context) (*esapi.Response, error),
) (err error) {
	ctx, end := database.TraceCall(ctx, "elasticsearch", op, s.index)
	defer func() { end(err) }()

	return s.breaker.Do(func() error {
		res, err := call(ctx)
		if err != nil {
			return fmt.Errorf("elasticsearch %s: %w", op, err)
		}
		defer func() { _ = res.Body.Close() }()

		if res.IsError() {
			if ignoreNotFound && res.StatusCode == http.StatusNotFound {
				return nil
			}
			return responseError("elasticsearch "+op, res)
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("elasticsearch %s: decode response: %w", op, err)
		}
		return nil
	})
}

func responseError(what string, res *esapi.Response) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", what, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", what, res.Status())
}
