// Package service is the facade the transport layer talks to. It ties the
// filter compiler, the ranking engine, the suggestion engine and query
// telemetry together.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/plan"
	"github.com/Saugat913/femite-sub000/internal/suggest"
	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
	"github.com/Saugat913/femite-sub000/pkg/logger"
)

// ActionSelect is the only selection-feedback action.
const ActionSelect = "select"

// Searcher executes compiled plans.
type Searcher interface {
	Execute(ctx context.Context, p *plan.Plan) (*domain.SearchResult, error)
}

// Suggester produces autocomplete responses.
type Suggester interface {
	Suggest(ctx context.Context, req domain.SuggestionRequest) domain.SuggestionResponse
}

// QueryRecorder receives search and selection telemetry. Implementations
// must not block the caller.
type QueryRecorder interface {
	RecordSearch(ctx context.Context, query string, filters domain.FilterRequest, who domain.Requester)
	RecordSelection(ctx context.Context, query string)
}

// SearchService implements the three search entry points.
type SearchService struct {
	searcher  Searcher
	suggester Suggester
	recorder  QueryRecorder
	logger    *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(searcher Searcher, suggester Suggester, recorder QueryRecorder, logger *slog.Logger) *SearchService {
	return &SearchService{
		searcher:  searcher,
		suggester: suggester,
		recorder:  recorder,
		logger:    logger,
	}
}

// Search compiles req and executes it. A compiled free-text query is
// recorded whether or not the store read succeeds.
func (s *SearchService) Search(ctx context.Context, req domain.FilterRequest, who domain.Requester) (*domain.SearchResult, error) {
	p, err := plan.Compile(req)
	if err != nil {
		return nil, err
	}

	if text, ok := p.Text(); ok {
		s.recorder.RecordSearch(ctx, text.Query, p.Request, who)
	}

	result, err := s.searcher.Execute(ctx, p)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.logger).DebugContext(ctx, "search executed",
		slog.String("query", p.Request.Query),
		slog.String("order", p.Order.String()),
		slog.Int("total", result.Total),
	)
	return result, nil
}

// Suggest returns autocomplete candidates and never fails. An unknown scope
// widens to all sources and the limit is clamped to [1, MaxLimit].
func (s *SearchService) Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.SuggestionResponse, error) {
	if !req.Scope.Valid() {
		req.Scope = domain.ScopeAll
	}
	if req.Limit <= 0 {
		req.Limit = suggest.DefaultLimit
	}
	req.Limit = min(req.Limit, suggest.MaxLimit)
	return s.suggester.Suggest(ctx, req), nil
}

// RecordSelection reinforces a query the user picked from the suggestions.
func (s *SearchService) RecordSelection(ctx context.Context, query, action string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		action = ActionSelect
	}
	if action != ActionSelect {
		return apperrors.InvalidInput("unsupported action " + action)
	}
	if strings.TrimSpace(query) == "" {
		return apperrors.InvalidInput("query is required")
	}
	s.recorder.RecordSelection(ctx, query)
	return nil
}
