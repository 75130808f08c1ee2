package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/service"
	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
	"github.com/Saugat913/femite-sub000/pkg/httputil"
	"github.com/Saugat913/femite-sub000/pkg/logger"
	"github.com/Saugat913/femite-sub000/pkg/middleware"
	"github.com/Saugat913/femite-sub000/pkg/validator"
)

const maxBodyBytes = 1 << 16

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// SelectionRequest is the JSON body of a selection-feedback call.
type SelectionRequest struct {
	Query  string `json:"query" validate:"required,max=200"`
	Action string `json:"action" validate:"omitempty,oneof=select"`
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseFilterRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Search(r.Context(), req, requester(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Suggestions handles GET /api/v1/search/suggestions
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	// A malformed limit falls back to the default like a missing one.
	limit, _, err := httputil.QueryInt(r, "limit")
	if err != nil {
		limit = 0
	}

	resp, err := h.service.Suggest(r.Context(), domain.SuggestionRequest{
		Query: queryParam(r),
		Limit: limit,
		Scope: domain.SuggestionScope(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// RecordSelection handles POST /api/v1/search/suggestions
func (h *SearchHandler) RecordSelection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SelectionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.RecordSelection(r.Context(), req.Query, req.Action); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{
		Data: map[string]bool{"success": true},
	})
}

// queryParam reads the search text from q, falling back to query.
func queryParam(r *http.Request) string {
	q := r.URL.Query()
	if v := q.Get("q"); v != "" {
		return v
	}
	return q.Get("query")
}

func parseFilterRequest(r *http.Request) (domain.FilterRequest, error) {
	q := r.URL.Query()
	req := domain.FilterRequest{
		Query:     queryParam(r),
		Category:  q.Get("category"),
		Sizes:     httputil.QueryList(r, "sizes"),
		Colors:    httputil.QueryList(r, "colors"),
		Materials: httputil.QueryList(r, "materials"),
		Brands:    httputil.QueryList(r, "brands"),
		SortBy:    domain.SortOrder(strings.TrimSpace(q.Get("sortBy"))),
	}

	var err error
	if req.MinPrice, err = httputil.QueryFloat(r, "minPrice"); err != nil {
		return req, err
	}
	if req.MaxPrice, err = httputil.QueryFloat(r, "maxPrice"); err != nil {
		return req, err
	}
	if req.InStock, err = httputil.QueryBool(r, "inStock"); err != nil {
		return req, err
	}

	page, set, err := httputil.QueryInt(r, "page")
	if err != nil {
		return req, err
	}
	if set && page < 1 {
		return req, apperrors.InvalidFilter("page must be >= 1")
	}
	req.Page = page

	limit, set, err := httputil.QueryInt(r, "limit")
	if err != nil {
		return req, err
	}
	if set && limit < 1 {
		return req, apperrors.InvalidFilter("limit must be positive")
	}
	req.Limit = limit

	return req, nil
}

// requester resolves the caller identity set by middleware.RequestLogger.
func requester(r *http.Request) domain.Requester {
	ctx := r.Context()
	return domain.Requester{
		UserID:    logger.UserIDFromContext(ctx),
		SessionID: logger.SessionIDFromContext(ctx),
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
