package http

import (
	"log/slog"
	"net/http"

	"github.com/Saugat913/femite-sub000/pkg/httputil"
)

// Reindexer starts a full catalogue backfill in the background.
type Reindexer interface {
	Start() error
}

// ReindexHandler exposes the catalogue backfill.
type ReindexHandler struct {
	reindexer Reindexer
	logger    *slog.Logger
}

// NewReindexHandler creates a reindex HTTP handler.
func NewReindexHandler(reindexer Reindexer, logger *slog.Logger) *ReindexHandler {
	return &ReindexHandler{reindexer: reindexer, logger: logger}
}

// Reindex handles POST /api/v1/search/reindex
func (h *ReindexHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if err := h.reindexer.Start(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
