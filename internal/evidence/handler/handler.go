package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sofie/internal/evidence/models"
	"sofie/internal/platform/middleware"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/platform/httputil"
)

const maxTopK = 50

// Library is the read side of the evidence corpus.
type Library interface {
	Query(text string, topK int) []models.Hit
	ToneCommand(protocolID string) (*models.ToneCommand, bool)
}

// Handler exposes evidence search and tone lookup. Neither calls the
// generation backend, so they are not consent gated.
type Handler struct {
	library Library
	logger  *slog.Logger
}

func New(library Library, logger *slog.Logger) *Handler {
	return &Handler{library: library, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/evidence/search", h.handleSearch)
	r.Get("/api/v1/evidence/tone/{protocol_id}", h.handleTone)
}

// SearchResponse lists ranked hits for a query.
type SearchResponse struct {
	Query string       `json:"query"`
	TopK  int          `json:"top_k"`
	Hits  []models.Hit `json:"hits"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "q is required"))
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxTopK {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "top_k must be an integer between 0 and 50"))
			return
		}
		topK = n
	}

	hits := h.library.Query(q, topK)
	h.logger.DebugContext(ctx, "evidence search",
		"request_id", middleware.GetRequestID(ctx),
		"hits", len(hits),
	)
	httputil.WriteJSON(w, http.StatusOK, SearchResponse{Query: q, TopK: topK, Hits: hits})
}

func (h *Handler) handleTone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "protocol_id")
	cmd, ok := h.library.ToneCommand(id)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no measured tone for protocol "+id))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cmd)
}
