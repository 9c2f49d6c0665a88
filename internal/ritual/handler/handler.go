package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sofie/internal/platform/middleware"
	"sofie/internal/ritual/ledger"
	"sofie/internal/ritual/models"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/platform/httputil"
)

// Previewer evaluates ritual rules without side effects.
type Previewer interface {
	Preview(ctx context.Context) *models.Evaluation
}

// History lists logged rituals.
type History interface {
	RecentRituals(ctx context.Context, limit int) ([]ledger.Ritual, error)
}

// Handler serves ritual endpoints.
type Handler struct {
	logger  *slog.Logger
	preview Previewer
	history History
}

// New creates a ritual Handler. history may be nil, in which case the
// history route is not registered.
func New(preview Previewer, history History, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		preview: preview,
		history: history,
	}
}

// Register registers the ritual routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/rituals/preview", h.handlePreview)
	if h.history != nil {
		r.Get("/api/v1/rituals/history", h.handleHistory)
	}
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.preview.Preview(r.Context()))
}

// HistoryResponse lists logged rituals, newest first.
type HistoryResponse struct {
	Rituals []RitualResponse `json:"rituals"`
}

type RitualResponse struct {
	TS          string `json:"ts"`
	Name        string `json:"name"`
	Completed   bool   `json:"completed"`
	AutoTrigger string `json:"auto_trigger,omitempty"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	rituals, err := h.history.RecentRituals(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list rituals",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rituals"))
		return
	}

	resp := HistoryResponse{Rituals: make([]RitualResponse, 0, len(rituals))}
	for _, rt := range rituals {
		resp.Rituals = append(resp.Rituals, RitualResponse{
			TS:          rt.TS.UTC().Format(time.RFC3339),
			Name:        rt.Name,
			Completed:   rt.Completed,
			AutoTrigger: rt.AutoTrigger,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
