package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sofie/internal/guidance/models"
	"sofie/internal/platform/middleware"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/platform/httputil"
)

// Service produces guidance for a validated request.
type Service interface {
	Respond(ctx context.Context, req models.Request) *models.Result
}

// Handler handles the guidance endpoint.
type Handler struct {
	logger   *slog.Logger
	guidance Service
}

// New creates a new guidance Handler.
func New(guidance Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		guidance: guidance,
	}
}

// Register registers the guidance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/wellness/guidance", h.handleGuidance)
}

func (h *Handler) handleGuidance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GuidanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.guidance.Respond(ctx, req.toModel())

	switch result.Outcome {
	case models.OutcomeOK:
		httputil.WriteJSON(w, http.StatusOK, result)
	case models.OutcomeConsentDenied:
		h.logger.InfoContext(ctx, "guidance refused",
			"request_id", requestID,
			"user_id", req.UserID,
		)
		writeOutcomeError(w, dErrors.CodeMissingConsent, result)
	case models.OutcomeGenerationFailed:
		h.logger.WarnContext(ctx, "guidance fell back",
			"request_id", requestID,
			"user_id", req.UserID,
		)
		writeOutcomeError(w, dErrors.CodeGenerationUnavailable, result)
	default:
		h.logger.ErrorContext(ctx, "unknown guidance outcome",
			"request_id", requestID,
			"outcome", result.Outcome,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "unexpected guidance outcome"))
	}
}

func writeOutcomeError(w http.ResponseWriter, code dErrors.Code, result *models.Result) {
	httputil.WriteJSON(w, httputil.DomainCodeToHTTPStatus(code), ErrorGuidanceResponse{
		Error:            httputil.DomainCodeToHTTPCode(code),
		ErrorDescription: result.Message,
		Result:           result,
	})
}
