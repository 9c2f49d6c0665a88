package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sofie/internal/consent/models"
	"sofie/internal/platform/middleware"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/platform/httputil"
)

// Service defines the consent operations exposed over HTTP.
type Service interface {
	Grant(ctx context.Context, userID string, consentType models.ConsentType, purpose string) (*models.Record, error)
	Check(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error)
	Revoke(ctx context.Context, userID string, consentType models.ConsentType) (*models.Record, error)
	List(ctx context.Context, userID string) ([]*models.Record, error)
}

// Handler handles consent-related endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		consent: consent,
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/consent/grant", h.handleGrant)
	r.Get("/api/v1/consent/check/{user_id}/{consent_type}", h.handleCheck)
	r.Delete("/api/v1/consent/revoke/{user_id}/{consent_type}", h.handleRevoke)
	r.Get("/api/v1/consent/{user_id}", h.handleList)
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GrantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.consent.Grant(ctx, req.UserID, models.ConsentType(req.ConsentType), req.Purpose)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to grant consent",
			"request_id", requestID,
			"user_id", req.UserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	h.handleKeyed(w, r, "check", h.consent.Check)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleKeyed(w, r, "revoke", h.consent.Revoke)
}

// handleKeyed serves the endpoints addressed by /{user_id}/{consent_type}.
func (h *Handler) handleKeyed(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(context.Context, string, models.ConsentType) (*models.Record, error),
) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id is required"))
		return
	}
	consentType, err := parseConsentType(chi.URLParam(r, "consent_type"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid consent type",
			"request_id", requestID,
			"operation", op,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	record, err := fn(ctx, userID, consentType)
	if err != nil {
		h.logger.ErrorContext(ctx, "consent "+op+" failed",
			"request_id", requestID,
			"user_id", userID,
			"consent_type", consentType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))

	records, err := h.consent.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list consents",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListResponse(userID, records))
}
