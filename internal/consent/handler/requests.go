package handler

import (
	"strings"

	"sofie/internal/consent/models"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/validation"
)

// GrantRequest grants one consent type to a user.
type GrantRequest struct {
	UserID      string `json:"user_id" validate:"required,notblank,max=128"`
	ConsentType string `json:"consent_type" validate:"required"`
	Purpose     string `json:"purpose" validate:"max=512"`
}

// Sanitize trims whitespace from free-text fields.
func (r *GrantRequest) Sanitize() {
	if r == nil {
		return
	}
	r.UserID = strings.TrimSpace(r.UserID)
	r.Purpose = strings.TrimSpace(r.Purpose)
}

// Normalize lowercases the consent type so "Wellness_Guidance" is accepted.
func (r *GrantRequest) Normalize() {
	if r == nil {
		return
	}
	r.ConsentType = strings.ToLower(strings.TrimSpace(r.ConsentType))
}

// Validate checks that the request is well-formed.
func (r *GrantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if !models.ConsentType(r.ConsentType).IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid consent_type: "+r.ConsentType)
	}
	return nil
}

// parseConsentType validates a consent type taken from the URL.
func parseConsentType(raw string) (models.ConsentType, error) {
	t := models.ConsentType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid consent_type: "+raw)
	}
	return t, nil
}
