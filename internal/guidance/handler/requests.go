package handler

import (
	"strings"

	"sofie/internal/guidance/models"
	dErrors "sofie/pkg/domain-errors"
	"sofie/pkg/validation"
)

// GuidanceRequest asks for guidance on behalf of a user.
type GuidanceRequest struct {
	UserID  string                  `json:"user_id" validate:"required,notblank,max=128"`
	Query   string                  `json:"query" validate:"required,notblank,max=2000"`
	History []models.Turn           `json:"history" validate:"max=100,dive"`
	Context *models.WellnessContext `json:"context"`
}

// Sanitize trims whitespace from free-text fields.
func (r *GuidanceRequest) Sanitize() {
	if r == nil {
		return
	}
	r.UserID = strings.TrimSpace(r.UserID)
	r.Query = strings.TrimSpace(r.Query)
	for i := range r.History {
		r.History[i].Role = strings.TrimSpace(r.History[i].Role)
		r.History[i].Content = strings.TrimSpace(r.History[i].Content)
	}
	if r.Context != nil {
		r.Context.Mood = strings.TrimSpace(r.Context.Mood)
		goals := r.Context.Goals[:0]
		for _, g := range r.Context.Goals {
			if g = strings.TrimSpace(g); g != "" {
				goals = append(goals, g)
			}
		}
		r.Context.Goals = goals
	}
}

// Validate checks that the request is well-formed.
func (r *GuidanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *GuidanceRequest) toModel() models.Request {
	return models.Request{
		UserID:  r.UserID,
		Query:   r.Query,
		History: r.History,
		Context: r.Context,
	}
}
