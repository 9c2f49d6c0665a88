package handler

import "sofie/internal/guidance/models"

// ErrorGuidanceResponse is written for denied and failed requests. It carries
// the shared error envelope plus the remediation or fallback body.
type ErrorGuidanceResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	*models.Result
}
