package handler

import (
	"time"

	"sofie/internal/consent/models"
)

// RecordResponse is the wire form of a consent record.
type RecordResponse struct {
	UserID      string             `json:"user_id"`
	ConsentType models.ConsentType `json:"consent_type"`
	Status      models.Status      `json:"status"`
	Purpose     string             `json:"purpose,omitempty"`
	GrantedAt   *time.Time         `json:"granted_at"`
	ExpiresAt   *time.Time         `json:"expires_at"`
	RevokedAt   *time.Time         `json:"revoked_at,omitempty"`
}

// ListResponse is returned when listing a user's consents.
type ListResponse struct {
	UserID   string            `json:"user_id"`
	Consents []*RecordResponse `json:"consents"`
}

func toRecordResponse(r *models.Record) *RecordResponse {
	return &RecordResponse{
		UserID:      r.UserID,
		ConsentType: r.Type,
		Status:      r.Status,
		Purpose:     r.Purpose,
		GrantedAt:   r.GrantedAt,
		ExpiresAt:   r.ExpiresAt,
		RevokedAt:   r.RevokedAt,
	}
}

func toListResponse(userID string, records []*models.Record) *ListResponse {
	out := &ListResponse{UserID: userID, Consents: make([]*RecordResponse, 0, len(records))}
	for _, r := range records {
		out.Consents = append(out.Consents, toRecordResponse(r))
	}
	return out
}
