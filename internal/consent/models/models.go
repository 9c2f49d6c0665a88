package models

import (
	"strings"
	"time"

	dErrors "sofie/pkg/domain-errors"
)

// DefaultTTL is how long a grant stays valid when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Record is the single consent decision a user holds for one consent type.
//
// At most one Record exists per (UserID, Type). Granting replaces it
// entirely; revoking mutates it in place and keeps GrantedAt for the audit
// trail. A granted record read after ExpiresAt is expired for every reader,
// which EffectiveStatus enforces regardless of what the store holds.
type Record struct {
	UserID    string
	Type      ConsentType
	Status    Status
	Purpose   string
	GrantedAt *time.Time
	ExpiresAt *time.Time
	RevokedAt *time.Time
}

// NewGrant builds a fresh granted record valid for ttl from now.
func NewGrant(userID string, consentType ConsentType, purpose string, now time.Time, ttl time.Duration) (*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID required")
	}
	if !consentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid consent type")
	}
	if now.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grant time required")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consent TTL must be positive")
	}
	grantedAt := now
	expiresAt := now.Add(ttl)
	return &Record{
		UserID:    userID,
		Type:      consentType,
		Status:    StatusGranted,
		Purpose:   purpose,
		GrantedAt: &grantedAt,
		ExpiresAt: &expiresAt,
	}, nil
}

// Denied is the transient answer for a user with no stored record. It is
// never persisted.
func Denied(userID string, consentType ConsentType) *Record {
	return &Record{UserID: userID, Type: consentType, Status: StatusDenied}
}

// EffectiveStatus reports the status a reader must observe at now.
func (r Record) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusGranted && r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return StatusExpired
	}
	return r.Status
}

// IsGranted is true only for an unexpired granted record.
func (r Record) IsGranted(now time.Time) bool {
	return r.EffectiveStatus(now) == StatusGranted
}

// Revoke marks the record revoked. It reports false when the record was
// already revoked so a second revoke is a no-op.
func (r *Record) Revoke(now time.Time) bool {
	if r.Status == StatusRevoked {
		return false
	}
	revokedAt := now
	r.Status = StatusRevoked
	r.RevokedAt = &revokedAt
	return true
}

// Clone returns a deep copy so callers never share timestamps with a store.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.GrantedAt = cloneTime(r.GrantedAt)
	c.ExpiresAt = cloneTime(r.ExpiresAt)
	c.RevokedAt = cloneTime(r.RevokedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
