package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sofie/pkg/domain-errors"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func TestNewGrant(t *testing.T) {
	rec, err := NewGrant("u1", TypeWellnessGuidance, "daily guidance", t0, DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, rec.Status)
	assert.Equal(t, t0, *rec.GrantedAt)
	assert.Equal(t, t0.Add(24*time.Hour), *rec.ExpiresAt)
	assert.Nil(t, rec.RevokedAt)

	_, err = NewGrant("", TypeWellnessGuidance, "", t0, DefaultTTL)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewGrant("u1", "marketing", "", t0, DefaultTTL)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewGrant("u1", TypeWellnessGuidance, "", t0, 0)
	assert.Error(t, err)
}

func TestEffectiveStatus(t *testing.T) {
	rec, err := NewGrant("u1", TypeWellnessGuidance, "", t0, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, StatusGranted, rec.EffectiveStatus(t0.Add(time.Hour)), "expiry instant itself is still valid")
	assert.Equal(t, StatusExpired, rec.EffectiveStatus(t0.Add(time.Hour+time.Nanosecond)))
	assert.False(t, rec.IsGranted(t0.Add(2*time.Hour)))

	rec.Revoke(t0.Add(time.Minute))
	assert.Equal(t, StatusRevoked, rec.EffectiveStatus(t0.Add(2*time.Hour)), "revocation is never reported as expiry")
}

func TestRevoke_IsIdempotent(t *testing.T) {
	rec, err := NewGrant("u1", TypeWellnessGuidance, "", t0, time.Hour)
	require.NoError(t, err)

	assert.True(t, rec.Revoke(t0.Add(time.Minute)))
	first := *rec.RevokedAt
	assert.False(t, rec.Revoke(t0.Add(2*time.Minute)))
	assert.Equal(t, first, *rec.RevokedAt)
	assert.Equal(t, t0, *rec.GrantedAt, "revoke keeps the grant timestamp")
}

func TestClone_DoesNotShareTimestamps(t *testing.T) {
	rec, err := NewGrant("u1", TypeWellnessGuidance, "", t0, time.Hour)
	require.NoError(t, err)

	c := rec.Clone()
	*c.ExpiresAt = t0
	assert.Equal(t, t0.Add(time.Hour), *rec.ExpiresAt)
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestDenied(t *testing.T) {
	rec := Denied("u1", TypeWellnessGuidance)
	assert.Equal(t, StatusDenied, rec.Status)
	assert.Nil(t, rec.GrantedAt)
	assert.True(t, StatusDenied.IsValid())
	assert.False(t, Status("active").IsValid())
}
