package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofie/internal/consent/models"
	"sofie/pkg/platform/sentinel"
)

func TestInMemoryStoreOperations(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	record, err := models.NewGrant("user-1", models.TypeWellnessGuidance, "guidance", now, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record))

	fetched, err := store.Find(ctx, "user-1", models.TypeWellnessGuidance)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGranted, fetched.Status)

	// mutating the fetched copy must not leak into the store
	*fetched.ExpiresAt = now
	fetched.Status = models.StatusRevoked
	again, err := store.Find(ctx, "user-1", models.TypeWellnessGuidance)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGranted, again.Status)
	assert.Equal(t, now.Add(time.Hour), *again.ExpiresAt)

	// overwrite replaces the record entirely
	regrant, err := models.NewGrant("user-1", models.TypeWellnessGuidance, "", now.Add(time.Minute), 2*time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, regrant))
	again, err = store.Find(ctx, "user-1", models.TypeWellnessGuidance)
	require.NoError(t, err)
	assert.Empty(t, again.Purpose)
	assert.Equal(t, now.Add(time.Minute+2*time.Hour), *again.ExpiresAt)

	other, err := models.NewGrant("user-1", models.TypeAIInference, "", now, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, other))
	list, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.TypeAIInference, list[0].Type)

	_, err = store.Find(ctx, "nobody", models.TypeWellnessGuidance)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	list, err = store.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, store.Health(ctx))
}
