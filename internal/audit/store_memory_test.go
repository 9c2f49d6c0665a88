package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreBounds(t *testing.T) {
	ctx := context.Background()

	t.Run("unbounded by default", func(t *testing.T) {
		store := NewInMemoryStore()
		for i := 0; i < 50; i++ {
			require.NoError(t, store.Append(ctx, Event{UserID: "u1", Action: fmt.Sprintf("a%d", i)}))
		}
		assert.Len(t, store.Actions("u1"), 50)
	})

	t.Run("keeps newest events per user", func(t *testing.T) {
		store := NewInMemoryStore(WithMaxEventsPerUser(3))
		for i := 0; i < 10; i++ {
			require.NoError(t, store.Append(ctx, Event{UserID: "u1", Action: fmt.Sprintf("a%d", i)}))
		}
		assert.Equal(t, []string{"a7", "a8", "a9"}, store.Actions("u1"))
	})

	t.Run("evicts least recently written user", func(t *testing.T) {
		store := NewInMemoryStore(WithMaxUsers(2))
		require.NoError(t, store.Append(ctx, Event{UserID: "u1", Action: "consent_granted"}))
		require.NoError(t, store.Append(ctx, Event{UserID: "u2", Action: "consent_granted"}))
		require.NoError(t, store.Append(ctx, Event{UserID: "u1", Action: "consent_check_passed"}))
		require.NoError(t, store.Append(ctx, Event{UserID: "u3", Action: "consent_granted"}))

		events, err := store.ListByUser(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, []string{"consent_granted", "consent_check_passed"}, store.Actions("u1"))
		assert.Equal(t, []string{"consent_granted"}, store.Actions("u3"))
	})

	t.Run("many guidance checks stay bounded", func(t *testing.T) {
		store := NewInMemoryStore(WithMaxEventsPerUser(5), WithMaxUsers(10))
		for i := 0; i < 1000; i++ {
			user := fmt.Sprintf("user-%d", i%100)
			require.NoError(t, store.Append(ctx, Event{UserID: user, Action: "consent_check_passed"}))
		}
		store.mu.RLock()
		defer store.mu.RUnlock()
		assert.Len(t, store.events, 10)
		assert.Len(t, store.order, 10)
		for _, events := range store.events {
			assert.LessOrEqual(t, len(events), 5)
		}
	})
}
