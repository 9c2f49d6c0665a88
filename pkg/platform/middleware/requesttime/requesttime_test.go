package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_TimeIsConsistentWithinRequest(t *testing.T) {
	var firstRead, secondRead time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstRead = Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		secondRead = Now(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, firstRead, secondRead)
	assert.False(t, firstRead.Before(before.Add(-time.Millisecond)))
	assert.Equal(t, time.UTC, firstRead.Location())
}

func TestWithTime_OverridesNow(t *testing.T) {
	fixed := time.Date(2025, 6, 21, 8, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))
}

func TestNow_FallsBackToWallClock(t *testing.T) {
	got := Now(context.Background())
	assert.WithinDuration(t, time.Now(), got, time.Second)
}
