package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofie/internal/evidence/library"
	"sofie/internal/evidence/models"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := library.New(&library.FSSource{FS: fstest.MapFS{
		"sofie_calm.json": {Data: []byte(`{
			"protocols": [{"id": "box", "label": "Box breathing", "purpose": "calm stress"}],
			"measuredRegistry": [{"id": "box", "hz": 6}]
		}`)},
	}, Name: "test"}, library.WithLogger(logger))
	require.NoError(t, lib.Load(context.Background()))

	r := chi.NewRouter()
	New(lib, logger).Register(r)
	return r
}

func TestSearch(t *testing.T) {
	r := newRouter(t)

	t.Run("returns ranked hits", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/evidence/search?q=stress&top_k=2", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var body SearchResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		require.Len(t, body.Hits, 1)
		assert.Equal(t, "box", body.Hits[0].Record.ID)
		assert.Equal(t, models.KindProtocol, body.Hits[0].Record.Kind)
	})

	t.Run("missing query is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/evidence/search", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad top_k is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/evidence/search?q=x&top_k=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTone(t *testing.T) {
	r := newRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/evidence/tone/box", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var cmd models.ToneCommand
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cmd))
	assert.Equal(t, 6.0, cmd.HZ)
	assert.Equal(t, "sine", cmd.Waveform)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/evidence/tone/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
