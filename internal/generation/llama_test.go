package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLlamaClientGenerate(t *testing.T) {
	t.Run("sends completion request and trims content", func(t *testing.T) {
		var got completionRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/completion", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(map[string]string{"content": "  Breathe slowly.  "})
		}))
		defer srv.Close()

		client := NewLlamaClient(LlamaConfig{BaseURL: srv.URL + "/"})
		text, err := client.Generate(context.Background(), Params{
			Prompt:      "User: hi\nSOFIE:",
			MaxTokens:   300,
			Temperature: 0.7,
			Stop:        DefaultStop,
		})

		require.NoError(t, err)
		assert.Equal(t, "Breathe slowly.", text)
		assert.Equal(t, "User: hi\nSOFIE:", got.Prompt)
		assert.Equal(t, 300, got.NPredict)
		assert.Equal(t, 0.7, got.Temperature)
		assert.Equal(t, []string{"User:", "\n\n"}, got.Stop)
	})

	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{"server error is an outage", http.StatusInternalServerError, `{}`, ErrorOutage},
		{"429 is rate limited", http.StatusTooManyRequests, `{}`, ErrorRateLimited},
		{"400 is a bad response", http.StatusBadRequest, `{}`, ErrorBadResponse},
		{"invalid json is a bad response", http.StatusOK, `{`, ErrorBadResponse},
		{"empty content is a bad response", http.StatusOK, `{"content": "   "}`, ErrorBadResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewLlamaClient(LlamaConfig{BaseURL: srv.URL}).Generate(context.Background(), Params{Prompt: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	t.Run("slow backend times out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewLlamaClient(LlamaConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).
			Generate(context.Background(), Params{Prompt: "x"})
		require.Error(t, err)
		assert.Equal(t, ErrorTimeout, KindOf(err))
	})

	t.Run("unreachable backend is an outage", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewLlamaClient(LlamaConfig{BaseURL: url}).Generate(context.Background(), Params{Prompt: "x"})
		assert.Equal(t, ErrorOutage, KindOf(err))
	})
}

func TestLlamaClientAvailable(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := NewLlamaClient(LlamaConfig{BaseURL: srv.URL})
	assert.True(t, client.Available(context.Background()))
	healthy = false
	assert.False(t, client.Available(context.Background()))
}
