package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sofie/pkg/domain-errors"
)

type queryRequest struct {
	UserID  string `json:"user_id"`
	Query   string `json:"query"`
	trimmed bool
}

func (r *queryRequest) Sanitize() {
	r.Query = strings.TrimSpace(r.Query)
	r.trimmed = true
}

func (r *queryRequest) Validate() error {
	if r.Query == "" {
		return errors.New("query is required")
	}
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing consent is forbidden", dErrors.New(dErrors.CodeMissingConsent, "grant consent first"), http.StatusForbidden, "missing_consent"},
		{"invalid consent is forbidden", dErrors.New(dErrors.CodeInvalidConsent, "revoked"), http.StatusForbidden, "invalid_consent"},
		{"generation failure is server error", dErrors.New(dErrors.CodeGenerationUnavailable, "backend down"), http.StatusInternalServerError, "generation_unavailable"},
		{"validation is bad request", dErrors.New(dErrors.CodeValidation, "query is required"), http.StatusBadRequest, "validation_error"},
		{"rate limited", dErrors.New(dErrors.CodeRateLimited, "slow down"), http.StatusTooManyRequests, "rate_limited"},
		{"plain error is internal", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Error)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("successful decode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"user_id":"u1","query":"calm"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[queryRequest](w, req, discardLogger(), ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "calm", result.Query)
	})

	t.Run("invalid JSON returns bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{invalid`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[queryRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w).Error)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		big := `{"query":"` + strings.Repeat("a", MaxBodySize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(big))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[queryRequest](w, req, discardLogger(), ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	ctx := context.Background()

	t.Run("sanitizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"user_id":"u1","query":"  sleep  "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[queryRequest](w, req, discardLogger(), ctx, "req-1")

		require.True(t, ok)
		assert.True(t, result.trimmed)
		assert.Equal(t, "sleep", result.Query)
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"user_id":"u1","query":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[queryRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		resp := decodeError(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Contains(t, resp.ErrorDescription, "query is required")
	})

	t.Run("domain error code is preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"query":"rest"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[queryRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w).Error)
	})
}
