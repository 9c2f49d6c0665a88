package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxResponseBytes bounds how much of a completion body is read.
const maxResponseBytes = 1 << 20

// LlamaConfig configures a LlamaClient.
type LlamaConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// LlamaClient talks to a llama.cpp server over its /completion and /health
// endpoints.
type LlamaClient struct {
	baseURL string
	client  HTTPDoer
	timeout time.Duration
}

// NewLlamaClient creates a client for the server at cfg.BaseURL.
func NewLlamaClient(cfg LlamaConfig) *LlamaClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &LlamaClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		timeout: cfg.Timeout,
	}
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type completionResponse struct {
	Content string `json:"content"`
}

const llamaBackend = "llama"

// Generate posts the prompt to /completion and returns the trimmed content.
func (c *LlamaClient) Generate(ctx context.Context, p Params) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      p.Prompt,
		NPredict:    p.MaxTokens,
		Temperature: p.Temperature,
		Stop:        p.Stop,
	})
	if err != nil {
		return "", NewError(ErrorInternal, llamaBackend, "failed to marshal request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", NewError(ErrorInternal, llamaBackend, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return "", NewError(ErrorTimeout, llamaBackend, "request timeout", err)
		}
		return "", NewError(ErrorOutage, llamaBackend, "failed to execute request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewError(ErrorBadResponse, llamaBackend, "failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewError(ErrorRateLimited, llamaBackend, "backend rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		return "", NewError(ErrorOutage, llamaBackend, fmt.Sprintf("backend unavailable: %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return "", NewError(ErrorBadResponse, llamaBackend, fmt.Sprintf("unexpected status: %d", resp.StatusCode), nil)
	}

	var out completionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", NewError(ErrorBadResponse, llamaBackend, "failed to parse response", err)
	}
	text := strings.TrimSpace(out.Content)
	if text == "" {
		return "", NewError(ErrorBadResponse, llamaBackend, "empty completion", nil)
	}
	return text, nil
}

// Available reports whether GET /health answers 200.
func (c *LlamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
