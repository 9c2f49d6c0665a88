// Mock llama.cpp server for local runs and e2e checks. It implements the
// /health and /completion endpoints the guidance service calls.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "8080"
	defaultLatencyMs = "50"
)

type CompletionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop"`
}

type CompletionResponse struct {
	Content         string `json:"content"`
	TokensPredicted int    `json:"tokens_predicted"`
	Stop            bool   `json:"stop"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/completion", handleCompletion)

	log.Printf("mock llama server starting on port %s", port)
	log.Printf("simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Magic phrases in the final user turn let e2e checks drive failure paths:
//
//	"MOCK_FAIL"    responds 500
//	"MOCK_EMPTY"   responds with empty content
//	"MOCK_TIMEOUT" sleeps past any sane client timeout
func handleCompletion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	turn := lastUserTurn(req.Prompt)
	switch {
	case strings.Contains(turn, "MOCK_FAIL"):
		writeError(w, http.StatusInternalServerError, "internal_error", "simulated model failure")
		return
	case strings.Contains(turn, "MOCK_TIMEOUT"):
		time.Sleep(5 * time.Minute)
	case strings.Contains(turn, "MOCK_EMPTY"):
		writeJSON(w, http.StatusOK, CompletionResponse{Stop: true})
		return
	}

	content := fmt.Sprintf(" Take a slow breath in for four counts and out for six. "+
		"You asked about %q; start with one small practice today and notice how your body responds.", turn)
	writeJSON(w, http.StatusOK, CompletionResponse{
		Content:         content,
		TokensPredicted: len(strings.Fields(content)),
		Stop:            true,
	})
}

func lastUserTurn(prompt string) string {
	idx := strings.LastIndex(prompt, "User:")
	if idx < 0 {
		return strings.TrimSpace(prompt)
	}
	line := prompt[idx+len("User:"):]
	if end := strings.Index(line, "\n"); end >= 0 {
		line = line[:end]
	}
	return strings.TrimSpace(line)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg, Code: status})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key, def string) int {
	n, err := strconv.Atoi(getEnv(key, def))
	if err != nil {
		n, _ = strconv.Atoi(def)
	}
	return n
}
