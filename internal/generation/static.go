package generation

import (
	"context"
	"fmt"
	"strings"
)

// Static returns canned guidance without a model. It lets the service run
// end to end in development when no llama server is configured.
type Static struct{}

func (Static) Generate(_ context.Context, p Params) (string, error) {
	query := lastUserLine(p.Prompt)
	if r := []rune(query); len(r) > 100 {
		query = string(r[:100]) + "..."
	}
	return fmt.Sprintf("[MOCK RESPONSE - no language model configured] "+
		"Thank you for your question: %q. To receive real guidance, "+
		"set LLAMA_SERVER_URL to a running llama.cpp server.", query), nil
}

func (Static) Available(context.Context) bool {
	return true
}

func lastUserLine(prompt string) string {
	idx := strings.LastIndex(prompt, "User:")
	if idx < 0 {
		return ""
	}
	line := prompt[idx+len("User:"):]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return strings.TrimSpace(line)
}
