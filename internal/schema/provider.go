package schema

import (
	"context"
	"errors"
)

// Sentinel errors providers wrap so the dispatch loop can classify failures
// without knowing vendor details.
var (
	// ErrRateLimit marks an HTTP 429 from the vendor.
	ErrRateLimit = errors.New("rate limited by model vendor")

	// ErrUnsupportedInput marks input the selected vendor cannot accept,
	// e.g. audio content on an API without audio support.
	ErrUnsupportedInput = errors.New("input not supported by model vendor")
)

// ChatOptions configures a single model request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

func NewChatOptions(model string, maxTokens int, temperature float64) ChatOptions {
	return ChatOptions{Model: model, MaxTokens: maxTokens, Temperature: temperature}
}

// ToolCallRequest is one tool invocation requested by the model.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ChatResponse is the normalised response from any model vendor.
type ChatResponse struct {
	Content      *string // nil when the response contains only tool calls
	ToolCalls    []ToolCallRequest
	FinishReason string
	Usage        map[string]int // "prompt_tokens", "completion_tokens", "total_tokens"
}

// HasToolCalls reports whether the response requests at least one tool call.
func (r ChatResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// ChatProvider is the interface every model backend must satisfy.
// tools carries the wire-format function schemas for this request.
type ChatProvider interface {
	Chat(ctx context.Context, messages Messages, tools []map[string]any, opts ChatOptions) (ChatResponse, error)
	DefaultModel() string
}
