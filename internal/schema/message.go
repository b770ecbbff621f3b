// Package schema holds the shared wire types exchanged between the dispatch
// loop, the provider layer, and the server boundary. Concrete behaviour lives
// in the packages that own it; this package is plain data.
package schema

import "encoding/json"

// ToolCall represents one function call in an assistant message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToWireMap serialises a ToolCall into the OpenAI wire-format map.
// Used by provider implementations when building the JSON request body.
func (tc ToolCall) ToWireMap() map[string]any {
	argsJSON, _ := json.Marshal(tc.Arguments)
	return map[string]any{
		"id":   tc.ID,
		"type": "function",
		"function": map[string]any{
			"name":      tc.Name,
			"arguments": string(argsJSON),
		},
	}
}

// Message is one entry in the conversation sent to the model.
//
// Role is one of: "system", "user", "assistant", "tool".
//
// Content holds the message text or content blocks:
//   - system / tool: plain string
//   - user: string or []map[string]any (multimodal blocks, e.g. input_audio)
//   - assistant: *string (may be nil when only tool calls are present)
//
// ToolCalls is populated for assistant messages that invoke tools.
// ToolCallID and ToolName are set for tool-result messages.
type Message struct {
	Role       string
	Content    any
	ToolCalls  []ToolCall
	ToolCallID string // "tool" role only
	ToolName   string // "tool" role only
}
