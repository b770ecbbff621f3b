package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/voicebridge/voicebridge/internal/schema"
)

// Client makes direct HTTP calls to an OpenAI-compatible endpoint, with the
// Anthropic Messages API handled as a separate wire path.
type Client struct {
	apiKey       string
	apiBase      string
	defaultModel string
	extraHeaders map[string]string
	isAnthropic  bool
	httpClient   *http.Client
}

func (c *Client) DefaultModel() string { return c.defaultModel }

// Chat implements schema.ChatProvider.
func (c *Client) Chat(ctx context.Context, messages schema.Messages, tools []map[string]any, opts schema.ChatOptions) (schema.ChatResponse, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	if c.isAnthropic {
		return c.chatAnthropic(ctx, messages, tools, model, maxTokens, opts.Temperature)
	}
	return c.chatOpenAI(ctx, messages, tools, model, maxTokens, opts.Temperature)
}

func (c *Client) chatOpenAI(ctx context.Context, messages schema.Messages, tools []map[string]any, model string, maxTokens int, temperature float64) (schema.ChatResponse, error) {
	body := map[string]any{
		"model":       model,
		"messages":    wireMessages(messages),
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}
	if len(tools) > 0 {
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}

	raw, err := c.post(ctx, "/chat/completions", body, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	})
	if err != nil {
		return schema.ChatResponse{}, err
	}
	return parseOpenAIResponse(raw)
}

func (c *Client) chatAnthropic(ctx context.Context, messages schema.Messages, tools []map[string]any, model string, maxTokens int, temperature float64) (schema.ChatResponse, error) {
	if hasAudioContent(messages) {
		return schema.ChatResponse{}, fmt.Errorf("anthropic messages api: audio content: %w", schema.ErrUnsupportedInput)
	}

	system, converted := convertMessagesToAnthropic(messages)
	body := map[string]any{
		"model":       model,
		"messages":    converted,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}
	if system != "" {
		body["system"] = system
	}
	if len(tools) > 0 {
		body["tools"] = convertToolsToAnthropic(tools)
	}

	raw, err := c.post(ctx, "/messages", body, func(req *http.Request) {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	})
	if err != nil {
		return schema.ChatResponse{}, err
	}
	return parseAnthropicResponse(raw)
}

// post marshals body, issues the request, and returns the response bytes.
// Non-200 statuses become errors; 429 wraps schema.ErrRateLimit so callers
// can classify it.
func (c *Client) post(ctx context.Context, path string, body map[string]any, auth func(*http.Request)) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	auth(req)
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("HTTP 429: %w", schema.ErrRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, trimBody(raw))
	}
	return raw, nil
}

// wireMessages converts typed messages to the OpenAI wire format.
func wireMessages(messages schema.Messages) []map[string]any {
	out := make([]map[string]any, 0, len(messages.Messages))
	for _, m := range messages.Messages {
		wire := map[string]any{
			"role":    m.Role,
			"content": m.Content,
		}
		if m.Role == "assistant" && len(m.ToolCalls) > 0 {
			raw := make([]map[string]any, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				raw[i] = tc.ToWireMap()
			}
			wire["tool_calls"] = raw
		}
		if m.Role == "tool" {
			wire["tool_call_id"] = m.ToolCallID
			wire["name"] = m.ToolName
		}
		out = append(out, wire)
	}
	return out
}

// hasAudioContent reports whether any user message carries an input_audio block.
func hasAudioContent(messages schema.Messages) bool {
	for _, m := range messages.Messages {
		blocks, ok := m.Content.([]map[string]any)
		if !ok {
			continue
		}
		for _, b := range blocks {
			if b["type"] == "input_audio" {
				return true
			}
		}
	}
	return false
}

// convertMessagesToAnthropic splits out the system prompt and converts the
// rest to Anthropic's block format. Consecutive tool results are merged into
// one user message, as the API requires.
func convertMessagesToAnthropic(messages schema.Messages) (string, []map[string]any) {
	var system string
	var out []map[string]any

	for _, msg := range messages.Messages {
		switch msg.Role {
		case "system":
			if s, ok := msg.Content.(string); ok {
				if system != "" {
					system += "\n\n"
				}
				system += s
			}

		case "user":
			out = append(out, map[string]any{"role": "user", "content": msg.Content})

		case "tool":
			block := map[string]any{
				"type":        "tool_result",
				"tool_use_id": msg.ToolCallID,
				"content":     anyToString(msg.Content),
			}
			if len(out) > 0 && out[len(out)-1]["role"] == "user" {
				prev := out[len(out)-1]
				if c, ok := prev["content"].([]any); ok {
					prev["content"] = append(c, block)
					continue
				}
			}
			out = append(out, map[string]any{"role": "user", "content": []any{block}})

		case "assistant":
			var blocks []any
			switch s := msg.Content.(type) {
			case *string:
				if s != nil && *s != "" {
					blocks = append(blocks, map[string]any{"type": "text", "text": *s})
				}
			case string:
				if s != "" {
					blocks = append(blocks, map[string]any{"type": "text", "text": s})
				}
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": tc.Arguments,
				})
			}
			if len(blocks) == 0 {
				blocks = []any{map[string]any{"type": "text", "text": ""}}
			}
			out = append(out, map[string]any{"role": "assistant", "content": blocks})
		}
	}
	return system, out
}

// convertToolsToAnthropic renames "parameters" to "input_schema".
func convertToolsToAnthropic(tools []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		fn, _ := t["function"].(map[string]any)
		if fn == nil {
			continue
		}
		out = append(out, map[string]any{
			"name":         fn["name"],
			"description":  fn["description"],
			"input_schema": fn["parameters"],
		})
	}
	return out
}

func anyToString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func trimBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
