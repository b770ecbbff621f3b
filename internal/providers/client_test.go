package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicebridge/voicebridge/internal/schema"
)

func testClient(t *testing.T, vendor, base string) *Client {
	t.Helper()
	p, err := New(Params{Vendor: vendor, APIKey: "test-key", APIBase: base, DefaultModel: "test-model"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p.(*Client)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Params{Vendor: "openai", DefaultModel: "m"}); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := New(Params{Vendor: "openai", APIKey: "k"}); err == nil {
		t.Error("expected error for missing default model")
	}
}

func TestChat_OpenAIRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "hi"}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, "openai", srv.URL)
	msgs := schema.NewMessages()
	msgs.AddSystem("sys")
	msgs.AddUser("do it")

	wireTools := []map[string]any{{"type": "function", "function": map[string]any{"name": "t"}}}
	resp, err := c.Chat(context.Background(), msgs, wireTools, schema.NewChatOptions("", 0, 0.5))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content == nil || *resp.Content != "hi" {
		t.Errorf("content = %v", resp.Content)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v, want default fallback", gotBody["model"])
	}
	if gotBody["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v", gotBody["tool_choice"])
	}
	if _, ok := gotBody["tools"]; !ok {
		t.Error("tools missing from request body")
	}
}

func TestChat_RateLimitWrapsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, "openai", srv.URL)
	_, err := c.Chat(context.Background(), schema.NewMessages(), nil, schema.ChatOptions{})
	if !errors.Is(err, schema.ErrRateLimit) {
		t.Errorf("error = %v, want ErrRateLimit", err)
	}
}

func TestChat_HTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, "openai", srv.URL)
	_, err := c.Chat(context.Background(), schema.NewMessages(), nil, schema.ChatOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestChat_AnthropicWireFormat(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}], "stop_reason": "end_turn"}`))
	}))
	defer srv.Close()

	c := testClient(t, "anthropic", srv.URL)
	msgs := schema.NewMessages()
	msgs.AddSystem("be terse")
	msgs.AddUser("go")

	wireTools := []map[string]any{{
		"type": "function",
		"function": map[string]any{
			"name":        "t",
			"description": "d",
			"parameters":  map[string]any{"type": "object"},
		},
	}}
	if _, err := c.Chat(context.Background(), msgs, wireTools, schema.ChatOptions{}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	if gotPath != "/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotBody["system"] != "be terse" {
		t.Errorf("system = %v", gotBody["system"])
	}
	toolsBody := gotBody["tools"].([]any)
	first := toolsBody[0].(map[string]any)
	if first["name"] != "t" {
		t.Errorf("tool = %v", first)
	}
	if _, ok := first["input_schema"]; !ok {
		t.Error("input_schema missing; parameters were not renamed")
	}
}

func TestChat_AnthropicRejectsAudio(t *testing.T) {
	c := testClient(t, "anthropic", "http://unused.invalid")
	msgs := schema.NewMessages()
	msgs.AddUser([]map[string]any{{
		"type":        "input_audio",
		"input_audio": map[string]any{"data": "AAAA", "format": "wav"},
	}})

	_, err := c.Chat(context.Background(), msgs, nil, schema.ChatOptions{})
	if !errors.Is(err, schema.ErrUnsupportedInput) {
		t.Errorf("error = %v, want ErrUnsupportedInput", err)
	}
}

func TestConvertMessagesToAnthropic_MergesToolResults(t *testing.T) {
	msgs := schema.NewMessages()
	msgs.AddUser("go")
	content := "running"
	msgs.AddAssistant(&content, []schema.ToolCall{
		{ID: "a", Name: "t1", Arguments: map[string]any{}},
		{ID: "b", Name: "t2", Arguments: map[string]any{}},
	})
	msgs.AddToolResult("a", "t1", "r1")
	msgs.AddToolResult("b", "t2", "r2")

	system, out := convertMessagesToAnthropic(msgs)
	if system != "" {
		t.Errorf("system = %q", system)
	}
	if len(out) != 3 {
		t.Fatalf("messages = %d, want 3 (user, assistant, merged results)", len(out))
	}
	results := out[2]["content"].([]any)
	if len(results) != 2 {
		t.Errorf("merged tool results = %d, want 2", len(results))
	}
}
