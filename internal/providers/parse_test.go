package providers

import (
	"reflect"
	"testing"
)

func TestParseOpenAIResponse_ToolCalls(t *testing.T) {
	raw := []byte(`{
		"choices": [{
			"message": {
				"content": null,
				"tool_calls": [{
					"id": "call_1",
					"function": {"name": "create_task", "arguments": "{\"title\": \"buy milk\"}"}
				}]
			},
			"finish_reason": "tool_calls"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`)

	resp, err := parseOpenAIResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != nil {
		t.Errorf("content = %v, want nil", *resp.Content)
	}
	if !resp.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "create_task" {
		t.Errorf("tool call = %+v", tc)
	}
	if !reflect.DeepEqual(tc.Arguments, map[string]any{"title": "buy milk"}) {
		t.Errorf("arguments = %v", tc.Arguments)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("finish = %q", resp.FinishReason)
	}
	if resp.Usage["total_tokens"] != 15 {
		t.Errorf("usage = %v", resp.Usage)
	}
}

func TestParseOpenAIResponse_PlainContent(t *testing.T) {
	raw := []byte(`{"choices": [{"message": {"content": "done"}}]}`)
	resp, err := parseOpenAIResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content == nil || *resp.Content != "done" {
		t.Errorf("content = %v", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish = %q, want stop fallback", resp.FinishReason)
	}
}

func TestParseOpenAIResponse_EmptyChoices(t *testing.T) {
	if _, err := parseOpenAIResponse([]byte(`{"choices": []}`)); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestParseOpenAIResponse_TruncatedArguments(t *testing.T) {
	raw := []byte(`{
		"choices": [{
			"message": {
				"tool_calls": [{
					"id": "c",
					"function": {"name": "t", "arguments": "{\"title\": \"x\""}
				}]
			}
		}]
	}`)
	resp, err := parseOpenAIResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The repaired arguments must still parse into a usable map.
	if resp.ToolCalls[0].Arguments["title"] != "x" {
		t.Errorf("arguments = %v", resp.ToolCalls[0].Arguments)
	}
}

func TestParseAnthropicResponse(t *testing.T) {
	raw := []byte(`{
		"content": [
			{"type": "text", "text": "Creating it now."},
			{"type": "tool_use", "id": "tu_1", "name": "create_task", "input": {"title": "buy milk"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 8, "output_tokens": 4}
	}`)

	resp, err := parseAnthropicResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content == nil || *resp.Content != "Creating it now." {
		t.Errorf("content = %v", resp.Content)
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "tu_1" || tc.Name != "create_task" || tc.Arguments["title"] != "buy milk" {
		t.Errorf("tool call = %+v", tc)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("finish = %q", resp.FinishReason)
	}
	if resp.Usage["total_tokens"] != 12 {
		t.Errorf("usage = %v", resp.Usage)
	}
}

func TestParseAnthropicResponse_EndTurn(t *testing.T) {
	raw := []byte(`{"content": [{"type": "text", "text": "ok"}], "stop_reason": "end_turn"}`)
	resp, err := parseAnthropicResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish = %q", resp.FinishReason)
	}
}

func TestRepairJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"valid", `{"a": 1}`, map[string]any{"a": 1.0}},
		{"empty", "", map[string]any{}},
		{"missing brace", `{"a": "b"`, map[string]any{"a": "b"}},
		{"trailing garbage", `{"a": "b"} extra`, map[string]any{"a": "b"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := repairJSON(c.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("repairJSON(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}

	if _, err := repairJSON("not json at all"); err == nil {
		t.Error("expected error for unrepairable input")
	}
}
