package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func echoTool(t *testing.T) *Definition {
	t.Helper()
	return NewDefinition("echo", "Echoes its input.",
		NewSchema().String("text").MustBuild(),
		func(_ context.Context, args map[string]any, _ RequestContext) (string, error) {
			return args["text"].(string), nil
		})
}

func TestInvoke_Success(t *testing.T) {
	got, err := echoTool(t).Invoke(context.Background(), map[string]any{"text": "hi"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi" {
		t.Errorf("result = %q, want hi", got)
	}
}

func TestInvoke_CoercionFailureBecomesResult(t *testing.T) {
	got, err := echoTool(t).Invoke(context.Background(), map[string]any{}, nil)
	if err != nil {
		t.Fatalf("coercion failure must not surface as error, got: %v", err)
	}
	if !strings.HasPrefix(got, "Error:") {
		t.Errorf("result = %q, want Error: prefix", got)
	}
	if !strings.Contains(got, "text") {
		t.Errorf("result %q does not name the missing parameter", got)
	}
}

func TestInvoke_HandlerErrorBecomesResult(t *testing.T) {
	def := NewDefinition("boom", "Always fails.",
		NewSchema().MustBuild(),
		func(_ context.Context, _ map[string]any, _ RequestContext) (string, error) {
			return "", fmt.Errorf("disk on fire")
		})

	got, err := def.Invoke(context.Background(), map[string]any{}, nil)
	if err != nil {
		t.Fatalf("handler failure must not surface as error, got: %v", err)
	}
	if got != "Error: disk on fire" {
		t.Errorf("result = %q", got)
	}
}

func TestInvoke_CancellationPropagates(t *testing.T) {
	def := NewDefinition("slow", "Waits forever.",
		NewSchema().MustBuild(),
		func(ctx context.Context, _ map[string]any, _ RequestContext) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := def.Invoke(ctx, map[string]any{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestInvoke_RequestContextReachesHandler(t *testing.T) {
	def := NewDefinition("who", "Reports the principal.",
		NewSchema().MustBuild(),
		func(ctx context.Context, _ map[string]any, req RequestContext) (string, error) {
			if got := RequestFrom(ctx).Principal(); got != req.Principal() {
				return "", fmt.Errorf("context/request mismatch: %q vs %q", got, req.Principal())
			}
			return req.Principal(), nil
		})

	got, err := def.Invoke(context.Background(), map[string]any{},
		RequestContext{CtxPrincipal: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "alice" {
		t.Errorf("principal = %q, want alice", got)
	}
}

func TestDeriveName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"CreateTaskTool", "create_task"},
		{"WebSearchTool", "web_search"},
		{"RemindTool", "remind"},
		{"HTTPFetchTool", "http_fetch"},
		{"Notify", "notify"},
	}
	for _, c := range cases {
		if got := DeriveName(c.in); got != c.want {
			t.Errorf("DeriveName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFunctionSchema(t *testing.T) {
	fs := echoTool(t).FunctionSchema()
	if fs["name"] != "echo" {
		t.Errorf("name = %v", fs["name"])
	}
	if fs["description"] != "Echoes its input." {
		t.Errorf("description = %v", fs["description"])
	}
	params, ok := fs["parameters"].(map[string]any)
	if !ok || params["type"] != "object" {
		t.Errorf("parameters = %v", fs["parameters"])
	}
}
