package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest_MissingFile(t *testing.T) {
	defs, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing manifest must not error, got: %v", err)
	}
	if defs != nil {
		t.Errorf("defs = %v, want nil", defs)
	}
}

func TestLoadManifest_InvalidEntries(t *testing.T) {
	cases := []struct {
		name, yaml string
	}{
		{"missing url", "tools:\n  - name: x\n    description: d\n"},
		{"bad scheme", "tools:\n  - name: x\n    url: ftp://host/hook\n"},
		{"unknown kind", "tools:\n  - name: x\n    url: http://h/hook\n    params:\n      - name: p\n        kind: datetime\n"},
		{"not yaml", "tools: [\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := LoadManifest(writeManifest(t, c.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadManifest_WebhookRoundTrip(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte("door opened"))
	}))
	defer srv.Close()

	path := writeManifest(t, `
tools:
  - name: open_garage
    description: Open the garage door.
    url: `+srv.URL+`/hooks/garage
    params:
      - name: side
        kind: string
        enum: [left, right]
        default: left
`)

	defs, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 || defs[0].Name() != "open_garage" {
		t.Fatalf("defs = %v", defs)
	}

	result, err := defs[0].Invoke(context.Background(), map[string]any{},
		RequestContext{CtxPrincipal: "alice"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != "door opened" {
		t.Errorf("result = %q", result)
	}

	args, ok := gotBody["arguments"].(map[string]any)
	if !ok || args["side"] != "left" {
		t.Errorf("webhook arguments = %v, want side=left default", gotBody["arguments"])
	}
	if gotBody["principal"] != "alice" {
		t.Errorf("principal = %v", gotBody["principal"])
	}
}

func TestLoadManifest_WebhookFailureBecomesErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "hub offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	defs, err := LoadManifest(writeManifest(t, "tools:\n  - name: ping\n    url: "+srv.URL+"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	result, err := defs[0].Invoke(context.Background(), map[string]any{}, nil)
	if err != nil {
		t.Fatalf("webhook failure must not surface as error, got: %v", err)
	}
	if !strings.HasPrefix(result, "Error:") || !strings.Contains(result, "502") {
		t.Errorf("result = %q", result)
	}
}
