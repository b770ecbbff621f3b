package dispatch

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voicebridge/voicebridge/internal/tools"
)

func TestBuildMessages_TextOnly(t *testing.T) {
	pb := NewPromptBuilder("You are a test harness.")
	msgs, err := pb.BuildMessages("turn on the lights", "", tools.RequestContext{
		tools.CtxPrincipal: "alice",
		tools.CtxChannel:   "telegram",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs.Messages))
	}

	system := msgs.Messages[0].Content.(string)
	if !strings.Contains(system, "You are a test harness.") {
		t.Errorf("system prompt missing instructions: %q", system)
	}
	if !strings.Contains(system, "principal: alice") || !strings.Contains(system, "channel: telegram") {
		t.Errorf("system prompt missing request context: %q", system)
	}
	if !strings.Contains(system, "Current Time") {
		t.Errorf("system prompt missing current time: %q", system)
	}

	if msgs.Messages[1].Content != "turn on the lights" {
		t.Errorf("user content = %v", msgs.Messages[1].Content)
	}
}

func TestBuildMessages_AudioBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmd.mp3")
	payload := []byte{0x49, 0x44, 0x33, 0x04}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	msgs, err := NewPromptBuilder("").BuildMessages("context hint", path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocks, ok := msgs.Messages[1].Content.([]map[string]any)
	if !ok || len(blocks) != 2 {
		t.Fatalf("user content = %#v", msgs.Messages[1].Content)
	}
	if blocks[0]["type"] != "input_audio" {
		t.Errorf("first block = %v", blocks[0])
	}
	audio := blocks[0]["input_audio"].(map[string]any)
	if audio["format"] != "mp3" {
		t.Errorf("format = %v", audio["format"])
	}
	if audio["data"] != base64.StdEncoding.EncodeToString(payload) {
		t.Errorf("data not base64 of payload")
	}
	if blocks[1]["type"] != "text" || blocks[1]["text"] != "context hint" {
		t.Errorf("text block = %v", blocks[1])
	}
}

func TestBuildMessages_MissingAudioFile(t *testing.T) {
	_, err := NewPromptBuilder("").BuildMessages("x", "/nonexistent/audio.wav", nil)
	if err == nil {
		t.Error("expected error for unreadable audio path")
	}
}

func TestAudioFormat(t *testing.T) {
	cases := map[string]string{
		"a.mp3": "mp3", "b.OGG": "ogg", "c.webm": "webm",
		"d.m4a": "m4a", "e.wav": "wav", "f.bin": "wav",
	}
	for path, want := range cases {
		if got := audioFormat(path); got != want {
			t.Errorf("audioFormat(%q) = %q, want %q", path, got, want)
		}
	}
}
