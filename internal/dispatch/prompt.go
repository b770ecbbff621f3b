package dispatch

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/voicebridge/voicebridge/internal/schema"
	"github.com/voicebridge/voicebridge/internal/tools"
)

// PromptBuilder assembles the message list for one dispatch. Each dispatch is
// a fresh single-shot exchange: there is no history to carry.
type PromptBuilder struct {
	instructions string
}

// NewPromptBuilder creates a PromptBuilder. instructions is the caller's
// standing system prompt; empty means the built-in default.
func NewPromptBuilder(instructions string) *PromptBuilder {
	if instructions == "" {
		instructions = defaultInstructions
	}
	return &PromptBuilder{instructions: instructions}
}

const defaultInstructions = `You are voicebridge, a voice-command assistant.

The user speaks a command; you receive it as text and/or audio. Work out what
the user wants, use the available tools to do it, and reply with one short
confirmation sentence. If the command is ambiguous, state the ambiguity
instead of guessing. Never mention tool names or internal details.`

// BuildMessages builds the system and user messages for a request.
// Request-scoped context values the model should condition on (acting user,
// origin channel) are serialised into the system prompt; the audio payload,
// if any, is embedded as a base64 input_audio content block.
func (pb *PromptBuilder) BuildMessages(prompt, audioPath string, req tools.RequestContext) (schema.Messages, error) {
	messages := schema.NewMessages()
	messages.AddSystem(pb.buildSystemPrompt(req))

	content, err := buildUserContent(prompt, audioPath)
	if err != nil {
		return schema.Messages{}, err
	}
	messages.AddUser(content)
	return messages, nil
}

func (pb *PromptBuilder) buildSystemPrompt(req tools.RequestContext) string {
	parts := []string{pb.instructions}

	now := time.Now().Format("2006-01-02 15:04 (Monday)")
	parts = append(parts, "## Current Time\n"+now)

	if len(req) > 0 {
		keys := make([]string, 0, len(req))
		for k := range req {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		sb.WriteString("## Request Context\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("%s: %v\n", k, req[k]))
		}
		parts = append(parts, strings.TrimRight(sb.String(), "\n"))
	}

	return strings.Join(parts, "\n\n")
}

// buildUserContent returns plain text, or content blocks embedding the audio
// payload when audioPath is set. The audio bytes are never inspected, only
// base64-wrapped for transport.
func buildUserContent(prompt, audioPath string) (any, error) {
	if audioPath == "" {
		return prompt, nil
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio payload: %w", err)
	}

	blocks := []map[string]any{
		{
			"type": "input_audio",
			"input_audio": map[string]any{
				"data":   base64.StdEncoding.EncodeToString(data),
				"format": audioFormat(audioPath),
			},
		},
	}
	if prompt != "" {
		blocks = append(blocks, map[string]any{"type": "text", "text": prompt})
	}
	return blocks, nil
}

// audioFormat maps a file extension to the vendor format label.
func audioFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "mp3"
	case ".ogg":
		return "ogg"
	case ".webm":
		return "webm"
	case ".m4a":
		return "m4a"
	default:
		return "wav"
	}
}
