// Package dispatch runs the model↔tool loop that turns one voice command
// into executed actions and a final confirmation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/schema"
	"github.com/voicebridge/voicebridge/internal/shared/llmutils"
	"github.com/voicebridge/voicebridge/internal/tools"
)

const (
	// DefaultMaxTurns bounds model round-trips per dispatch. Each turn is
	// one Chat call; a turn that requests tools is followed by another.
	DefaultMaxTurns = 6

	// DefaultCallTimeout bounds a single provider call.
	DefaultCallTimeout = 120 * time.Second
)

// Settings are the per-dispatcher knobs, normally sourced from config.
// Zero values fall back to the package defaults.
type Settings struct {
	Model       string // empty: provider's default model
	MaxTokens   int
	Temperature float64
	MaxTurns    int
	CallTimeout time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.MaxTurns <= 0 {
		s.MaxTurns = DefaultMaxTurns
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = DefaultCallTimeout
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 4096
	}
	return s
}

// Request is one command to process. Prompt and AudioPath may both be set;
// at least one must be. Selector, when non-nil, narrows the tool set for
// this request. OnProgress, when non-nil, receives short human-readable
// status lines while the dispatch runs.
type Request struct {
	Prompt     string
	AudioPath  string
	Context    tools.RequestContext
	Selector   tools.Selector
	OnProgress func(string)
}

func (r Request) progress(line string) {
	if r.OnProgress != nil && line != "" {
		r.OnProgress(line)
	}
}

// Dispatcher owns the command-processing loop. One Dispatcher serves all
// requests; every Process call is independent and carries no shared state,
// so concurrent calls are safe.
type Dispatcher struct {
	provider schema.ChatProvider
	registry *tools.Registry
	prompts  *PromptBuilder
	settings Settings
	log      *slog.Logger
}

// NewDispatcher wires a Dispatcher. logger may be nil for slog's default.
func NewDispatcher(provider schema.ChatProvider, registry *tools.Registry, prompts *PromptBuilder, settings Settings, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		provider: provider,
		registry: registry,
		prompts:  prompts,
		settings: settings.withDefaults(),
		log:      logger,
	}
}

// Process runs one command to completion and always returns a Result — never
// an error, never a panic. Failures are classified into Result.ErrorKind with
// a short non-technical message; details go to the log.
func (d *Dispatcher) Process(ctx context.Context, req Request) (res schema.Result) {
	start := time.Now()
	requestID := req.Context.String(tools.CtxRequestID)

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatch panicked", "request_id", requestID, "panic", r)
			res = schema.Failure(schema.ErrInternal, "Something went wrong while processing the command.")
		}
		if res.Metadata == nil {
			res.Metadata = &schema.Metadata{}
		}
		res.Metadata.TotalDurationMs = time.Since(start).Milliseconds()
	}()

	if req.Prompt == "" && req.AudioPath == "" {
		return schema.Failure(schema.ErrConfiguration, "The command was empty.")
	}

	defs, err := d.registry.Resolve(req.Context, req.Selector)
	if err != nil {
		d.log.Error("tool resolution failed", "request_id", requestID, "error", err)
		return schema.Failure(schema.ErrConfiguration, "The assistant is misconfigured; no tools are available.")
	}
	wireTools := tools.Definitions(defs)

	byName := make(map[string]*tools.Definition, len(defs))
	for _, def := range defs {
		byName[def.Name()] = def
	}

	messages, err := d.prompts.BuildMessages(req.Prompt, req.AudioPath, req.Context)
	if err != nil {
		d.log.Error("building messages failed", "request_id", requestID, "error", err)
		return schema.Failure(schema.ErrInternal, "The audio payload could not be read.")
	}

	model := d.settings.Model
	if model == "" {
		model = d.provider.DefaultModel()
	}
	opts := schema.NewChatOptions(model, d.settings.MaxTokens, d.settings.Temperature)

	var apiDuration time.Duration
	for turn := 1; turn <= d.settings.MaxTurns; turn++ {
		callStart := time.Now()
		resp, err := d.chat(ctx, messages, wireTools, opts)
		apiDuration += time.Since(callStart)
		meta := &schema.Metadata{TurnCount: turn, APIDurationMs: apiDuration.Milliseconds()}

		if err != nil {
			kind, msg := classifyCallError(ctx, err)
			d.log.Error("provider call failed",
				"request_id", requestID, "turn", turn, "kind", kind, "error", err)
			res := schema.Failure(kind, msg)
			res.Metadata = meta
			return res
		}

		if !resp.HasToolCalls() {
			content := ""
			if resp.Content != nil {
				content = llmutils.StripThink(*resp.Content)
			}
			content = llmutils.StringOrDefault(content, "Done.")
			d.log.Info("dispatch finished",
				"request_id", requestID, "turns", turn,
				"api_ms", apiDuration.Milliseconds())
			return schema.Result{Success: true, Message: content, Metadata: meta}
		}

		calls := normaliseCalls(resp.ToolCalls)
		messages.AddAssistant(resp.Content, calls)
		req.progress(llmutils.ToolHint(resp.ToolCalls))

		// Execute sequentially in the order the model requested: later
		// calls may depend on the side effects of earlier ones.
		for _, call := range calls {
			result, err := d.execute(ctx, byName, call, req.Context)
			if err != nil {
				kind, msg := classifyCallError(ctx, err)
				d.log.Warn("tool interrupted",
					"request_id", requestID, "tool", call.Name, "kind", kind)
				res := schema.Failure(kind, msg)
				res.Metadata = meta
				return res
			}
			d.log.Debug("tool executed",
				"request_id", requestID, "tool", call.Name,
				"result", llmutils.Truncate(result, 200))
			messages.AddToolResult(call.ID, call.Name, result)
		}
	}

	d.log.Warn("turn limit exceeded", "request_id", requestID, "max_turns", d.settings.MaxTurns)
	res = schema.Failure(schema.ErrTurnLimit, "The command needed more steps than allowed and was stopped.")
	res.Metadata = &schema.Metadata{TurnCount: d.settings.MaxTurns, APIDurationMs: apiDuration.Milliseconds()}
	return res
}

// chat performs one provider round-trip under the per-call timeout.
func (d *Dispatcher) chat(ctx context.Context, messages schema.Messages, wireTools []map[string]any, opts schema.ChatOptions) (schema.ChatResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.settings.CallTimeout)
	defer cancel()
	return d.provider.Chat(callCtx, messages, wireTools, opts)
}

// execute runs one requested tool. An unknown name produces a readable error
// result the model can recover from on the next turn; only cancellation comes
// back as a real error.
func (d *Dispatcher) execute(ctx context.Context, byName map[string]*tools.Definition, call schema.ToolCall, reqCtx tools.RequestContext) (string, error) {
	def, ok := byName[call.Name]
	if !ok {
		return fmt.Sprintf("Error: Tool '%s' not found", call.Name), nil
	}
	return def.Invoke(ctx, call.Arguments, reqCtx)
}

// normaliseCalls converts provider tool-call requests into conversation
// entries, assigning IDs where the vendor sent none so tool results can
// always be correlated.
func normaliseCalls(reqs []schema.ToolCallRequest) []schema.ToolCall {
	calls := make([]schema.ToolCall, 0, len(reqs))
	for _, r := range reqs {
		id := r.ID
		if id == "" {
			id = "call_" + uuid.NewString()[:8]
		}
		args := r.Arguments
		if args == nil {
			args = map[string]any{}
		}
		calls = append(calls, schema.ToolCall{ID: id, Name: r.Name, Arguments: args})
	}
	return calls
}

// classifyCallError maps a provider or tool error to an error kind and a
// user-facing message.
func classifyCallError(ctx context.Context, err error) (schema.ErrorKind, string) {
	switch {
	case ctx.Err() == context.Canceled || errors.Is(err, context.Canceled):
		return schema.ErrCancelled, "The command was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return schema.ErrTimeout, "The model took too long to respond."
	case errors.Is(err, schema.ErrRateLimit):
		return schema.ErrRateLimited, "The model service is rate limiting requests; try again shortly."
	case errors.Is(err, schema.ErrUnsupportedInput):
		return schema.ErrConfiguration, "The selected model cannot accept this kind of input."
	default:
		return schema.ErrProvider, "The model service is unavailable right now."
	}
}
