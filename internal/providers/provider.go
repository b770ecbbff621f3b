// Package providers implements chat backends over raw HTTP. Two wire
// dialects are supported: the OpenAI chat-completions format (which most
// vendors and local servers speak) and the Anthropic Messages API.
package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voicebridge/voicebridge/internal/schema"
)

// Params carries everything needed to construct a provider, extracted from
// config by the caller so this package stays free of config imports.
type Params struct {
	Vendor       string // "openai", "anthropic", or "custom"
	APIKey       string
	APIBase      string // empty: vendor default
	DefaultModel string
	ExtraHeaders map[string]string
	Timeout      time.Duration // per-request HTTP timeout; zero: rely on caller's context
}

// New constructs a ChatProvider for the given vendor.
func New(p Params) (schema.ChatProvider, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("provider %q: API key is not set", p.Vendor)
	}
	if p.DefaultModel == "" {
		return nil, fmt.Errorf("provider %q: default model is not set", p.Vendor)
	}

	base := strings.TrimRight(p.APIBase, "/")
	anthropic := p.Vendor == "anthropic" || strings.Contains(strings.ToLower(base), "anthropic.com")
	if base == "" {
		if anthropic {
			base = "https://api.anthropic.com/v1"
		} else {
			base = "https://api.openai.com/v1"
		}
	}

	return &Client{
		apiKey:       p.APIKey,
		apiBase:      base,
		defaultModel: p.DefaultModel,
		extraHeaders: p.ExtraHeaders,
		isAnthropic:  anthropic,
		httpClient:   &http.Client{Timeout: p.Timeout},
	}, nil
}
