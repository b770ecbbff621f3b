package config

import "strings"

// MatchResult is the resolved vendor credentials for a model.
type MatchResult struct {
	Provider ProviderConfig
	Vendor   string // "openai", "anthropic", or "custom"
	Model    string // model name with any vendor prefix stripped
}

// MatchProvider resolves which vendor serves the given model. If model is
// empty the configured dispatch model is used.
//
// Priority order:
//  1. Explicit vendor prefix in the model string ("anthropic/claude-…")
//  2. Keyword match on the model name ("claude" → anthropic, "gpt"/"o" → openai)
//  3. Fallback: custom if configured, then openai, then anthropic
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Dispatch.Model
	}
	lower := strings.ToLower(model)

	if vendor, rest, ok := strings.Cut(lower, "/"); ok {
		switch vendor {
		case "openai":
			return MatchResult{Provider: c.Providers.OpenAI, Vendor: "openai", Model: rest}
		case "anthropic":
			return MatchResult{Provider: c.Providers.Anthropic, Vendor: "anthropic", Model: rest}
		case "custom":
			return MatchResult{Provider: c.Providers.Custom, Vendor: "custom", Model: rest}
		}
	}

	switch {
	case strings.Contains(lower, "claude"):
		return MatchResult{Provider: c.Providers.Anthropic, Vendor: "anthropic", Model: model}
	case strings.HasPrefix(lower, "gpt") || strings.HasPrefix(lower, "o1") ||
		strings.HasPrefix(lower, "o3") || strings.HasPrefix(lower, "o4"):
		return MatchResult{Provider: c.Providers.OpenAI, Vendor: "openai", Model: model}
	}

	switch {
	case c.Providers.Custom.APIKey != "":
		return MatchResult{Provider: c.Providers.Custom, Vendor: "custom", Model: model}
	case c.Providers.OpenAI.APIKey != "":
		return MatchResult{Provider: c.Providers.OpenAI, Vendor: "openai", Model: model}
	default:
		return MatchResult{Provider: c.Providers.Anthropic, Vendor: "anthropic", Model: model}
	}
}
