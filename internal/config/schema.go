// Package config defines the configuration schema for voicebridge.
// JSON keys use camelCase; the file lives at ~/.voicebridge/config.json.
package config

import "path/filepath"

// ProviderConfig holds credentials for one model vendor.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for the supported vendors. Custom is any
// OpenAI-compatible endpoint (local servers, gateways).
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Custom    ProviderConfig `json:"custom"`
}

// DispatchConfig tunes the command-processing loop.
type DispatchConfig struct {
	Model              string  `json:"model"`
	MaxTokens          int     `json:"maxTokens"`
	Temperature        float64 `json:"temperature"`
	MaxTurns           int     `json:"maxTurns"`
	CallTimeoutSeconds int     `json:"callTimeoutSeconds"`
	Instructions       string  `json:"instructions,omitempty"`
}

func defaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Model:              "gpt-4o-mini",
		MaxTokens:          4096,
		Temperature:        0.3,
		MaxTurns:           6,
		CallTimeoutSeconds: 120,
	}
}

// ServerConfig configures the HTTP command API.
type ServerConfig struct {
	Host               string   `json:"host"`
	Port               int      `json:"port"`
	MaxUploadBytes     int64    `json:"maxUploadBytes"`
	AllowedAudioTypes  []string `json:"allowedAudioTypes"`
	RateLimitPerMinute int      `json:"rateLimitPerMinute"`
	RateBurst          int      `json:"rateBurst"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:               "127.0.0.1",
		Port:               8790,
		MaxUploadBytes:     10 << 20,
		AllowedAudioTypes:  []string{"audio/wav", "audio/mpeg", "audio/ogg", "audio/webm", "audio/mp4"},
		RateLimitPerMinute: 30,
		RateBurst:          10,
	}
}

// TelegramConfig configures the Telegram delivery channel.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chatId"`
}

// SlackConfig configures the Slack delivery channel.
type SlackConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"botToken"`
	Channel  string `json:"channel"`
}

// ChannelsConfig groups the outbound delivery channels.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Slack    SlackConfig    `json:"slack"`
}

// WebSearchConfig configures the web_search tool (Brave Search).
type WebSearchConfig struct {
	APIKey     string `json:"apiKey"`
	MaxResults int    `json:"maxResults"`
}

// ToolsConfig configures the built-in tools and external manifests.
type ToolsConfig struct {
	Search        WebSearchConfig `json:"search"`
	FetchMaxChars int             `json:"fetchMaxChars"`
	ManifestPath  string          `json:"manifestPath,omitempty"`
}

func defaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		Search:        WebSearchConfig{MaxResults: 5},
		FetchMaxChars: 50000,
	}
}

// Config is the root configuration object.
type Config struct {
	Providers ProvidersConfig `json:"providers"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Server    ServerConfig    `json:"server"`
	Channels  ChannelsConfig  `json:"channels"`
	Tools     ToolsConfig     `json:"tools"`
}

// DefaultConfig returns a Config with all defaults filled in.
func DefaultConfig() Config {
	return Config{
		Dispatch: defaultDispatchConfig(),
		Server:   defaultServerConfig(),
		Tools:    defaultToolsConfig(),
	}
}

// TasksPath returns the task store path inside the data directory.
func (c *Config) TasksPath() string { return filepath.Join(DataDir(), "tasks.json") }

// RemindersPath returns the reminder store path inside the data directory.
func (c *Config) RemindersPath() string { return filepath.Join(DataDir(), "reminders.json") }

// UploadsDir returns the directory for received audio payloads.
func (c *Config) UploadsDir() string { return filepath.Join(DataDir(), "uploads") }
