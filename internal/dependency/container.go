// Package dependency wires the voicebridge services using go.uber.org/dig.
package dependency

import (
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/dig"

	"github.com/voicebridge/voicebridge/internal/bus"
	"github.com/voicebridge/voicebridge/internal/channels"
	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/dispatch"
	"github.com/voicebridge/voicebridge/internal/providers"
	"github.com/voicebridge/voicebridge/internal/remind"
	"github.com/voicebridge/voicebridge/internal/schema"
	"github.com/voicebridge/voicebridge/internal/server"
	"github.com/voicebridge/voicebridge/internal/tools"
)

// Container holds the resolved service singletons. Callers use the typed
// getters; they never need to import dig directly.
type Container struct {
	provider   schema.ChatProvider
	notifyBus  *bus.Bus
	registry   *tools.Registry
	dispatcher *dispatch.Dispatcher
	scheduler  *remind.Scheduler
	manager    *channels.Manager
	httpServer *server.Server
}

func (c *Container) Provider() schema.ChatProvider     { return c.provider }
func (c *Container) Bus() *bus.Bus                     { return c.notifyBus }
func (c *Container) Registry() *tools.Registry         { return c.registry }
func (c *Container) Dispatcher() *dispatch.Dispatcher  { return c.dispatcher }
func (c *Container) Scheduler() *remind.Scheduler      { return c.scheduler }
func (c *Container) ChannelManager() *channels.Manager { return c.manager }
func (c *Container) Server() *server.Server            { return c.httpServer }

// New builds and wires all services from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := dig.New()
	constructors := []any{
		func() *config.Config { return cfg },
		func() *slog.Logger { return logger },
		newProvider,
		newBus,
		newScheduler,
		newTaskStore,
		newRegistry,
		newPromptBuilder,
		newDispatcher,
		newNotifiers,
		newChannelManager,
		newProgressHub,
		newServer,
	}
	for _, ctor := range constructors {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		provider schema.ChatProvider,
		notifyBus *bus.Bus,
		registry *tools.Registry,
		dispatcher *dispatch.Dispatcher,
		scheduler *remind.Scheduler,
		manager *channels.Manager,
		httpServer *server.Server,
	) {
		result = &Container{
			provider:   provider,
			notifyBus:  notifyBus,
			registry:   registry,
			dispatcher: dispatcher,
			scheduler:  scheduler,
			manager:    manager,
			httpServer: httpServer,
		}
	})
	return result, err
}

func newProvider(cfg *config.Config) (schema.ChatProvider, error) {
	match := cfg.MatchProvider(cfg.Dispatch.Model)
	if match.Provider.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for model %q — edit %s",
			cfg.Dispatch.Model, config.ConfigPath())
	}
	return providers.New(providers.Params{
		Vendor:       match.Vendor,
		APIKey:       match.Provider.APIKey,
		APIBase:      match.Provider.APIBase,
		DefaultModel: match.Model,
		ExtraHeaders: match.Provider.ExtraHeaders,
	})
}

func newBus() *bus.Bus {
	return bus.New(100)
}

func newScheduler(cfg *config.Config, b *bus.Bus, logger *slog.Logger) *remind.Scheduler {
	return remind.NewScheduler(cfg.RemindersPath(), b, logger)
}

func newTaskStore(cfg *config.Config) *tools.TaskStore {
	return tools.NewTaskStore(cfg.TasksPath())
}

func newRegistry(cfg *config.Config, store *tools.TaskStore, scheduler *remind.Scheduler, b *bus.Bus) (*tools.Registry, error) {
	builder := tools.NewRegistryBuilder().
		WithTool(tools.NewCreateTaskTool(store)).
		WithTool(tools.NewListTasksTool(store)).
		WithTool(tools.NewCompleteTaskTool(store)).
		WithTool(tools.NewRemindTool(scheduler)).
		WithTool(tools.NewNotifyTool(b)).
		WithTool(tools.NewWebFetchTool(cfg.Tools.FetchMaxChars))

	if cfg.Tools.Search.APIKey != "" {
		builder.WithTool(tools.NewWebSearchTool(cfg.Tools.Search.APIKey, cfg.Tools.Search.MaxResults))
	}

	if cfg.Tools.ManifestPath != "" {
		manifest, err := tools.LoadManifest(cfg.Tools.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("load tool manifest: %w", err)
		}
		builder.WithTools(manifest)
	}

	return builder.Build(), nil
}

func newPromptBuilder(cfg *config.Config) *dispatch.PromptBuilder {
	return dispatch.NewPromptBuilder(cfg.Dispatch.Instructions)
}

func newDispatcher(cfg *config.Config, provider schema.ChatProvider, registry *tools.Registry, prompts *dispatch.PromptBuilder, logger *slog.Logger) *dispatch.Dispatcher {
	settings := dispatch.Settings{
		Model:       cfg.MatchProvider(cfg.Dispatch.Model).Model,
		MaxTokens:   cfg.Dispatch.MaxTokens,
		Temperature: cfg.Dispatch.Temperature,
		MaxTurns:    cfg.Dispatch.MaxTurns,
		CallTimeout: time.Duration(cfg.Dispatch.CallTimeoutSeconds) * time.Second,
	}
	return dispatch.NewDispatcher(provider, registry, prompts, settings, logger)
}

func newNotifiers(cfg *config.Config, logger *slog.Logger) []channels.Notifier {
	var out []channels.Notifier
	if cfg.Channels.Telegram.Enabled {
		n, err := channels.NewTelegramNotifier(cfg.Channels.Telegram.Token, cfg.Channels.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram channel disabled", "error", err)
		} else {
			out = append(out, n)
		}
	}
	if cfg.Channels.Slack.Enabled {
		n, err := channels.NewSlackNotifier(cfg.Channels.Slack.BotToken, cfg.Channels.Slack.Channel)
		if err != nil {
			logger.Warn("slack channel disabled", "error", err)
		} else {
			out = append(out, n)
		}
	}
	return out
}

func newChannelManager(b *bus.Bus, notifiers []channels.Notifier, logger *slog.Logger) *channels.Manager {
	return channels.NewManager(b, notifiers, logger)
}

func newProgressHub(logger *slog.Logger) *server.ProgressHub {
	return server.NewProgressHub(logger)
}

func newServer(cfg *config.Config, dispatcher *dispatch.Dispatcher, hub *server.ProgressHub, logger *slog.Logger) *server.Server {
	return server.New(cfg.Server, dispatcher, hub, cfg.UploadsDir(), logger)
}
