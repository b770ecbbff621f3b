package channels

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voicebridge/voicebridge/internal/bus"
)

// Manager drains the notification bus and routes each notification to the
// matching notifier. Notifications naming no channel go to the first
// registered notifier.
type Manager struct {
	notifiers map[string]Notifier
	first     Notifier
	bus       *bus.Bus
	log       *slog.Logger
}

// NewManager builds a Manager over the given notifiers. logger may be nil.
func NewManager(b *bus.Bus, notifiers []Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		notifiers: make(map[string]Notifier, len(notifiers)),
		bus:       b,
		log:       logger,
	}
	for _, n := range notifiers {
		if m.first == nil {
			m.first = n
		}
		m.notifiers[n.Name()] = n
	}
	return m
}

// Enabled reports whether any notifier is registered.
func (m *Manager) Enabled() bool { return m.first != nil }

// Start consumes notifications until ctx is cancelled. Delivery failures are
// logged and skipped; a broken channel must not stall the bus.
func (m *Manager) Start(ctx context.Context) error {
	if !m.Enabled() {
		m.log.Info("channels: no notifiers configured, notifications will be dropped")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-m.bus.Notifications:
			if !ok {
				return nil
			}
			m.deliver(ctx, n)
		}
	}
}

func (m *Manager) deliver(ctx context.Context, n bus.Notification) {
	target := m.first
	if n.Channel != "" {
		var ok bool
		if target, ok = m.notifiers[n.Channel]; !ok {
			m.log.Warn("channels: unknown channel, dropping notification",
				"channel", n.Channel)
			return
		}
	}
	if target == nil {
		return
	}
	if err := target.Send(ctx, n); err != nil {
		m.log.Error("channels: delivery failed",
			"channel", target.Name(), "error", err)
	}
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// newline boundaries so chat platforms with hard message caps keep
// formatting intact.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
