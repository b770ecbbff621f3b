// Package channels delivers outbound notifications to chat platforms.
// Commands arrive over the HTTP API; these channels only ever send.
package channels

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/bus"
)

// Notifier is one outbound delivery target.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n bus.Notification) error
}
