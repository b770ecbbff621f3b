// Package bus decouples tool handlers and the reminder scheduler from the
// notification channels that deliver their output.
package bus

// Notification is an outbound message for a notification channel.
type Notification struct {
	Channel  string         // destination channel name ("telegram", "slack")
	ChatID   string         // destination chat / channel / DM identifier
	Content  string         // text to send
	Metadata map[string]any // channel-specific hints (thread_ts, parse_mode, …)
}

// Bus carries notifications from producers (notify tool, reminders) to the
// channel manager. The channel is buffered so producers never block on a
// slow notifier.
type Bus struct {
	Notifications chan Notification
}

// New creates a Bus with the given buffer size.
func New(bufSize int) *Bus {
	return &Bus{Notifications: make(chan Notification, bufSize)}
}

// Publish enqueues a notification, dropping it if the buffer is full so a
// dead channel manager can never wedge a dispatch.
func (b *Bus) Publish(n Notification) bool {
	select {
	case b.Notifications <- n:
		return true
	default:
		return false
	}
}
