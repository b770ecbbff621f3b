package tools

import (
	"context"
	"fmt"

	"github.com/voicebridge/voicebridge/internal/bus"
)

// NewNotifyTool builds the notify definition: it pushes a message onto the
// notification bus for out-of-band delivery (Telegram, Slack). Routing falls
// back to the request's channel and chat when the model gives none.
func NewNotifyTool(b *bus.Bus) *Definition {
	schema := NewSchema().
		String("content", Describe("The message to deliver")).
		String("channel", Describe("Target channel (telegram, slack)"), Nullable()).
		String("chat_id", Describe("Target chat or user ID"), Nullable()).
		MustBuild()

	return NewDefinition(
		DeriveName("NotifyTool"),
		"Send a notification to the user on a messaging channel.",
		schema,
		func(_ context.Context, args map[string]any, req RequestContext) (string, error) {
			channel, _ := args["channel"].(string)
			if channel == "" {
				channel = req.String(CtxChannel)
			}
			chatID, _ := args["chat_id"].(string)
			if chatID == "" {
				chatID = req.String(CtxChatID)
			}
			if channel == "" {
				return "Error: no target channel configured", nil
			}

			ok := b.Publish(bus.Notification{
				Channel: channel,
				ChatID:  chatID,
				Content: args["content"].(string),
			})
			if !ok {
				return "Error: notification queue is full", nil
			}
			return fmt.Sprintf("Notification queued for %s", channel), nil
		},
	)
}
