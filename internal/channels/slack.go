package channels

import (
	"context"
	"fmt"

	slackgo "github.com/slack-go/slack"

	"github.com/voicebridge/voicebridge/internal/bus"
)

// SlackNotifier posts notifications with a Slack bot token.
type SlackNotifier struct {
	client         *slackgo.Client
	defaultChannel string
}

// NewSlackNotifier creates a SlackNotifier. defaultChannel is a channel ID
// or name used when a notification names no chat.
func NewSlackNotifier(botToken, defaultChannel string) (*SlackNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("slack: bot token not configured")
	}
	return &SlackNotifier{
		client:         slackgo.New(botToken),
		defaultChannel: defaultChannel,
	}, nil
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, n bus.Notification) error {
	target := n.ChatID
	if target == "" {
		target = s.defaultChannel
	}
	if target == "" {
		return fmt.Errorf("slack: no channel for notification")
	}

	_, _, err := s.client.PostMessageContext(ctx, target,
		slackgo.MsgOptionText(n.Content, false))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}
