package channels

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/voicebridge/voicebridge/internal/bus"
)

// TelegramNotifier sends notifications through a Telegram bot. It never
// polls for updates; delivery only.
type TelegramNotifier struct {
	bot           *tgbotapi.BotAPI
	defaultChatID string
}

// NewTelegramNotifier connects the bot. defaultChatID is used when a
// notification names no chat.
func NewTelegramNotifier(token, defaultChatID string) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, defaultChatID: defaultChatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Send(_ context.Context, n bus.Notification) error {
	target := n.ChatID
	if target == "" {
		target = t.defaultChatID
	}
	if target == "" {
		return fmt.Errorf("telegram: no chat id for notification")
	}
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q", target)
	}

	for _, chunk := range splitMessage(n.Content, 4000) {
		if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}
