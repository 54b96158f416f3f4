package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/oisentinel/models"
)

// TelegramNotifier delivers alerts to a single chat via the Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(cfg *models.Config) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: cfg.TelegramChatID}, nil
}

func (t *TelegramNotifier) Notify(subject, body string) error {
	msg := tgbotapi.NewMessage(t.chatID, subject+"\n\n"+body)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
