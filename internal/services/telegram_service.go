package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AlertService tells a registrant that one of its accounts was armed for self-destruct.
type AlertService interface {
	SelfDestructArmed(ctx context.Context, registrant, email, deviceID string) error
}

type tgSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramAlertService struct {
	bot   tgSender
	chats map[string]int64
}

func NewTelegramAlertService(botToken string, chats map[string]int64) (AlertService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &telegramAlertService{bot: bot, chats: chats}, nil
}

func (t *telegramAlertService) SelfDestructArmed(ctx context.Context, registrant, email, deviceID string) error {
	chatID := t.chats[registrant]
	if chatID == 0 {
		slog.DebugContext(ctx, "[tg][skip] no chat for registrant", "registrant", registrant)
		return nil
	}
	text := fmt.Sprintf("Self-destruct armed for <b>%s</b>", html.EscapeString(email))
	if deviceID != "" {
		text += fmt.Sprintf(" (device <code>%s</code>)", html.EscapeString(deviceID))
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}
