package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService: коды в чаты пользователей, уведомления об оплатах в админский чат.
type TelegramService struct {
	bot         botSender
	adminChatID int64
}

// NewTelegramService подключается к Bot API. Пустой токен даёт nil-сервис:
// для вызывающих это "telegram выключен".
func NewTelegramService(botToken string, adminChatID int64) (*TelegramService, error) {
	if botToken == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot, adminChatID: adminChatID}, nil
}

func (t *TelegramService) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// Send реализует Sender; destination: числовой chat id.
func (t *TelegramService) Send(_ context.Context, destination, message string) error {
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil || chatID == 0 {
		return fmt.Errorf("telegram: invalid chat id %q", destination)
	}
	return t.sendMessage(chatID, message)
}

// NotifyAdmin ничего не делает, если админский чат не задан.
func (t *TelegramService) NotifyAdmin(text string) error {
	if t == nil || t.adminChatID == 0 {
		log.Printf("[tg][skip] admin chat not configured")
		return nil
	}
	return t.sendMessage(t.adminChatID, text)
}
