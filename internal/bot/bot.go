// Package bot implements the Telegram conversation for drivers:
// phone-based authentication, slot booking, cancellation and service
// mileage info. All domain state lives behind the HTTP API; the bot
// keeps only in-memory sessions.
package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fleetcare/internal/botapi"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	client   *botapi.Client
	sessions *Store
	window   int
}

func New(token string, client *botapi.Client, windowDays int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Bot{
		api:      api,
		client:   client,
		sessions: NewStore(),
		window:   windowDays,
	}, nil
}

// Start runs the long-polling update loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("bot authorized as @%s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send message: %v", err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send message: %v", err)
	}
}

func (b *Bot) sendMenu(chatID int64, text string) {
	b.sendWithKeyboard(chatID, text, mainMenuKeyboard())
}

// edit rewrites the message the pressed button belongs to, keeping the
// conversation to a single evolving message like a wizard.
func (b *Bot) edit(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("edit message: %v", err)
	}
}
