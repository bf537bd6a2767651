package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource delivers Telegram updates until stopped.
type UpdateSource interface {
	Updates() tgbotapi.UpdatesChannel
	StopUpdates()
}

// Bot feeds Telegram updates to a Router.
type Bot struct {
	source UpdateSource
	router *Router
	logger *slog.Logger
}

// New creates a Bot.
func New(source UpdateSource, router *Router, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{source: source, router: router, logger: logger}
}

// Run handles updates until ctx is done, then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context) error {
	updates := b.source.Updates()
	b.logger.Info("bot is listening for updates")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.source.StopUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := fromTelegram(update)
			if !ok {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.router.HandleMessage(ctx, msg)
			}()
		}
	}
}

// fromTelegram converts an update into a Message. Updates without text are
// skipped.
func fromTelegram(update tgbotapi.Update) (Message, bool) {
	m := update.Message
	if m == nil {
		m = update.ChannelPost
	}
	if m == nil || m.Chat == nil || m.Text == "" {
		return Message{}, false
	}

	msg := Message{
		ID:     m.MessageID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
	}
	if m.From != nil {
		msg.AuthorID = m.From.ID
		msg.IsBot = m.From.IsBot
	}
	if m.IsCommand() {
		msg.Command = strings.ToLower(m.Command())
		msg.Args = m.CommandArguments()
	}
	return msg, true
}
