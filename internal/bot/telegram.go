package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger is what the bot needs from the chat platform.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
	Reply(ctx context.Context, chatID int64, messageID int, text string) error
	React(ctx context.Context, chatID int64, messageID int, emoji string) error
	SendEphemeral(ctx context.Context, chatID int64, text string, ttl time.Duration) error
	Typing(ctx context.Context, chatID int64) error
	ResolveChat(ctx context.Context, chatID int64) error
}

// TelegramClient implements Messenger on the Telegram Bot API.
type TelegramClient struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

// Connect authorizes with Telegram. A returned client means the bot is ready.
func Connect(token string, logger *slog.Logger) (*TelegramClient, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("authorized on account", slog.String("username", api.Self.UserName))
	return &TelegramClient{api: api, logger: logger}, nil
}

// SelfID is the bot's own user ID.
func (c *TelegramClient) SelfID() int64 {
	return c.api.Self.ID
}

func (c *TelegramClient) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

func (c *TelegramClient) Reply(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	msg.AllowSendingWithoutReply = true
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("reply in chat %d: %w", chatID, err)
	}
	return nil
}

type reactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// React sets an emoji reaction on a message (Bot API setMessageReaction).
func (c *TelegramClient) React(ctx context.Context, chatID int64, messageID int, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	if err := params.AddInterface("reaction", []reactionType{{Type: "emoji", Emoji: emoji}}); err != nil {
		return err
	}
	if _, err := c.api.MakeRequest("setMessageReaction", params); err != nil {
		return fmt.Errorf("react in chat %d: %w", chatID, err)
	}
	return nil
}

// SendEphemeral sends text and deletes it after ttl.
func (c *TelegramClient) SendEphemeral(ctx context.Context, chatID int64, text string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	time.AfterFunc(ttl, func() {
		if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, sent.MessageID)); err != nil {
			c.logger.Warn("failed to delete notice", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
	})
	return nil
}

func (c *TelegramClient) Typing(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// ResolveChat checks that the bot can see chatID.
func (c *TelegramClient) ResolveChat(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return fmt.Errorf("get chat %d: %w", chatID, err)
	}
	return nil
}

// Updates starts long polling.
func (c *TelegramClient) Updates() tgbotapi.UpdatesChannel {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.AllowedUpdates = []string{"message", "channel_post"}
	return c.api.GetUpdatesChan(updateConfig)
}

// StopUpdates stops long polling and closes the updates channel.
func (c *TelegramClient) StopUpdates() {
	c.api.StopReceivingUpdates()
}
