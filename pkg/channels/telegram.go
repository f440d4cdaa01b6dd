package channels

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegohandler"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/brixta-dev/cemtemchat/pkg/bus"
	"github.com/brixta-dev/cemtemchat/pkg/config"
	"github.com/brixta-dev/cemtemchat/pkg/logger"
)

const telegramErrorReply = "Sorry, I'm having trouble connecting to my brain right now. Please try again later."

const telegramGreeting = "Hello! I am an AI assistant powered by OpenRouter. I can now use tools to help you. Ask me anything."

// TelegramChannel serves the bot over long polling. Each chat maps to one
// session; confirmations arrive as a plain "Y" message and are recognized
// downstream.
type TelegramChannel struct {
	*BaseChannel
	bot *telego.Bot
	cfg config.TelegramConfig
}

func NewTelegramChannel(cfg config.TelegramConfig, msgBus *bus.MessageBus) (*TelegramChannel, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", msgBus),
		bot:         bot,
		cfg:         cfg,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("starting long polling: %w", err)
	}

	bh, err := telegohandler.NewBotHandler(c.bot, updates)
	if err != nil {
		return fmt.Errorf("creating bot handler: %w", err)
	}

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		_, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), telegramGreeting))
		return err
	}, th.CommandEqual("start"))

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		return c.handleMessage(ctx, &message)
	}, th.AnyMessage())

	c.setRunning(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.bot.Username(),
	})

	go bh.Start()

	go func() {
		<-ctx.Done()
		bh.Stop()
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot...")
	c.setRunning(false)
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", msg.ChatID, err)
	}

	content := msg.Content
	if msg.IsError {
		content = telegramErrorReply
	}
	if content == "" {
		content = "Sorry, I couldn't come up with a response."
	}

	_, err = c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), content))
	return err
}

func (c *TelegramChannel) handleMessage(ctx context.Context, message *telego.Message) error {
	if message == nil || message.Text == "" {
		return nil
	}

	user := message.From
	if user == nil {
		return nil
	}

	chatID := message.Chat.ID

	logger.DebugCF("telegram", "Received message", map[string]interface{}{
		"sender_id": strconv.FormatInt(user.ID, 10),
		"chat_id":   strconv.FormatInt(chatID, 10),
	})

	if err := c.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping)); err != nil {
		logger.WarnCF("telegram", "Failed to send chat action", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.HandleMessage(strconv.FormatInt(user.ID, 10), strconv.FormatInt(chatID, 10), message.Text)
	return nil
}
