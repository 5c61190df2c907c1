package channels

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/witibot/witibot/internal/bus"
	"github.com/witibot/witibot/internal/config"
)

const telegramMaxMessageLen = 4000

// TelegramChannel runs the Telegram bot via long polling and implements
// bus.Transport for outbound delivery.
type TelegramChannel struct {
	cfg config.TelegramConfig
	b   bus.Bus
	bot *tgbotapi.BotAPI
}

func NewTelegramChannel(cfg config.TelegramConfig, b bus.Bus) *TelegramChannel {
	return &TelegramChannel{cfg: cfg, b: b}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(t.cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	text := msg.Text
	if text == "" && msg.Caption != "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}

	e := bus.NewEvent("telegram", msg.Chat.ID, msg.From.ID, userDisplayName(msg.From), text)
	e.SetMessageID(msg.MessageID)
	if msg.Chat.Title != "" {
		e.SetTitle(msg.Chat.Title)
	}
	if msg.ForwardFrom != nil {
		e.SetForwardedFrom(userDisplayName(msg.ForwardFrom))
	}
	if msg.IsCommand() {
		e.SetCommand(msg.Command(), strings.Fields(msg.CommandArguments()))
	}

	t.b.Publish(e)
}

func userDisplayName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}

// Deliver sends text to conversation and returns the ID of the last
// message sent, for later deletion. HTML delivery falls back to plain
// text when Telegram rejects the markup.
func (t *TelegramChannel) Deliver(_ context.Context, conversation int64, text string, opts bus.DeliverOptions) (int, error) {
	if t.bot == nil {
		return 0, fmt.Errorf("telegram: bot not running")
	}

	var lastID int
	for _, chunk := range splitMessage(text, telegramMaxMessageLen) {
		m := tgbotapi.NewMessage(conversation, chunk)
		if opts.HTML {
			m.ParseMode = tgbotapi.ModeHTML
		}
		sent, err := t.bot.Send(m)
		if err != nil && opts.HTML {
			plain := tgbotapi.NewMessage(conversation, chunk)
			sent, err = t.bot.Send(plain)
		}
		if err != nil {
			return lastID, fmt.Errorf("telegram: send: %w", err)
		}
		lastID = sent.MessageID
	}
	return lastID, nil
}

func (t *TelegramChannel) Delete(_ context.Context, conversation int64, messageID int) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: bot not running")
	}
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(conversation, messageID)); err != nil {
		return fmt.Errorf("telegram: delete: %w", err)
	}
	return nil
}
