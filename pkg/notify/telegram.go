package notify

import (
	"context"
	"fmt"

	"glimo/pkg/logger"
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Config struct {
	BotToken    string `yaml:"botToken"`
	AdminChatID int64  `yaml:"adminChatID"`
	Debug       bool   `yaml:"debug"`
}

// Notifier delivers operational alerts to the admins.
type Notifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}

type telegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New returns a Telegram notifier, or a no-op one when no bot token is
// configured.
func New(cfg Config) (Notifier, error) {
	if cfg.BotToken == "" {
		return Nop{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = cfg.Debug

	return &telegramNotifier{
		bot:    bot,
		chatID: cfg.AdminChatID,
	}, nil
}

func (n *telegramNotifier) NotifyAdmins(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		logger.Logger().Warn("failed to notify admins", zap.Error(err))
		return err
	}

	return nil
}

type Nop struct{}

func (Nop) NotifyAdmins(context.Context, string) error { return nil }
