package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"trailquest/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var ErrCompanionNotConnected = errors.New("companion device not connected")

type TelegramCompanionConfig struct {
	BotToken string
	Debug    bool
	// APIEndpoint defaults to tgbotapi.APIEndpoint.
	APIEndpoint string
	Client      tgbotapi.HTTPClient
}

// TelegramCompanion delivers alerts to the hiker's Telegram chat. Hikers authenticate
// through the Mini App, so their user id doubles as the private chat id.
type TelegramCompanion struct {
	cfg TelegramCompanionConfig

	mu  sync.RWMutex
	bot *tgbotapi.BotAPI
}

func NewTelegramCompanion(cfg TelegramCompanionConfig) *TelegramCompanion {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelegramCompanion{cfg: cfg}
}

func (c *TelegramCompanion) Initialize(ctx context.Context) error {
	if c.cfg.BotToken == "" {
		return fmt.Errorf("failed to initialize bot: empty token")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.cfg.BotToken, c.cfg.APIEndpoint, c.cfg.Client)
	if err != nil {
		return fmt.Errorf("failed to initialize bot: %w", err)
	}
	bot.Debug = c.cfg.Debug

	c.mu.Lock()
	c.bot = bot
	c.mu.Unlock()

	logger.Logger().Info("companion bot connected", zap.String("username", bot.Self.UserName))
	return nil
}

func (c *TelegramCompanion) SendAlert(ctx context.Context, hikerID int64, message string) error {
	c.mu.RLock()
	bot := c.bot
	c.mu.RUnlock()

	if bot == nil {
		return ErrCompanionNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := bot.Send(tgbotapi.NewMessage(hikerID, message)); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func (c *TelegramCompanion) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bot != nil
}

// NopCompanion is used when no companion device is paired.
type NopCompanion struct{}

func (NopCompanion) Initialize(context.Context) error { return nil }

func (NopCompanion) SendAlert(context.Context, int64, string) error { return nil }

func (NopCompanion) IsConnected() bool { return false }
