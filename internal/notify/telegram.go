package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"rest-tracker/internal/logging"
	"rest-tracker/internal/utils"
)

// TelegramConfig holds the bot token and destination chat.
type TelegramConfig struct {
	BotToken  string
	ChatID    int64
	RateLimit int // messages per second
}

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	bot        *bot.Bot
	chatID     int64
	limiter    *rate.Limiter
	logger     *logging.Logger
	timeout    time.Duration
	retryDelay time.Duration
}

// NewTelegram constructs a Telegram sink. Extra bot options are appended to
// the defaults, which skip the getMe round trip at startup.
func NewTelegram(cfg TelegramConfig, logger *logging.Logger, opts ...bot.Option) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("missing bot token in Telegram configuration")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("%w: missing chat_id in Telegram configuration", ErrInvalidRecipient)
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 1
	}

	b, err := bot.New(cfg.BotToken, append([]bot.Option{bot.WithSkipGetMe()}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &Telegram{
		bot:        b,
		chatID:     cfg.ChatID,
		limiter:    rate.NewLimiter(rate.Limit(float64(limit)), limit),
		logger:     logger,
		timeout:    30 * time.Second,
		retryDelay: time.Second,
	}, nil
}

// Notify sends message to the configured chat, retrying up to three times.
func (t *Telegram) Notify(message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	return utils.Retry(t.logger, 3, t.retryDelay, func() error {
		params := &bot.SendMessageParams{
			ChatID: t.chatID,
			Text:   message,
		}
		if _, err := t.bot.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", t.chatID, err)
		}
		return nil
	})
}
