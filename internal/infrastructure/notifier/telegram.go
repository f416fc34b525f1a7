package notifier

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
)

const sendTimeout = 10 * time.Second

// TelegramNotifier posts status lines to an operator log channel through a
// regular bot token. Delivery is best-effort; failures are only logged.
type TelegramNotifier struct {
	bot       *bot.Bot
	channelID int64
	logger    zerolog.Logger
}

// NewTelegramNotifier creates a notifier for the configured log channel.
// When the token is empty the notifier is a no-op.
func NewTelegramNotifier(token string, channelID int64, logger zerolog.Logger) (*TelegramNotifier, error) {
	n := &TelegramNotifier{
		channelID: channelID,
		logger:    logger.With().Str("component", "notifier").Logger(),
	}

	if token == "" {
		n.logger.Info().Msg("no bot token configured, notifications disabled")
		return n, nil
	}

	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}
	n.bot = b
	return n, nil
}

// Notify sends text to the log channel without blocking the caller.
func (n *TelegramNotifier) Notify(text string) {
	if n.bot == nil || n.channelID == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: n.channelID,
			Text:   text,
		})
		if err != nil {
			n.logger.Warn().Err(err).Msg("failed to send notification")
		}
	}()
}
