package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// NewClientFactory builds per-account clients on demand. Workers and the
// warmup scanner each get their own client bound to one stored session.
func NewClientFactory(cfg *config.TelegramConfig, logger zerolog.Logger) domain.ClientFactory {
	return func(userID int64, phone string) (domain.TelegramClient, error) {
		return NewClient(ClientConfig{
			APIID:      cfg.APIID,
			APIHash:    cfg.APIHash,
			UserID:     userID,
			Phone:      phone,
			SessionDir: cfg.SessionDir,
			Logger:     logger,
		})
	}
}

// Module provides the Telegram client factory
var Module = fx.Module("telegram",
	fx.Provide(NewClientFactory),
)
