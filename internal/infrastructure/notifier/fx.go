package notifier

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Module provides the operator log channel notifier
var Module = fx.Module("notifier",
	fx.Provide(func(cfg *config.NotifierConfig, logger zerolog.Logger) (domain.Notifier, error) {
		return NewTelegramNotifier(cfg.BotToken, cfg.LogChannelID, logger)
	}),
)
