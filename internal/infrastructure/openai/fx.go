package openai

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Module provides the reply generator
var Module = fx.Module("openai",
	fx.Provide(func(cfg *config.OpenAIConfig, logger zerolog.Logger) domain.ReplyGenerator {
		return NewGenerator(cfg.APIKey, cfg.Model, logger)
	}),
)
