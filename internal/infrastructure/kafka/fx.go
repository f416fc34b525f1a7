package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Module provides the audit event producer
var Module = fx.Module("kafka",
	fx.Provide(func(cfg *config.KafkaConfig, logger zerolog.Logger) domain.EventProducer {
		return NewProducer(cfg.Brokers, cfg.TopicEvents, logger)
	}),
	fx.Invoke(func(lc fx.Lifecycle, producer domain.EventProducer) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return producer.Close()
			},
		})
	}),
)
