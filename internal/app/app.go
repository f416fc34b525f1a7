package app

import (
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/database"
	httpserver "github.com/yourusername/telegram-comment-fleet/internal/infrastructure/http"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/kafka"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/logger"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/metrics"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/notifier"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/openai"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/telegram"
	"github.com/yourusername/telegram-comment-fleet/internal/repository/postgres"
	"github.com/yourusername/telegram-comment-fleet/internal/scheduler"
	"github.com/yourusername/telegram-comment-fleet/internal/usecase"
)

// CreateApp assembles the application modules.
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),

		logger.Module,
		metrics.Module,
		database.Module,
		postgres.Module,
		telegram.Module,
		openai.Module,
		notifier.Module,
		kafka.Module,
		httpserver.Module,

		scheduler.Module,
		usecase.Module,
	)
}
