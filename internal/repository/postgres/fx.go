package postgres

import (
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Module provides the postgres repositories
var Module = fx.Module("repository",
	fx.Provide(
		fx.Annotate(NewAccountRepository, fx.As(new(domain.AccountRepository))),
		fx.Annotate(NewWarmupQueueRepository, fx.As(new(domain.WarmupQueueRepository))),
		fx.Annotate(NewCommentLogRepository, fx.As(new(domain.CommentLogRepository))),
	),
)
