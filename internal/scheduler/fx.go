package scheduler

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/metrics"
)

// Module wires the scheduler core: policy, gate, registry, queue manager,
// orchestrator and the warmup scanner with its lifecycle hooks.
var Module = fx.Module("scheduler",
	fx.Provide(
		NewPolicy,
		NewRegistry,
		NewQueueManager,
		func(cfg *config.WorkerConfig) *Gate {
			return NewGate(cfg.MaxConcurrent)
		},
		func(
			policy *Policy,
			gate *Gate,
			comments domain.CommentLogRepository,
			generator domain.ReplyGenerator,
			notifier domain.Notifier,
			events domain.EventProducer,
			m *metrics.Metrics,
			cfg *config.WorkerConfig,
			logger zerolog.Logger,
		) WorkerDeps {
			return WorkerDeps{
				Policy:    policy,
				Gate:      gate,
				Comments:  comments,
				Generator: generator,
				Notifier:  notifier,
				Events:    events,
				Metrics:   m,
				Config:    cfg,
				Logger:    logger,
			}
		},
		NewScheduler,
		func(
			accounts domain.AccountRepository,
			queue *QueueManager,
			policy *Policy,
			registry *Registry,
			factory domain.ClientFactory,
			notifier domain.Notifier,
			events domain.EventProducer,
			m *metrics.Metrics,
			schedule *config.ScheduleConfig,
			worker *config.WorkerConfig,
			logger zerolog.Logger,
		) *Scanner {
			return NewScanner(ScannerDeps{
				Accounts: accounts,
				Queue:    queue,
				Policy:   policy,
				Registry: registry,
				Factory:  factory,
				Notifier: notifier,
				Events:   events,
				Metrics:  m,
				Schedule: schedule,
				Worker:   worker,
				Logger:   logger,
			})
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, sched *Scheduler, scanner *Scanner, cfg *config.WorkerConfig, logger zerolog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := sched.Restore(ctx); err != nil {
					logger.Error().Err(err).Msg("failed to restore running accounts")
					return err
				}
				scanner.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if err := scanner.Stop(ctx); err != nil {
					logger.Warn().Err(err).Msg("scanner stop timed out")
				}
				sched.Shutdown(ctx)
				return nil
			},
		})
	}),
)
