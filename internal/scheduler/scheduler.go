package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/metrics"
)

// Scheduler is the account lifecycle orchestrator. Standard-mode accounts
// get a live worker; warmup accounts are registered without one and served
// by the scanner. Stored status survives restarts via Restore.
type Scheduler struct {
	accounts domain.AccountRepository
	registry *Registry
	factory  domain.ClientFactory
	deps     WorkerDeps
	cfg      *config.WorkerConfig
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewScheduler creates the orchestrator.
func NewScheduler(accounts domain.AccountRepository, registry *Registry, factory domain.ClientFactory, deps WorkerDeps, cfg *config.WorkerConfig, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		accounts: accounts,
		registry: registry,
		factory:  factory,
		deps:     deps,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// StartAccount brings one account under management and persists the running
// status. Returns ErrAlreadyRunning when it is already managed.
func (s *Scheduler) StartAccount(ctx context.Context, accountID int64) error {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.registry.Register(account.ID); err != nil {
		return err
	}

	if err := s.accounts.SetStatus(ctx, account.ID, domain.StatusRunning); err != nil {
		s.registry.Remove(account.ID)
		return err
	}

	if account.Mode == domain.ModeStandard {
		if err := s.launchWorker(ctx, account); err != nil {
			s.registry.Remove(account.ID)
			if serr := s.accounts.SetStatus(ctx, account.ID, domain.StatusStopped); serr != nil {
				s.logger.Error().Err(serr).Int64("account_id", account.ID).Msg("status rollback failed")
			}
			s.deps.Notifier.Notify(fmt.Sprintf("account %d: failed to start worker: %v", account.ID, err))
			return err
		}
	}

	s.metrics.RunningAccounts.Inc()
	s.logger.Info().Int64("account_id", account.ID).Str("mode", string(account.Mode)).Msg("account started")
	return nil
}

func (s *Scheduler) launchWorker(ctx context.Context, account *domain.Account) error {
	client, err := s.factory(account.UserID, account.Phone)
	if err != nil {
		return err
	}

	worker := NewWorker(account, client, s.deps)
	if err := worker.Start(ctx); err != nil {
		return err
	}

	s.registry.Attach(account.ID, worker)

	// A worker that dies on its own (connection loss) is unregistered and
	// the stopped status persisted. StopAccount and Shutdown remove the
	// registration before the worker finishes, so they skip this path.
	go func() {
		<-worker.Done()
		if _, removed := s.registry.Remove(account.ID); !removed {
			return
		}
		if err := s.accounts.SetStatus(context.Background(), account.ID, domain.StatusStopped); err != nil {
			s.logger.Error().Err(err).Int64("account_id", account.ID).Msg("failed to persist stopped status")
		}
		s.metrics.RunningAccounts.Dec()
		s.deps.Notifier.Notify(fmt.Sprintf("account %d: worker terminated, account stopped", account.ID))
		s.logger.Warn().Int64("account_id", account.ID).Msg("worker terminated on its own")
	}()
	return nil
}

// StopAccount stops the worker if any and persists the stopped status.
func (s *Scheduler) StopAccount(ctx context.Context, accountID int64) error {
	worker, removed := s.registry.Remove(accountID)
	if worker != nil {
		stopCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		err := worker.Stop(stopCtx)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Int64("account_id", accountID).Msg("worker stop timed out")
		}
	}

	if err := s.accounts.SetStatus(ctx, accountID, domain.StatusStopped); err != nil {
		return err
	}

	if removed {
		s.metrics.RunningAccounts.Dec()
	}
	s.logger.Info().Int64("account_id", accountID).Msg("account stopped")
	return nil
}

// IsManaged reports whether the account is currently under management.
func (s *Scheduler) IsManaged(accountID int64) bool {
	return s.registry.IsRegistered(accountID)
}

// IsLive reports whether the account holds a live connection right now.
func (s *Scheduler) IsLive(accountID int64) bool {
	return s.registry.IsLive(accountID)
}

// Restore re-registers every account persisted as running. Called once at
// boot; individual failures are logged and do not block the rest.
func (s *Scheduler) Restore(ctx context.Context) error {
	accounts, err := s.accounts.ListRunning(ctx)
	if err != nil {
		return err
	}

	s.logger.Info().Int("count", len(accounts)).Msg("restoring running accounts")

	for i := range accounts {
		account := &accounts[i]

		if err := s.registry.Register(account.ID); err != nil {
			continue
		}

		if account.Mode == domain.ModeStandard {
			if err := s.launchWorker(ctx, account); err != nil {
				s.logger.Error().Err(err).Int64("account_id", account.ID).Msg("failed to restore worker")
				s.registry.Remove(account.ID)
				if serr := s.accounts.SetStatus(ctx, account.ID, domain.StatusStopped); serr != nil {
					s.logger.Error().Err(serr).Int64("account_id", account.ID).Msg("status rollback failed")
				}
				continue
			}
		}

		s.metrics.RunningAccounts.Inc()
	}
	return nil
}

// Shutdown stops all live workers without touching stored statuses, so the
// same accounts come back on the next Restore.
func (s *Scheduler) Shutdown(ctx context.Context) {
	ids := s.registry.IDs()
	s.logger.Info().Int("managed", len(ids)).Int("live", s.registry.LiveCount()).Msg("stopping workers")

	var wg sync.WaitGroup
	for _, id := range ids {
		worker, _ := s.registry.Remove(id)
		if worker == nil {
			continue
		}
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := w.Stop(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("worker shutdown timed out")
			}
		}(worker)
	}
	wg.Wait()
	s.logger.Info().Int("count", len(ids)).Msg("all workers stopped")
}
