package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/metrics"
	apperrors "github.com/yourusername/telegram-comment-fleet/pkg/errors"
)

// Scanner periodically walks running warmup accounts and advances each
// one's queue by at most one join per pass. Joins happen on short-lived
// connections opened per attempt; accounts with a live comment worker are
// skipped so the two never share a session.
type Scanner struct {
	accounts domain.AccountRepository
	queue    *QueueManager
	policy   *Policy
	registry *Registry
	factory  domain.ClientFactory
	notifier domain.Notifier
	events   domain.EventProducer
	metrics  *metrics.Metrics

	scanInterval   time.Duration
	connectTimeout time.Duration

	logger zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// nowFn is swapped in tests.
	nowFn func() time.Time
}

// ScannerDeps bundles the collaborators the scanner needs.
type ScannerDeps struct {
	Accounts domain.AccountRepository
	Queue    *QueueManager
	Policy   *Policy
	Registry *Registry
	Factory  domain.ClientFactory
	Notifier domain.Notifier
	Events   domain.EventProducer
	Metrics  *metrics.Metrics
	Schedule *config.ScheduleConfig
	Worker   *config.WorkerConfig
	Logger   zerolog.Logger
}

// NewScanner creates the warmup scanner.
func NewScanner(deps ScannerDeps) *Scanner {
	return &Scanner{
		accounts:       deps.Accounts,
		queue:          deps.Queue,
		policy:         deps.Policy,
		registry:       deps.Registry,
		factory:        deps.Factory,
		notifier:       deps.Notifier,
		events:         deps.Events,
		metrics:        deps.Metrics,
		scanInterval:   deps.Schedule.ScanInterval,
		connectTimeout: deps.Worker.ConnectTimeout,
		logger:         deps.Logger.With().Str("component", "warmup_scanner").Logger(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		nowFn:          time.Now,
	}
}

// Start launches the scan loop.
func (s *Scanner) Start() {
	s.logger.Info().Dur("interval", s.scanInterval).Msg("warmup scanner started")
	go s.loop()
}

// Stop signals the loop and waits for the current pass to finish.
func (s *Scanner) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scanner) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.logger.Info().Msg("warmup scanner stopped")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.scanInterval)
			s.RunCycle(ctx)
			cancel()
		}
	}
}

// RunCycle executes one scan pass. Exported so tests drive passes directly.
func (s *Scanner) RunCycle(ctx context.Context) {
	defer s.metrics.ScannerCycles.Inc()

	now := s.nowFn()
	if !s.policy.InWarmupWindow(now) {
		return
	}

	accounts, err := s.accounts.ListWarmupRunning(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list warmup accounts")
		return
	}

	for i := range accounts {
		if err := s.processAccount(ctx, &accounts[i], now); err != nil {
			s.logger.Error().Err(err).Int64("account_id", accounts[i].ID).Msg("warmup pass failed for account")
		}
	}
}

func (s *Scanner) processAccount(ctx context.Context, account *domain.Account, now time.Time) error {
	logger := s.logger.With().Int64("account_id", account.ID).Logger()

	// A live comment worker owns this session; never open a second
	// connection on the same credentials.
	if s.registry.IsLive(account.ID) {
		logger.Debug().Msg("live worker holds the session, skipping")
		return nil
	}

	if s.policy.WarmupExpired(account, now) {
		return s.finishWarmup(ctx, account)
	}

	if s.policy.NeedsDailyReset(account, now) {
		if err := s.accounts.ResetDailyState(ctx, account.ID); err != nil {
			return err
		}
		account.WarmupJoinedToday = 0
	}

	if s.policy.QuotaReached(account) {
		next := s.policy.NextWindowStart(now)
		if account.WarmupNextJoinAt == nil || account.WarmupNextJoinAt.Before(next) {
			if err := s.accounts.ScheduleNextJoin(ctx, account.ID, next); err != nil {
				return err
			}
		}
		logger.Debug().Msg("daily quota reached")
		return nil
	}

	if !s.policy.JoinDue(account, now) {
		return nil
	}

	entries, err := s.queue.NextPending(ctx, account, 1, true)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.Debug().Msg("warmup queue exhausted")
		return nil
	}

	return s.attemptJoin(ctx, account, entries[0].Channel, now)
}

// finishWarmup flips an expired warmup account to standard mode.
func (s *Scanner) finishWarmup(ctx context.Context, account *domain.Account) error {
	if err := s.accounts.SetMode(ctx, account.ID, domain.ModeStandard, 0); err != nil {
		return err
	}

	s.logger.Info().Int64("account_id", account.ID).Msg("warmup period ended, switching to standard mode")
	s.notifier.Notify(fmt.Sprintf("account %d: warmup finished, now in standard mode", account.ID))

	if err := s.events.ModeChanged(ctx, account.ID, domain.ModeStandard); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish mode change event")
	}
	return nil
}

// attemptJoin opens a short-lived connection and joins one channel.
func (s *Scanner) attemptJoin(ctx context.Context, account *domain.Account, channel string, now time.Time) error {
	logger := s.logger.With().Int64("account_id", account.ID).Str("channel", channel).Logger()

	client, err := s.factory(account.UserID, account.Phone)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	err = client.Connect(connectCtx)
	cancel()
	if err != nil {
		// Nothing was attempted against the entry, so it stays pending
		// and a later pass retries it.
		s.metrics.WarmupJoinErrors.Inc()
		if apperrors.IsCredential(err) {
			return s.demoteAccount(ctx, account, err)
		}
		if serr := s.accounts.ScheduleNextJoin(ctx, account.ID, s.policy.NextJoinTime(now)); serr != nil {
			return serr
		}
		return err
	}

	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), s.connectTimeout)
		if derr := client.Disconnect(disconnectCtx); derr != nil {
			logger.Warn().Err(derr).Msg("disconnect after join failed")
		}
		cancel()
	}()

	err = client.JoinChannel(ctx, channel)
	switch {
	case err == nil:
		if err := s.queue.MarkJoined(ctx, account.ID, channel); err != nil {
			return err
		}
		if err := s.accounts.IncrementDailyJoins(ctx, account.ID); err != nil {
			return err
		}
		if err := s.accounts.ScheduleNextJoin(ctx, account.ID, s.policy.NextJoinTime(now)); err != nil {
			return err
		}
		s.metrics.WarmupJoins.Inc()
		logger.Info().Msg("warmup channel joined")
		if err := s.events.ChannelJoined(ctx, account.ID, channel); err != nil {
			logger.Warn().Err(err).Msg("failed to publish join event")
		}
		return nil

	case errors.Is(err, domain.ErrAlreadyParticipant):
		// Already a member, consume the entry without spending quota.
		logger.Info().Msg("already a participant, marking joined")
		return s.queue.MarkJoined(ctx, account.ID, channel)

	default:
		return s.handleJoinError(ctx, account, channel, err)
	}
}

// handleJoinError records a failed join attempt against the queue entry.
func (s *Scanner) handleJoinError(ctx context.Context, account *domain.Account, channel string, cause error) error {
	s.metrics.WarmupJoinErrors.Inc()

	if apperrors.IsCredential(cause) {
		return s.demoteAccount(ctx, account, cause)
	}

	if err := s.queue.MarkError(ctx, account.ID, channel, cause.Error()); err != nil {
		s.logger.Error().Err(err).Int64("account_id", account.ID).Msg("failed to record join error")
	}

	// Push the next attempt out by the join delay so a broken channel does
	// not burn every scan cycle.
	if err := s.accounts.ScheduleNextJoin(ctx, account.ID, s.policy.NextJoinTime(s.nowFn())); err != nil {
		return err
	}
	return cause
}

// demoteAccount drops an account with an unusable session back to standard
// mode. The queue entry is left untouched for the operator to inspect.
func (s *Scanner) demoteAccount(ctx context.Context, account *domain.Account, cause error) error {
	s.logger.Error().Err(cause).Int64("account_id", account.ID).Msg("session unusable, leaving warmup mode")
	s.notifier.Notify(fmt.Sprintf("account %d: session unusable during warmup (%v)", account.ID, cause))
	if err := s.accounts.SetMode(ctx, account.ID, domain.ModeStandard, 0); err != nil {
		return err
	}
	if err := s.events.ModeChanged(ctx, account.ID, domain.ModeStandard); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish mode change event")
	}
	return nil
}
