package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/scheduler"
)

// AccountUsecase is the operator-facing surface: registering accounts,
// tuning the comment policy, editing channel lists and driving the
// start/stop and warmup lifecycle.
type AccountUsecase struct {
	accounts domain.AccountRepository
	queue    *scheduler.QueueManager
	sched    *scheduler.Scheduler
	factory  domain.ClientFactory
	events   domain.EventProducer
	schedule *config.ScheduleConfig
	worker   *config.WorkerConfig
	logger   zerolog.Logger
}

// NewAccountUsecase creates the operator usecase.
func NewAccountUsecase(
	accounts domain.AccountRepository,
	queue *scheduler.QueueManager,
	sched *scheduler.Scheduler,
	factory domain.ClientFactory,
	events domain.EventProducer,
	schedule *config.ScheduleConfig,
	worker *config.WorkerConfig,
	logger zerolog.Logger,
) *AccountUsecase {
	return &AccountUsecase{
		accounts: accounts,
		queue:    queue,
		sched:    sched,
		factory:  factory,
		events:   events,
		schedule: schedule,
		worker:   worker,
		logger:   logger.With().Str("component", "account_usecase").Logger(),
	}
}

// AccountInfo is the operator view of one account.
type AccountInfo struct {
	Account domain.Account
	Queue   domain.QueueStats
	Live    bool
}

// Register ensures the account exists for the given session. Re-registering
// an existing phone returns the stored row untouched.
func (u *AccountUsecase) Register(ctx context.Context, userID int64, phone, sessionPath string) (*domain.Account, error) {
	account, err := u.accounts.Ensure(ctx, userID, phone, sessionPath)
	if err != nil {
		return nil, err
	}
	u.logger.Info().Int64("account_id", account.ID).Msg("account registered")
	return account, nil
}

// UpdateSettings validates and applies a partial comment-policy update.
// Settings take effect on the worker's next start.
func (u *AccountUsecase) UpdateSettings(ctx context.Context, accountID int64, settings domain.AccountSettings) error {
	if settings.Chance != nil && (*settings.Chance < 0 || *settings.Chance > 100) {
		return fmt.Errorf("chance must be within 0..100, got %d", *settings.Chance)
	}
	if settings.SleepMin != nil && *settings.SleepMin < 0 {
		return fmt.Errorf("sleep_min must not be negative")
	}
	if settings.SleepMin != nil && settings.SleepMax != nil && *settings.SleepMax < *settings.SleepMin {
		return fmt.Errorf("sleep_max must not be below sleep_min")
	}
	return u.accounts.UpsertSettings(ctx, accountID, settings)
}

// ApplyChannelEdits updates the monitored channel list. Entries prefixed
// with "-" are removed and the account leaves them; others are appended.
// Leaves use a short-lived connection and are skipped while a worker holds
// the session, the list change still applies.
func (u *AccountUsecase) ApplyChannelEdits(ctx context.Context, accountID int64, edits []string) error {
	account, err := u.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	current := make([]string, 0, len(account.Channels))
	seen := make(map[string]struct{}, len(account.Channels))
	for _, ch := range account.Channels {
		current = append(current, ch)
		seen[ch] = struct{}{}
	}

	var toLeave []string
	for _, edit := range edits {
		edit = strings.TrimSpace(edit)
		if edit == "" {
			continue
		}
		if removed, ok := strings.CutPrefix(edit, "-"); ok {
			if _, exists := seen[removed]; !exists {
				continue
			}
			delete(seen, removed)
			kept := current[:0]
			for _, ch := range current {
				if ch != removed {
					kept = append(kept, ch)
				}
			}
			current = kept
			toLeave = append(toLeave, removed)
			continue
		}
		if _, exists := seen[edit]; !exists {
			seen[edit] = struct{}{}
			current = append(current, edit)
		}
	}

	err = u.accounts.UpsertSettings(ctx, accountID, domain.AccountSettings{Channels: current})
	if err != nil {
		return err
	}

	if len(toLeave) > 0 {
		u.leaveChannels(ctx, account, toLeave)
	}
	return nil
}

// leaveChannels leaves the removed channels on a short-lived connection.
// Best effort: failures are logged, the list update already happened.
func (u *AccountUsecase) leaveChannels(ctx context.Context, account *domain.Account, channels []string) {
	if u.sched.IsLive(account.ID) {
		u.logger.Info().Int64("account_id", account.ID).Msg("worker holds the session, leave deferred to next restart")
		return
	}

	client, err := u.factory(account.UserID, account.Phone)
	if err != nil {
		u.logger.Warn().Err(err).Int64("account_id", account.ID).Msg("failed to create client for leave")
		return
	}

	connectCtx, cancel := context.WithTimeout(ctx, u.worker.ConnectTimeout)
	err = client.Connect(connectCtx)
	cancel()
	if err != nil {
		u.logger.Warn().Err(err).Int64("account_id", account.ID).Msg("failed to connect for leave")
		return
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), u.worker.ShutdownTimeout)
		_ = client.Disconnect(disconnectCtx)
		cancel()
	}()

	for _, ch := range channels {
		if err := client.LeaveChannel(ctx, ch); err != nil {
			u.logger.Warn().Err(err).Str("channel", ch).Int64("account_id", account.ID).Msg("failed to leave channel")
		}
	}
}

// SetWarmupChannels replaces the base warmup list and rebuilds the queue.
func (u *AccountUsecase) SetWarmupChannels(ctx context.Context, accountID int64, channels []string) error {
	if _, err := u.accounts.Get(ctx, accountID); err != nil {
		return err
	}
	return u.queue.Replace(ctx, accountID, channels)
}

// ToggleMode flips the account between warmup and standard. Entering warmup
// re-arms the expiry with the default warmup length.
func (u *AccountUsecase) ToggleMode(ctx context.Context, accountID int64) (domain.AccountMode, error) {
	account, err := u.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}

	next := domain.ModeWarmup
	days := u.schedule.DefaultWarmupDays
	if account.Mode == domain.ModeWarmup {
		next = domain.ModeStandard
		days = 0
	}

	if err := u.accounts.SetMode(ctx, accountID, next, days); err != nil {
		return "", err
	}

	u.logger.Info().Int64("account_id", accountID).Str("mode", string(next)).Msg("mode toggled")
	if err := u.events.ModeChanged(ctx, accountID, next); err != nil {
		u.logger.Warn().Err(err).Msg("failed to publish mode change event")
	}
	return next, nil
}

// ResetWarmup puts the account back into warmup for the given number of
// days (default length when days <= 0) and reseeds the queue from the base
// list.
func (u *AccountUsecase) ResetWarmup(ctx context.Context, accountID int64, days int) error {
	account, err := u.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	if days <= 0 {
		days = u.schedule.DefaultWarmupDays
	}

	if err := u.accounts.SetMode(ctx, accountID, domain.ModeWarmup, days); err != nil {
		return err
	}
	if err := u.queue.Replace(ctx, accountID, account.WarmupChannels); err != nil {
		return err
	}

	u.logger.Info().Int64("account_id", accountID).Int("days", days).Msg("warmup reset")
	if err := u.events.ModeChanged(ctx, accountID, domain.ModeWarmup); err != nil {
		u.logger.Warn().Err(err).Msg("failed to publish mode change event")
	}
	return nil
}

// Start brings the account under scheduler management.
func (u *AccountUsecase) Start(ctx context.Context, accountID int64) error {
	return u.sched.StartAccount(ctx, accountID)
}

// Stop removes the account from scheduler management.
func (u *AccountUsecase) Stop(ctx context.Context, accountID int64) error {
	return u.sched.StopAccount(ctx, accountID)
}

// Delete stops the account if needed and removes it with its queue.
func (u *AccountUsecase) Delete(ctx context.Context, userID int64, phone string) error {
	account, err := u.accounts.GetByPhone(ctx, userID, phone)
	if err != nil {
		return err
	}

	if u.sched.IsManaged(account.ID) {
		if err := u.sched.StopAccount(ctx, account.ID); err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}
	}

	return u.accounts.Delete(ctx, userID, phone)
}

// Info returns the account row, queue counters and live state.
func (u *AccountUsecase) Info(ctx context.Context, accountID int64) (*AccountInfo, error) {
	account, err := u.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stats, err := u.queue.Stats(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &AccountInfo{
		Account: *account,
		Queue:   stats,
		Live:    u.sched.IsLive(accountID),
	}, nil
}
