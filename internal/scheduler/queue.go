package scheduler

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// QueueManager owns the per-account warmup queue lifecycle: replacing the
// base list and handing out the next pending entries, reseeding the queue
// from the base list when it runs dry.
type QueueManager struct {
	accounts domain.AccountRepository
	queue    domain.WarmupQueueRepository
	logger   zerolog.Logger
}

// NewQueueManager creates a queue manager.
func NewQueueManager(accounts domain.AccountRepository, queue domain.WarmupQueueRepository, logger zerolog.Logger) *QueueManager {
	return &QueueManager{
		accounts: accounts,
		queue:    queue,
		logger:   logger.With().Str("component", "warmup_queue").Logger(),
	}
}

// normalizeChannels trims entries, drops empties and keeps the first
// occurrence of each duplicate, preserving order.
func normalizeChannels(channels []string) []string {
	seen := make(map[string]struct{}, len(channels))
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}

// Replace stores channels as the account's base warmup list and rebuilds
// the pending queue from it.
func (m *QueueManager) Replace(ctx context.Context, accountID int64, channels []string) error {
	channels = normalizeChannels(channels)

	if err := m.accounts.SetWarmupChannels(ctx, accountID, channels); err != nil {
		return err
	}
	if err := m.queue.Replace(ctx, accountID, channels); err != nil {
		return err
	}

	m.logger.Info().Int64("account_id", accountID).Int("count", len(channels)).Msg("warmup queue replaced")
	return nil
}

// NextPending returns up to limit pending entries for the account. When the
// queue is empty and resetIfEmpty is set, it reseeds the queue from the base
// list minus the channels the account already monitors and tries once more.
func (m *QueueManager) NextPending(ctx context.Context, account *domain.Account, limit int, resetIfEmpty bool) ([]domain.WarmupEntry, error) {
	entries, err := m.queue.NextPending(ctx, account.ID, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 || !resetIfEmpty {
		return entries, nil
	}

	reseed := m.reseedList(account)
	if len(reseed) == 0 {
		return nil, nil
	}

	m.logger.Info().Int64("account_id", account.ID).Int("count", len(reseed)).Msg("queue empty, reseeding from base list")

	if err := m.queue.Replace(ctx, account.ID, reseed); err != nil {
		return nil, err
	}
	return m.queue.NextPending(ctx, account.ID, limit)
}

// reseedList is the base warmup list minus channels already monitored.
func (m *QueueManager) reseedList(account *domain.Account) []string {
	active := make(map[string]struct{}, len(account.Channels))
	for _, ch := range account.Channels {
		active[strings.TrimSpace(ch)] = struct{}{}
	}

	base := normalizeChannels(account.WarmupChannels)
	out := make([]string, 0, len(base))
	for _, ch := range base {
		if _, monitored := active[ch]; monitored {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Stats exposes queue counters for the operator surface.
func (m *QueueManager) Stats(ctx context.Context, accountID int64) (domain.QueueStats, error) {
	return m.queue.Stats(ctx, accountID)
}

// MarkJoined records a successful join for the entry.
func (m *QueueManager) MarkJoined(ctx context.Context, accountID int64, channel string) error {
	return m.queue.MarkJoined(ctx, accountID, channel)
}

// MarkError records a failed join attempt for the entry.
func (m *QueueManager) MarkError(ctx context.Context, accountID int64, channel, reason string) error {
	return m.queue.MarkError(ctx, accountID, channel, reason)
}
