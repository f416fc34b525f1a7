package postgres

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// WarmupQueueRepository is the gorm-backed implementation of
// domain.WarmupQueueRepository.
type WarmupQueueRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewWarmupQueueRepository creates a new warmup queue repository.
func NewWarmupQueueRepository(db *gorm.DB, logger zerolog.Logger) *WarmupQueueRepository {
	return &WarmupQueueRepository{
		db:     db,
		logger: logger.With().Str("component", "warmup_queue_repository").Logger(),
	}
}

// Replace swaps the whole queue for one account in a single transaction so a
// concurrent reader never observes a half-built queue.
func (r *WarmupQueueRepository) Replace(ctx context.Context, accountID int64, channels []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).
			Delete(&warmupChannelModel{}).Error; err != nil {
			return err
		}

		if len(channels) == 0 {
			return nil
		}

		now := time.Now().UTC()
		models := make([]warmupChannelModel, 0, len(channels))
		for i, channel := range channels {
			models = append(models, warmupChannelModel{
				AccountID: accountID,
				Channel:   channel,
				Position:  i + 1,
				Status:    string(domain.QueuePending),
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return tx.Create(&models).Error
	})
}

func (r *WarmupQueueRepository) NextPending(ctx context.Context, accountID int64, limit int) ([]domain.WarmupEntry, error) {
	var models []warmupChannelModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, string(domain.QueuePending)).
		Order("position").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.WarmupEntry, 0, len(models))
	for i := range models {
		entries = append(entries, models[i].toDomain())
	}
	return entries, nil
}

func (r *WarmupQueueRepository) MarkJoined(ctx context.Context, accountID int64, channel string) error {
	now := time.Now().UTC()
	return r.updateEntry(ctx, accountID, channel, map[string]interface{}{
		"status":          string(domain.QueueJoined),
		"error":           "",
		"joined_at":       now,
		"last_attempt_at": now,
		"attempts":        gorm.Expr("attempts + 1"),
		"updated_at":      now,
	})
}

func (r *WarmupQueueRepository) MarkError(ctx context.Context, accountID int64, channel, reason string) error {
	now := time.Now().UTC()
	return r.updateEntry(ctx, accountID, channel, map[string]interface{}{
		"status":          string(domain.QueueError),
		"error":           reason,
		"last_attempt_at": now,
		"attempts":        gorm.Expr("attempts + 1"),
		"updated_at":      now,
	})
}

func (r *WarmupQueueRepository) Stats(ctx context.Context, accountID int64) (domain.QueueStats, error) {
	type statusCount struct {
		Status string
		Count  int
	}

	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&warmupChannelModel{}).
		Select("status, COUNT(*) as count").
		Where("account_id = ?", accountID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.QueueStats{}, err
	}

	var stats domain.QueueStats
	for _, row := range rows {
		switch domain.QueueStatus(row.Status) {
		case domain.QueuePending:
			stats.Pending = row.Count
		case domain.QueueJoined:
			stats.Joined = row.Count
		case domain.QueueError:
			stats.Error = row.Count
		}
	}
	return stats, nil
}

func (r *WarmupQueueRepository) updateEntry(ctx context.Context, accountID int64, channel string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&warmupChannelModel{}).
		Where("account_id = ? AND channel = ?", accountID, channel).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}
