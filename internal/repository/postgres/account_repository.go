package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// AccountRepository is the gorm-backed implementation of
// domain.AccountRepository.
type AccountRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *gorm.DB, logger zerolog.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger.With().Str("component", "account_repository").Logger(),
	}
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (*domain.Account, error) {
	var model accountModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *AccountRepository) GetByPhone(ctx context.Context, userID int64, phone string) (*domain.Account, error) {
	var model accountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND phone = ?", userID, phone).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *AccountRepository) ListRunning(ctx context.Context) ([]domain.Account, error) {
	var models []accountModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.StatusRunning)).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(models))
	for i := range models {
		accounts = append(accounts, *models[i].toDomain())
	}
	return accounts, nil
}

func (r *AccountRepository) ListWarmupRunning(ctx context.Context) ([]domain.Account, error) {
	var models []accountModel
	err := r.db.WithContext(ctx).
		Where("mode = ? AND status = ?", string(domain.ModeWarmup), string(domain.StatusRunning)).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(models))
	for i := range models {
		accounts = append(accounts, *models[i].toDomain())
	}
	return accounts, nil
}

// Ensure inserts the account with defaults when missing; the stored row wins
// on conflict so repeated registration never clobbers tuned settings.
func (r *AccountRepository) Ensure(ctx context.Context, userID int64, phone, sessionPath string) (*domain.Account, error) {
	model := accountModel{
		UserID:         userID,
		Phone:          phone,
		SessionPath:    sessionPath,
		Chance:         100,
		SleepMin:       10,
		SleepMax:       20,
		Channels:       []string{},
		WarmupChannels: []string{},
		Mode:           string(domain.ModeWarmup),
		Status:         string(domain.StatusStopped),
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND phone = ?", userID, phone).
		FirstOrCreate(&model).Error
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *AccountRepository) UpsertSettings(ctx context.Context, id int64, settings domain.AccountSettings) error {
	updates := map[string]interface{}{}

	if settings.Chance != nil {
		updates["chance"] = *settings.Chance
	}
	if settings.SystemPrompt != nil {
		updates["system_prompt"] = *settings.SystemPrompt
	}
	if settings.SleepMin != nil {
		updates["sleep_min"] = *settings.SleepMin
	}
	if settings.SleepMax != nil {
		updates["sleep_max"] = *settings.SleepMax
	}
	if settings.Channels != nil {
		updates["channels"] = channelsJSON(settings.Channels)
	}

	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	return r.applyUpdates(ctx, id, updates)
}

func (r *AccountRepository) SetMode(ctx context.Context, id int64, mode domain.AccountMode, warmupDays int) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"mode":       string(mode),
		"updated_at": now,
	}

	switch mode {
	case domain.ModeWarmup:
		if warmupDays > 0 {
			endAt := now.AddDate(0, 0, warmupDays)
			updates["warmup_end_at"] = endAt
		}
		updates["warmup_joined_today"] = 0
		updates["warmup_last_join"] = nil
		updates["warmup_next_join_at"] = nil
	case domain.ModeStandard:
		updates["warmup_next_join_at"] = nil
	}

	return r.applyUpdates(ctx, id, updates)
}

func (r *AccountRepository) SetStatus(ctx context.Context, id int64, status domain.AccountStatus) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": now,
	}

	switch status {
	case domain.StatusRunning:
		updates["last_started_at"] = now
	case domain.StatusStopped:
		updates["last_stopped_at"] = now
	}

	return r.applyUpdates(ctx, id, updates)
}

func (r *AccountRepository) SetWarmupChannels(ctx context.Context, id int64, channels []string) error {
	return r.applyUpdates(ctx, id, map[string]interface{}{
		"warmup_channels": channelsJSON(channels),
		"updated_at":      time.Now().UTC(),
	})
}

func (r *AccountRepository) IncrementDailyJoins(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.applyUpdates(ctx, id, map[string]interface{}{
		"warmup_joined_today": gorm.Expr("warmup_joined_today + 1"),
		"warmup_last_join":    now.Truncate(24 * time.Hour),
		"warmup_last_join_at": now,
		"updated_at":          now,
	})
}

func (r *AccountRepository) ResetDailyState(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.applyUpdates(ctx, id, map[string]interface{}{
		"warmup_joined_today": 0,
		"warmup_last_join":    now.Truncate(24 * time.Hour),
		"updated_at":          now,
	})
}

func (r *AccountRepository) ScheduleNextJoin(ctx context.Context, id int64, at time.Time) error {
	return r.applyUpdates(ctx, id, map[string]interface{}{
		"warmup_next_join_at": at.UTC(),
		"updated_at":          time.Now().UTC(),
	})
}

func (r *AccountRepository) Delete(ctx context.Context, userID int64, phone string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND phone = ?", userID, phone).
		Delete(&accountModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	r.logger.Info().Int64("user_id", userID).Msg("account deleted")
	return nil
}

func (r *AccountRepository) applyUpdates(ctx context.Context, id int64, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
