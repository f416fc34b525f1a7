package postgres

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	apperrors "github.com/yourusername/telegram-comment-fleet/pkg/errors"
)

const (
	logWriteAttempts = 3
	logWriteBackoff  = 100 * time.Millisecond
)

// CommentLogRepository is the gorm-backed implementation of
// domain.CommentLogRepository.
type CommentLogRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewCommentLogRepository creates a new comment log repository.
func NewCommentLogRepository(db *gorm.DB, logger zerolog.Logger) *CommentLogRepository {
	return &CommentLogRepository{
		db:     db,
		logger: logger.With().Str("component", "comment_log_repository").Logger(),
	}
}

// Add appends one attempt record. Writes race with many workers sharing one
// pool, so transient failures are retried with jittered backoff before the
// error surfaces.
func (r *CommentLogRepository) Add(ctx context.Context, entry *domain.CommentLog) error {
	model := commentLogModel{
		AccountID: entry.AccountID,
		Channel:   entry.Channel,
		MessageID: entry.MessageID,
		Status:    entry.Status,
		Error:     entry.Error,
		CreatedAt: time.Now().UTC(),
	}

	var err error
	for attempt := 0; attempt < logWriteAttempts; attempt++ {
		if attempt > 0 {
			backoff := logWriteBackoff * time.Duration(1<<(attempt-1))
			backoff += time.Duration(rand.Int63n(int64(logWriteBackoff)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = r.db.WithContext(ctx).Create(&model).Error
		if err == nil {
			entry.ID = model.ID
			return nil
		}
		r.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("comment log write failed")
	}
	return apperrors.NewConflictError("comment log write", err)
}
