package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// channelsJSON renders a channel list as a jsonb literal for raw update
// maps, which bypass the model serializer.
func channelsJSON(channels []string) interface{} {
	if channels == nil {
		channels = []string{}
	}
	encoded, _ := json.Marshal(channels)
	return gorm.Expr("?::jsonb", string(encoded))
}

// accountModel is the gorm mapping of the accounts table.
type accountModel struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"column:user_id"`
	Phone       string `gorm:"column:phone"`
	SessionPath string `gorm:"column:session_path"`

	Chance       int      `gorm:"column:chance"`
	SystemPrompt string   `gorm:"column:system_prompt"`
	SleepMin     int      `gorm:"column:sleep_min"`
	SleepMax     int      `gorm:"column:sleep_max"`
	Channels     []string `gorm:"column:channels;serializer:json"`

	WarmupChannels    []string   `gorm:"column:warmup_channels;serializer:json"`
	WarmupEndAt       *time.Time `gorm:"column:warmup_end_at"`
	WarmupJoinedToday int        `gorm:"column:warmup_joined_today"`
	WarmupLastJoin    *time.Time `gorm:"column:warmup_last_join"`
	WarmupLastJoinAt  *time.Time `gorm:"column:warmup_last_join_at"`
	WarmupNextJoinAt  *time.Time `gorm:"column:warmup_next_join_at"`

	Mode   string `gorm:"column:mode"`
	Status string `gorm:"column:status"`

	LastStartedAt *time.Time `gorm:"column:last_started_at"`
	LastStoppedAt *time.Time `gorm:"column:last_stopped_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (accountModel) TableName() string {
	return "accounts"
}

func (m *accountModel) toDomain() *domain.Account {
	return &domain.Account{
		ID:                m.ID,
		UserID:            m.UserID,
		Phone:             m.Phone,
		SessionPath:       m.SessionPath,
		Chance:            m.Chance,
		SystemPrompt:      m.SystemPrompt,
		SleepMin:          m.SleepMin,
		SleepMax:          m.SleepMax,
		Channels:          m.Channels,
		WarmupChannels:    m.WarmupChannels,
		WarmupEndAt:       m.WarmupEndAt,
		WarmupJoinedToday: m.WarmupJoinedToday,
		WarmupLastJoin:    m.WarmupLastJoin,
		WarmupLastJoinAt:  m.WarmupLastJoinAt,
		WarmupNextJoinAt:  m.WarmupNextJoinAt,
		Mode:              domain.AccountMode(m.Mode),
		Status:            domain.AccountStatus(m.Status),
		LastStartedAt:     m.LastStartedAt,
		LastStoppedAt:     m.LastStoppedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// warmupChannelModel is the gorm mapping of the warmup_channels table.
type warmupChannelModel struct {
	ID            int64      `gorm:"primaryKey"`
	AccountID     int64      `gorm:"column:account_id"`
	Channel       string     `gorm:"column:channel"`
	Position      int        `gorm:"column:position"`
	Status        string     `gorm:"column:status"`
	Error         string     `gorm:"column:error"`
	Attempts      int        `gorm:"column:attempts"`
	LastAttemptAt *time.Time `gorm:"column:last_attempt_at"`
	JoinedAt      *time.Time `gorm:"column:joined_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (warmupChannelModel) TableName() string {
	return "warmup_channels"
}

func (m *warmupChannelModel) toDomain() domain.WarmupEntry {
	return domain.WarmupEntry{
		ID:            m.ID,
		AccountID:     m.AccountID,
		Channel:       m.Channel,
		Position:      m.Position,
		Status:        domain.QueueStatus(m.Status),
		Error:         m.Error,
		Attempts:      m.Attempts,
		LastAttemptAt: m.LastAttemptAt,
		JoinedAt:      m.JoinedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// commentLogModel is the gorm mapping of the comment_logs table.
type commentLogModel struct {
	ID        int64     `gorm:"primaryKey"`
	AccountID int64     `gorm:"column:account_id"`
	Channel   string    `gorm:"column:channel"`
	MessageID int64     `gorm:"column:message_id"`
	Status    string    `gorm:"column:status"`
	Error     string    `gorm:"column:error"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (commentLogModel) TableName() string {
	return "comment_logs"
}
