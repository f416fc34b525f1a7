package domain

import "time"

// AccountMode is the lifecycle phase of a managed account.
type AccountMode string

const (
	// ModeWarmup means the account only joins channels to build history.
	ModeWarmup AccountMode = "warmup"
	// ModeStandard means the account monitors channels and posts replies.
	ModeStandard AccountMode = "standard"
)

// IsValid reports whether the mode is one of the known variants.
func (m AccountMode) IsValid() bool {
	return m == ModeWarmup || m == ModeStandard
}

// AccountStatus is the operator-visible run state of an account.
type AccountStatus string

const (
	StatusStopped AccountStatus = "stopped"
	StatusRunning AccountStatus = "running"
)

// IsValid reports whether the status is one of the known variants.
func (s AccountStatus) IsValid() bool {
	return s == StatusStopped || s == StatusRunning
}

// QueueStatus is the state of a single warmup queue entry.
type QueueStatus string

const (
	QueuePending QueueStatus = "pending"
	QueueJoined  QueueStatus = "joined"
	QueueError   QueueStatus = "error"
)

// Account represents one managed Telegram identity.
type Account struct {
	ID          int64
	UserID      int64
	Phone       string
	SessionPath string

	// Comment policy
	Chance       int
	SystemPrompt string
	SleepMin     int
	SleepMax     int
	Channels     []string // actively monitored comment-source channels

	// Warmup policy
	WarmupChannels    []string // saved base list, source of truth for reseeding
	WarmupEndAt       *time.Time
	WarmupJoinedToday int
	WarmupLastJoin    *time.Time // date of the last join, UTC day resolution
	WarmupLastJoinAt  *time.Time
	WarmupNextJoinAt  *time.Time

	Mode   AccountMode
	Status AccountStatus

	LastStartedAt *time.Time
	LastStoppedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AccountSettings is a partial update of the comment policy fields.
// Nil pointers leave the stored value untouched.
type AccountSettings struct {
	Chance       *int
	SystemPrompt *string
	SleepMin     *int
	SleepMax     *int
	Channels     []string
}

// WarmupEntry is one pending or attempted channel join for an account.
type WarmupEntry struct {
	ID            int64
	AccountID     int64
	Channel       string
	Position      int
	Status        QueueStatus
	Error         string
	Attempts      int
	LastAttemptAt *time.Time
	JoinedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueueStats aggregates warmup queue entry counts per status.
type QueueStats struct {
	Pending int
	Joined  int
	Error   int
}

// CommentLog records one comment attempt outcome.
type CommentLog struct {
	ID        int64
	AccountID int64
	Channel   string
	MessageID int64
	Status    string
	Error     string
	CreatedAt time.Time
}

const (
	CommentStatusSuccess = "success"
	CommentStatusError   = "error"
)

// ChannelPost is an inbound message observed by a worker's subscription.
type ChannelPost struct {
	ChatID    int64
	MessageID int
	Text      string

	// Discussion is true when the post arrived in a linked discussion
	// group rather than the broadcast channel itself.
	Discussion bool

	// LinkedChatID is the discussion group linked to a broadcast channel,
	// zero when the channel has none or the post is itself a discussion post.
	LinkedChatID int64

	// CanSend is true when the chat permits posting messages.
	CanSend bool
}

// SentMessage identifies a reply the worker posted.
type SentMessage struct {
	ID     int
	ChatID int64
}
