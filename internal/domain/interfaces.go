package domain

import (
	"context"
	"time"
)

// AccountRepository is the durable store of accounts. Every operation is an
// atomic single-row update; multi-step state changes tolerate re-entry.
type AccountRepository interface {
	// Get retrieves an account by its identifier.
	Get(ctx context.Context, id int64) (*Account, error)

	// GetByPhone retrieves an account by its owning user and phone.
	GetByPhone(ctx context.Context, userID int64, phone string) (*Account, error)

	// ListRunning returns all accounts with status = running.
	ListRunning(ctx context.Context) ([]Account, error)

	// ListWarmupRunning returns running accounts in warmup mode.
	ListWarmupRunning(ctx context.Context) ([]Account, error)

	// Ensure inserts the account if missing and returns the stored row.
	Ensure(ctx context.Context, userID int64, phone, sessionPath string) (*Account, error)

	// UpsertSettings applies a partial comment-policy update.
	UpsertSettings(ctx context.Context, id int64, settings AccountSettings) error

	// SetMode switches the account mode. For ModeWarmup a positive
	// warmupDays arms the expiry timestamp warmupDays from now and resets
	// the daily counters; for ModeStandard the next-join schedule is cleared.
	SetMode(ctx context.Context, id int64, mode AccountMode, warmupDays int) error

	// SetStatus persists the running/stopped flag.
	SetStatus(ctx context.Context, id int64, status AccountStatus) error

	// SetWarmupChannels replaces the saved base channel list.
	SetWarmupChannels(ctx context.Context, id int64, channels []string) error

	// IncrementDailyJoins bumps the per-day join counter and stamps the
	// last-join date and timestamp.
	IncrementDailyJoins(ctx context.Context, id int64) error

	// ResetDailyState zeroes the per-day counter for a new calendar day.
	// Calling it twice within the same day is equivalent to calling it once.
	ResetDailyState(ctx context.Context, id int64) error

	// ScheduleNextJoin records when the scanner should next attempt a join.
	ScheduleNextJoin(ctx context.Context, id int64, at time.Time) error

	// Delete removes the account; its queue entries cascade.
	Delete(ctx context.Context, userID int64, phone string) error
}

// WarmupQueueRepository is the durable per-account ordered queue of pending
// channel joins.
type WarmupQueueRepository interface {
	// Replace deletes all entries for the account and inserts the given
	// channels at ascending positions starting at 1.
	Replace(ctx context.Context, accountID int64, channels []string) error

	// NextPending returns up to limit lowest-position pending entries.
	NextPending(ctx context.Context, accountID int64, limit int) ([]WarmupEntry, error)

	// MarkJoined transitions one entry to joined and stamps the join time.
	MarkJoined(ctx context.Context, accountID int64, channel string) error

	// MarkError transitions one entry to error, increments its attempt
	// count and records the reason.
	MarkError(ctx context.Context, accountID int64, channel, reason string) error

	// Stats returns pending/joined/error counts for the account.
	Stats(ctx context.Context, accountID int64) (QueueStats, error)
}

// CommentLogRepository records comment attempt outcomes.
type CommentLogRepository interface {
	Add(ctx context.Context, entry *CommentLog) error
}

// PostHandler receives inbound posts from a client subscription.
type PostHandler func(ctx context.Context, post ChannelPost)

// TelegramClient is the per-account messaging client. Join and send
// operations fail with a credential-invalid kind distinguishable from a
// generic transport kind.
type TelegramClient interface {
	// Connect establishes the connection and restores the stored session.
	Connect(ctx context.Context) error

	// Disconnect shuts the connection down; the context bounds the wait.
	Disconnect(ctx context.Context) error

	// JoinChannel joins a channel by @username. Returns
	// ErrAlreadyParticipant when the account is already a member.
	JoinChannel(ctx context.Context, channel string) error

	// LeaveChannel leaves a channel by @username.
	LeaveChannel(ctx context.Context, channel string) error

	// JoinLinkedChat joins a linked discussion chat previously observed in
	// an inbound post.
	JoinLinkedChat(ctx context.Context, chatID int64) error

	// Subscribe registers the handler for inbound channel and linked
	// discussion posts. Must be called before Connect.
	Subscribe(handler PostHandler)

	// SendReply posts text as a reply to the given message.
	SendReply(ctx context.Context, chatID int64, inReplyTo int, text string) (*SentMessage, error)

	// IsConnected reports the live connection state.
	IsConnected() bool

	// AccountID returns a stable identifier for logging, e.g. the phone.
	AccountID() string
}

// ClientFactory builds a TelegramClient bound to one stored session.
type ClientFactory func(userID int64, phone string) (TelegramClient, error)

// ReplyGenerator produces reply text for a post. An empty result means no
// comment could be produced and the caller must skip.
type ReplyGenerator interface {
	Generate(ctx context.Context, sourceText, prompt string) string
}

// Notifier is a fire-and-forget sink for human-readable status lines. It
// never blocks core logic and never returns recoverable errors.
type Notifier interface {
	Notify(text string)
}

// EventProducer publishes audit events for downstream consumers.
type EventProducer interface {
	CommentPosted(ctx context.Context, accountID int64, channel string, messageID int) error
	ChannelJoined(ctx context.Context, accountID int64, channel string) error
	ModeChanged(ctx context.Context, accountID int64, mode AccountMode) error
	Close() error
}
