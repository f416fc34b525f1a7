package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/metrics"
)

// Skip reasons recorded on the comments-skipped counter.
const (
	skipReasonChance     = "chance"
	skipReasonQuiet      = "quiet"
	skipReasonNoSend     = "no_send_rights"
	skipReasonEmptyReply = "empty_reply"
	skipReasonCancelled  = "cancelled"
)

// Worker holds one account's live connection and reacts to inbound posts:
// auto-joins linked discussion chats and posts generated replies under the
// account's chance, quiet-period and delay policy.
type Worker struct {
	account *domain.Account
	client  domain.TelegramClient

	policy    *Policy
	gate      *Gate
	comments  domain.CommentLogRepository
	generator domain.ReplyGenerator
	notifier  domain.Notifier
	events    domain.EventProducer
	metrics   *metrics.Metrics
	cfg       *config.WorkerConfig
	logger    zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// At most one quiet-period notification per worker session.
	quietOnce sync.Once

	// Injection points for deterministic tests.
	roll  func(n int) int
	sleep func(ctx context.Context, d time.Duration) bool
	now   func() time.Time
}

// WorkerDeps bundles the collaborators a worker needs.
type WorkerDeps struct {
	Policy    *Policy
	Gate      *Gate
	Comments  domain.CommentLogRepository
	Generator domain.ReplyGenerator
	Notifier  domain.Notifier
	Events    domain.EventProducer
	Metrics   *metrics.Metrics
	Config    *config.WorkerConfig
	Logger    zerolog.Logger
}

// NewWorker creates a worker for one account. The account value is a
// snapshot; settings changes take effect on the next start.
func NewWorker(account *domain.Account, client domain.TelegramClient, deps WorkerDeps) *Worker {
	w := &Worker{
		account:   account,
		client:    client,
		policy:    deps.Policy,
		gate:      deps.Gate,
		comments:  deps.Comments,
		generator: deps.Generator,
		notifier:  deps.Notifier,
		events:    deps.Events,
		metrics:   deps.Metrics,
		cfg:       deps.Config,
		logger:    deps.Logger.With().Str("component", "account_worker").Int64("account_id", account.ID).Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		roll:      rand.Intn,
		now:       time.Now,
	}
	w.sleep = w.interruptibleSleep
	return w
}

// Start acquires a connection slot, connects and begins watching the
// connection. It returns once the session is live or with the error that
// prevented it.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.gate.Acquire(ctx); err != nil {
		return fmt.Errorf("waiting for connection slot: %w", err)
	}

	w.client.Subscribe(w.handlePost)

	connectCtx, cancel := context.WithTimeout(ctx, w.cfg.ConnectTimeout)
	defer cancel()

	if err := w.client.Connect(connectCtx); err != nil {
		w.gate.Release()
		return err
	}

	w.metrics.LiveWorkers.Inc()
	w.logger.Info().Msg("worker started")

	go w.watch()
	return nil
}

// watch polls the connection until Stop is called or the connection drops.
func (w *Worker) watch() {
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), w.cfg.ShutdownTimeout)
		if err := w.client.Disconnect(disconnectCtx); err != nil {
			w.logger.Warn().Err(err).Msg("disconnect failed")
		}
		cancel()
		w.gate.Release()
		w.metrics.LiveWorkers.Dec()
		close(w.done)
		w.logger.Info().Msg("worker stopped")
	}()

	ticker := time.NewTicker(w.cfg.StopPoll)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			if !w.client.IsConnected() {
				w.metrics.WorkerFailures.Inc()
				w.logger.Error().Msg("connection lost, terminating worker")
				return
			}
		}
	}
}

// Stop signals the worker and waits for shutdown, bounded by ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done exposes the shutdown signal for callers that clean up after the
// worker terminates on its own.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// handlePost is the subscription callback for every inbound post.
func (w *Worker) handlePost(ctx context.Context, post domain.ChannelPost) {
	if !post.Discussion {
		w.handleBroadcastPost(ctx, post)
		return
	}
	w.handleDiscussionPost(ctx, post)
}

// handleBroadcastPost keeps the account a member of the discussion chat
// linked to a monitored broadcast channel so its posts arrive here too.
func (w *Worker) handleBroadcastPost(ctx context.Context, post domain.ChannelPost) {
	if post.LinkedChatID == 0 {
		return
	}

	err := w.client.JoinLinkedChat(ctx, post.LinkedChatID)
	if err != nil && err != domain.ErrAlreadyParticipant {
		w.logger.Warn().Err(err).Int64("chat_id", post.LinkedChatID).Msg("failed to join linked chat")
	}
}

// handleDiscussionPost runs the full comment decision chain for one post:
// chance roll, quiet period, randomized delay, generation, send.
func (w *Worker) handleDiscussionPost(ctx context.Context, post domain.ChannelPost) {
	logger := w.logger.With().Int64("chat_id", post.ChatID).Int("message_id", post.MessageID).Logger()

	if !post.CanSend {
		w.metrics.CommentsSkipped.WithLabelValues(skipReasonNoSend).Inc()
		logger.Debug().Msg("chat forbids sending, skipping")
		return
	}

	if w.roll(100) >= w.account.Chance {
		w.metrics.CommentsSkipped.WithLabelValues(skipReasonChance).Inc()
		logger.Debug().Int("chance", w.account.Chance).Msg("chance roll failed, skipping")
		w.notifier.Notify(fmt.Sprintf("account %d: skipped post %d in chat %d (chance roll)", w.account.ID, post.MessageID, post.ChatID))
		return
	}

	if w.policy.InQuietPeriod(w.now()) {
		w.metrics.CommentsSkipped.WithLabelValues(skipReasonQuiet).Inc()
		w.notifyQuietOnce()
		logger.Debug().Msg("quiet period, skipping")
		return
	}

	if !w.sleep(ctx, w.replyDelay()) {
		w.metrics.CommentsSkipped.WithLabelValues(skipReasonCancelled).Inc()
		return
	}

	reply := w.generator.Generate(ctx, post.Text, w.account.SystemPrompt)
	if reply == "" {
		w.metrics.CommentsSkipped.WithLabelValues(skipReasonEmptyReply).Inc()
		logger.Debug().Msg("no reply generated, skipping")
		return
	}

	sent, err := w.client.SendReply(ctx, post.ChatID, post.MessageID, reply)
	if err != nil {
		w.metrics.CommentErrors.Inc()
		logger.Error().Err(err).Msg("failed to send reply")
		w.recordComment(ctx, post, domain.CommentStatusError, err.Error())
		return
	}

	w.metrics.CommentsPosted.Inc()
	logger.Info().Int("reply_id", sent.ID).Msg("reply posted")
	w.recordComment(ctx, post, domain.CommentStatusSuccess, "")
	w.notifier.Notify(fmt.Sprintf("account %d: comment %d posted in chat %d", w.account.ID, sent.ID, post.ChatID))

	if err := w.events.CommentPosted(ctx, w.account.ID, strconv.FormatInt(post.ChatID, 10), sent.ID); err != nil {
		logger.Warn().Err(err).Msg("failed to publish comment event")
	}
}

// replyDelay draws a uniform delay from the account's sleep bounds.
func (w *Worker) replyDelay() time.Duration {
	min, max := w.account.SleepMin, w.account.SleepMax
	if max < min {
		max = min
	}
	seconds := min
	if span := max - min; span > 0 {
		seconds += w.roll(span + 1)
	}
	return time.Duration(seconds) * time.Second
}

// notifyQuietOnce reports a quiet-period skip to the operator channel, at
// most once per worker session.
func (w *Worker) notifyQuietOnce() {
	w.quietOnce.Do(func() {
		w.notifier.Notify(fmt.Sprintf("account %d: quiet period active, holding comments", w.account.ID))
	})
}

func (w *Worker) recordComment(ctx context.Context, post domain.ChannelPost, status, errText string) {
	entry := &domain.CommentLog{
		AccountID: w.account.ID,
		Channel:   strconv.FormatInt(post.ChatID, 10),
		MessageID: int64(post.MessageID),
		Status:    status,
		Error:     errText,
	}
	if err := w.comments.Add(ctx, entry); err != nil {
		w.logger.Error().Err(err).Msg("failed to record comment log")
	}
}

func (w *Worker) interruptibleSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}
