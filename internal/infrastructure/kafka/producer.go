package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Event types published to the audit stream.
const (
	EventCommentPosted = "comment_posted"
	EventChannelJoined = "channel_joined"
	EventModeChanged   = "mode_changed"
)

// Event is the wire format of one audit record. Events are keyed by account
// so downstream consumers see a per-account ordering.
type Event struct {
	Type      string    `json:"type"`
	AccountID int64     `json:"account_id"`
	Channel   string    `json:"channel,omitempty"`
	MessageID int       `json:"message_id,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Producer publishes audit events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewProducer creates a Kafka producer for the audit topic.
func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		logger: logger.With().Str("component", "kafka_producer").Logger(),
	}
}

func (p *Producer) publish(ctx context.Context, event Event) error {
	event.Timestamp = time.Now().UTC()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AccountID, 10)),
		Value: value,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("failed to publish event")
		return fmt.Errorf("failed to write message: %w", err)
	}

	p.logger.Debug().Str("type", event.Type).Int64("account_id", event.AccountID).Msg("event published")
	return nil
}

// CommentPosted records a successfully sent comment.
func (p *Producer) CommentPosted(ctx context.Context, accountID int64, channel string, messageID int) error {
	return p.publish(ctx, Event{
		Type:      EventCommentPosted,
		AccountID: accountID,
		Channel:   channel,
		MessageID: messageID,
	})
}

// ChannelJoined records a warmup channel join.
func (p *Producer) ChannelJoined(ctx context.Context, accountID int64, channel string) error {
	return p.publish(ctx, Event{
		Type:      EventChannelJoined,
		AccountID: accountID,
		Channel:   channel,
	})
}

// ModeChanged records an account switching between warmup and standard.
func (p *Producer) ModeChanged(ctx context.Context, accountID int64, mode domain.AccountMode) error {
	return p.publish(ctx, Event{
		Type:      EventModeChanged,
		AccountID: accountID,
		Mode:      string(mode),
	})
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
