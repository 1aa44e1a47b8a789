package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
	// MaxAttempts bounds handler attempts per message before it is
	// committed and skipped.
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a consumer group and feeds decoded events to a Handler.
type Consumer struct {
	reader    MessageReader
	handler   Handler
	cfg       ConsumerConfig
	metrics   *Metrics
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewConsumer creates a consumer group reader over cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, metrics *Metrics, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return NewConsumerWithReader(r, cfg, handler, metrics, logger)
}

// NewConsumerWithReader creates a consumer around an existing reader.
func NewConsumerWithReader(r MessageReader, cfg ConsumerConfig, handler Handler, metrics *Metrics, logger *slog.Logger) *Consumer {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if metrics == nil {
		metrics = noopMetrics()
	}
	return &Consumer{reader: r, handler: handler, cfg: cfg, metrics: metrics, logger: logger}
}

// Run consumes until ctx is cancelled. Every fetched message is committed
// exactly once: after success, after exhausting retries, or immediately when
// it cannot be decoded.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("group", c.cfg.GroupID),
		slog.Any("topics", c.cfg.Topics),
	)
	defer func() { _ = c.Close() }()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping", slog.String("group", c.cfg.GroupID))
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if !sleepCtx(ctx, c.cfg.RetryBackoff) {
				return nil
			}
			continue
		}

		if !c.process(ctx, msg) {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process returns false only when ctx was cancelled mid-retry; the message
// is then left uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	event, err := DecodeEvent(msg.Value)
	if err != nil {
		c.logger.Error("skipping undecodable message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.metrics.Failed.WithLabelValues(msg.Topic).Inc()
		return true
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	start := time.Now()
	defer func() {
		c.metrics.HandleDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}()

	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, event)
		if err == nil {
			c.metrics.Processed.WithLabelValues(msg.Topic).Inc()
			return true
		}
		if attempt >= c.cfg.MaxAttempts {
			c.logger.Error("handler failed after all attempts, skipping message",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			c.metrics.Failed.WithLabelValues(msg.Topic).Inc()
			return true
		}
		c.logger.Warn("handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if !sleepCtx(ctx, time.Duration(attempt)*c.cfg.RetryBackoff) {
			return false
		}
	}
}

// Close closes the reader. It is safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.reader.Close() })
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
