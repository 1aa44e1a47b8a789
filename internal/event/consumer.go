package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// IndexTopics are the topics the index consumer subscribes to.
func IndexTopics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// ProductSyncer applies product changes to the search index.
type ProductSyncer interface {
	// SyncProduct reloads the product from the record store and upserts
	// or removes its document accordingly.
	SyncProduct(ctx context.Context, id int64) error
	RemoveProduct(ctx context.Context, id int64) error
}

// IndexConsumer applies product events to the search index. It is the
// retry path for index writes that failed inline.
type IndexConsumer struct {
	syncer ProductSyncer
	logger *slog.Logger
}

// NewIndexConsumer creates a new index consumer.
func NewIndexConsumer(syncer ProductSyncer, logger *slog.Logger) *IndexConsumer {
	return &IndexConsumer{
		syncer: syncer,
		logger: logger,
	}
}

// Handle processes one product event. Created and updated events reload the
// product rather than trusting the payload, so replays and reordering cannot
// write stale data.
func (c *IndexConsumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		var data ProductData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
		if err := c.syncer.SyncProduct(ctx, data.ProductID); err != nil {
			return fmt.Errorf("sync product from %s: %w", event.EventType, err)
		}
		c.logger.InfoContext(ctx, "synced product from event",
			slog.String("event_type", event.EventType),
			slog.Int64("product_id", data.ProductID),
		)
	case TopicProductDeleted:
		var data ProductDeletedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
		if err := c.syncer.RemoveProduct(ctx, data.ProductID); err != nil {
			return fmt.Errorf("remove product from %s: %w", event.EventType, err)
		}
		c.logger.InfoContext(ctx, "removed product from event",
			slog.Int64("product_id", data.ProductID),
		)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
	}
	return nil
}

// Handler returns Handle guarded against redelivered events.
func (c *IndexConsumer) Handler(store pkgkafka.IdempotencyStore, metrics *pkgkafka.Metrics) pkgkafka.Handler {
	return pkgkafka.IdempotentHandler(store, c.Handle, metrics, c.logger)
}
