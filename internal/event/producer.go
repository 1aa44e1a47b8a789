package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for product events.
var (
	TopicProductCreated = pkgkafka.Topic(AggregateProduct, "created")
	TopicProductUpdated = pkgkafka.Topic(AggregateProduct, "updated")
	TopicProductDeleted = pkgkafka.Topic(AggregateProduct, "deleted")
)

// AggregateProduct is the aggregate name of product events.
const AggregateProduct = "product"

// Source identifies events written by this server.
const Source = "storefront"

// ProductData is the payload of product.created and product.updated.
type ProductData struct {
	ProductID     int64               `json:"product_id"`
	ProductName   string              `json:"product_name"`
	MRPPrice      decimal.Decimal     `json:"mrp_price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Quantity      int                 `json:"quantity"`
	CategoryID    int64               `json:"category_id"`
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ProductID int64 `json:"product_id"`
}

// Publisher writes an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes product events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new product event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// ProductCreated publishes a product.created event.
func (p *Producer) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, productData(product))
}

// ProductUpdated publishes a product.updated event.
func (p *Producer) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, productData(product))
}

// ProductDeleted publishes a product.deleted event.
func (p *Producer) ProductDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicProductDeleted, id, ProductDeletedData{ProductID: id})
}

func (p *Producer) publish(ctx context.Context, topic string, productID int64, data any) error {
	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(productID, 10), Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.Int64("product_id", productID),
	)
	return nil
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ProductID:     p.ID,
		ProductName:   p.Name,
		MRPPrice:      p.MRPPrice,
		DiscountPrice: p.DiscountPrice,
		Quantity:      p.Quantity,
		CategoryID:    p.CategoryID,
	}
}
