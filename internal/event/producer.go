package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/prbretas/JEWELRY/internal/domain"
	pkgkafka "github.com/prbretas/JEWELRY/pkg/kafka"
	"github.com/prbretas/JEWELRY/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated       = pkgkafka.Topic("cart", "updated")
	TopicCartCleared       = pkgkafka.Topic("cart", "cleared")
	TopicWishlistUpdated   = pkgkafka.Topic("wishlist", "updated")
	TopicCheckoutCompleted = pkgkafka.Topic("checkout", "completed")
)

// Entities named in the event envelope.
const (
	EntityCart     = "cart"
	EntityWishlist = "wishlist"
	EntityOrder    = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Reasons carried by cart.cleared.
const (
	ClearedByShopper  = "shopper"
	ClearedByCheckout = "checkout"
)

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string            `json:"session_id"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Total     decimal.Decimal   `json:"total"`
	Currency  string            `json:"currency"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	SessionID  string `json:"session_id"`
	ProductIDs []int  `json:"product_ids"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	SessionID string            `json:"session_id"`
	OrderID   string            `json:"order_id"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Total     decimal.Decimal   `json:"total"`
	Currency  string            `json:"currency"`
}

// Publisher publishes storefront domain events.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, data CartUpdatedData) error
	PublishCartCleared(ctx context.Context, data CartClearedData) error
	PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) error
	PublishCheckoutCompleted(ctx context.Context, data CheckoutCompletedData) error
}

// eventWriter is the part of *pkgkafka.Producer the publisher needs.
type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  eventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return newProducer(kafka, logger)
}

func newProducer(w eventWriter, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  w,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) error {
	if err := p.publish(ctx, TopicCartUpdated, data.SessionID, EntityCart, data); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", data.SessionID),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, data CartClearedData) error {
	return p.publish(ctx, TopicCartCleared, data.SessionID, EntityCart, data)
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) error {
	return p.publish(ctx, TopicWishlistUpdated, data.SessionID, EntityWishlist, data)
}

// PublishCheckoutCompleted publishes a checkout.completed event keyed by the order id.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, data CheckoutCompletedData) error {
	if err := p.publish(ctx, TopicCheckoutCompleted, data.OrderID, EntityOrder, data); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "published checkout.completed event",
		slog.String("session_id", data.SessionID),
		slog.String("order_id", data.OrderID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, key, entity string, data any) error {
	event, err := pkgkafka.NewEvent(topic, key, entity, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Noop discards every event. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishCartUpdated(context.Context, CartUpdatedData) error             { return nil }
func (Noop) PublishCartCleared(context.Context, CartClearedData) error             { return nil }
func (Noop) PublishWishlistUpdated(context.Context, WishlistUpdatedData) error     { return nil }
func (Noop) PublishCheckoutCompleted(context.Context, CheckoutCompletedData) error { return nil }
