package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prbretas/JEWELRY/internal/domain"
	pkgkafka "github.com/prbretas/JEWELRY/pkg/kafka"
	"github.com/prbretas/JEWELRY/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakeWriter struct {
	sent []published
	err  error
}

func (f *fakeWriter) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: event})
	return nil
}

func newTestProducer(w *fakeWriter) *Producer {
	return newProducer(w, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.cart.updated", TopicCartUpdated)
	assert.Equal(t, "storefront.cart.cleared", TopicCartCleared)
	assert.Equal(t, "storefront.wishlist.updated", TopicWishlistUpdated)
	assert.Equal(t, "storefront.checkout.completed", TopicCheckoutCompleted)
}

func TestPublishCartUpdated(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	err := p.PublishCartUpdated(ctx, CartUpdatedData{
		SessionID: "abc",
		Lines:     []domain.CartLine{domain.NewCartLine(5, "16", "gold", 2)},
		ItemCount: 2,
		Total:     decimal.RequireFromString("200.00"),
		Currency:  domain.Currency,
	})
	require.NoError(t, err)
	require.Len(t, w.sent, 1)

	ev := w.sent[0].event
	assert.Equal(t, TopicCartUpdated, w.sent[0].topic)
	assert.Equal(t, TopicCartUpdated, ev.Type)
	assert.Equal(t, "abc", ev.Key)
	assert.Equal(t, EntityCart, ev.Entity)
	assert.Equal(t, SourceStorefront, ev.Source)
	assert.Equal(t, "corr-1", ev.CorrelationID)

	var data CartUpdatedData
	require.NoError(t, ev.DecodeData(&data))
	assert.Equal(t, "5-16-gold", data.Lines[0].VariantKey)
	assert.True(t, data.Total.Equal(decimal.NewFromInt(200)))
}

func TestPublishCheckoutCompleted_KeyedByOrder(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	err := p.PublishCheckoutCompleted(context.Background(), CheckoutCompletedData{
		SessionID: "abc",
		OrderID:   "order-1",
	})
	require.NoError(t, err)
	require.Len(t, w.sent, 1)
	assert.Equal(t, "order-1", w.sent[0].event.Key)
	assert.Equal(t, EntityOrder, w.sent[0].event.Entity)
	assert.Empty(t, w.sent[0].event.CorrelationID)
}

func TestPublish_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newTestProducer(&fakeWriter{err: boom})

	err := p.PublishWishlistUpdated(context.Background(), WishlistUpdatedData{SessionID: "abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), TopicWishlistUpdated)

	err = p.PublishCartCleared(context.Background(), CartClearedData{SessionID: "abc", Reason: ClearedByShopper})
	assert.ErrorIs(t, err, boom)
}

func TestNoop(t *testing.T) {
	var pub Publisher = Noop{}
	ctx := context.Background()

	assert.NoError(t, pub.PublishCartUpdated(ctx, CartUpdatedData{}))
	assert.NoError(t, pub.PublishCartCleared(ctx, CartClearedData{}))
	assert.NoError(t, pub.PublishWishlistUpdated(ctx, WishlistUpdatedData{}))
	assert.NoError(t, pub.PublishCheckoutCompleted(ctx, CheckoutCompletedData{}))
}
