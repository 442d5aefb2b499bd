package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prbretas/JEWELRY/internal/catalog"
	"github.com/prbretas/JEWELRY/internal/checkout"
	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/internal/event"
	"github.com/prbretas/JEWELRY/internal/notify"
	"github.com/prbretas/JEWELRY/internal/repository"
	"github.com/prbretas/JEWELRY/internal/repository/memory"
	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
)

// --- Mock Snapshots ---

type mockSnapshots struct {
	mock.Mock
}

func (m *mockSnapshots) SaveCart(ctx context.Context, lines []domain.CartLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *mockSnapshots) LoadCart(ctx context.Context) ([]domain.CartLine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *mockSnapshots) SaveWishlist(ctx context.Context, ids []int) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *mockSnapshots) LoadWishlist(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	orders []event.CheckoutCompletedData
	err    error
}

func (p *recordingPublisher) record(topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) PublishCartUpdated(context.Context, event.CartUpdatedData) error {
	return p.record(event.TopicCartUpdated)
}

func (p *recordingPublisher) PublishCartCleared(context.Context, event.CartClearedData) error {
	return p.record(event.TopicCartCleared)
}

func (p *recordingPublisher) PublishWishlistUpdated(context.Context, event.WishlistUpdatedData) error {
	return p.record(event.TopicWishlistUpdated)
}

func (p *recordingPublisher) PublishCheckoutCompleted(_ context.Context, data event.CheckoutCompletedData) error {
	p.mu.Lock()
	p.orders = append(p.orders, data)
	p.mu.Unlock()
	return p.record(event.TopicCheckoutCompleted)
}

// --- Gateway stub ---

type gatewayFunc func(ctx context.Context, order checkout.Order) error

func (f gatewayFunc) Submit(ctx context.Context, order checkout.Order) error {
	return f(ctx, order)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]domain.Product{
		{ID: 1, Name: "Anel de Diamante Solitário", Price: decimal.RequireFromString("100.00")},
		{ID: 2, Name: "Colar de Pérolas", Price: decimal.RequireFromString("49.99")},
		{ID: 3, Name: "Brincos de Ouro Rosé", Price: decimal.RequireFromString("1599.99")},
		{
			ID:      5,
			Name:    "Anel de Ouro Personalizado",
			Price:   decimal.RequireFromString("100.00"),
			Details: domain.Details{domain.DetailMetal: "gold", domain.DetailSizes: []any{"15", "16", "17"}},
		},
	})
	require.NoError(t, err)
	return c
}

type fixture struct {
	svc       *SessionService
	store     *memory.Store
	snapshots *repository.SnapshotRepository
	inbox     *notify.Inbox
	events    *recordingPublisher
	deps      Dependencies
}

func newFixture(t *testing.T, opts ...func(*Dependencies)) *fixture {
	t.Helper()
	store := memory.New()
	inbox := notify.NewInbox(10)
	events := &recordingPublisher{}
	deps := Dependencies{
		Catalog:  testCatalog(t),
		Events:   events,
		Notifier: inbox,
		Gateway:  checkout.NewSimulated(0),
		Latency:  NoLatency,
		Logger:   newTestLogger(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	snapshots := repository.NewSnapshotRepository(repository.Scope(store, "abc"))
	return &fixture{
		svc:       NewSessionService("abc", snapshots, deps),
		store:     store,
		snapshots: snapshots,
		inbox:     inbox,
		events:    events,
		deps:      deps,
	}
}

func add(t *testing.T, svc *SessionService, id int, size, metal string, qty int) {
	t.Helper()
	_, err := svc.AddToCart(context.Background(), AddToCartInput{ProductID: id, Size: size, Metal: metal, Quantity: qty})
	require.NoError(t, err)
}

// --- AddToCart ---

func TestAddToCart_MergesSameVariant(t *testing.T) {
	f := newFixture(t)

	add(t, f.svc, 5, "16", "gold", 1)
	add(t, f.svc, 5, "16", "gold", 1)

	lines := f.svc.Cart()
	require.Len(t, lines, 1)
	assert.Equal(t, "5-16-gold", lines[0].VariantKey)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddToCart_DistinctVariantsAppendInOrder(t *testing.T) {
	f := newFixture(t)

	add(t, f.svc, 5, "16", "gold", 1)
	add(t, f.svc, 5, "17", "gold", 1)
	add(t, f.svc, 1, "", "", 1)

	var keys []string
	for _, l := range f.svc.Cart() {
		keys = append(keys, l.VariantKey)
	}
	assert.Equal(t, []string{"5-16-gold", "5-17-gold", "1--"}, keys)
}

func TestAddToCart_DefaultLabelMergesWithOmitted(t *testing.T) {
	f := newFixture(t)

	add(t, f.svc, 1, "", "", 1)
	add(t, f.svc, 1, domain.DefaultVariant, domain.DefaultVariant, 2)

	lines := f.svc.Cart()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, domain.DefaultVariant, lines[0].SelectedSize)
	assert.Equal(t, domain.DefaultVariant, lines[0].SelectedMetal)
}

func TestAddToCart_ReturnsAndDeliversNotification(t *testing.T) {
	f := newFixture(t)

	n, err := f.svc.AddToCart(context.Background(), AddToCartInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	want := domain.Notification{Message: domain.MsgAddedToCart, Severity: domain.SeveritySuccess}
	assert.Equal(t, want, n)
	assert.Equal(t, []domain.Notification{want}, f.inbox.Drain("abc"))
	assert.Equal(t, []string{event.TopicCartUpdated}, f.events.topics)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 1)
	f.inbox.Drain("abc")
	before := f.svc.Cart()

	_, err := f.svc.AddToCart(context.Background(), AddToCartInput{ProductID: 99999, Quantity: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, before, f.svc.Cart())

	notes := f.inbox.Drain("abc")
	require.Len(t, notes, 1)
	assert.Equal(t, domain.SeverityError, notes[0].Severity)
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	f := newFixture(t)

	for _, q := range []int{0, -3} {
		_, err := f.svc.AddToCart(context.Background(), AddToCartInput{ProductID: 1, Quantity: q})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	assert.Empty(t, f.svc.Cart())
}

func TestAddToCart_UnavailableSize(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddToCart(context.Background(), AddToCartInput{ProductID: 5, Size: "30", Quantity: 1})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, f.svc.Cart())
	assert.Equal(t,
		[]domain.Notification{{Message: domain.MsgSizeUnavailable, Severity: domain.SeverityError}},
		f.inbox.Drain("abc"))
}

func TestAddToCart_LatencyNotCancelledByCaller(t *testing.T) {
	f := newFixture(t, func(d *Dependencies) {
		d.Latency = FixedLatency{AddToCart: 10 * time.Millisecond}
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := f.svc.AddToCart(ctx, AddToCartInput{ProductID: 1, Quantity: 1})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, 1, f.svc.CartItemCount())
}

// --- UpdateQuantity / Remove / Clear ---

func TestUpdateQuantity_FloorAtOne(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 1)

	require.NoError(t, f.svc.UpdateQuantity(context.Background(), "1--", -1))

	lines := f.svc.Cart()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestUpdateQuantity_IncrementAndDecrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	add(t, f.svc, 1, "", "", 1)

	require.NoError(t, f.svc.UpdateQuantity(ctx, "1--", 1))
	require.NoError(t, f.svc.UpdateQuantity(ctx, "1--", 1))
	require.NoError(t, f.svc.UpdateQuantity(ctx, "1--", -1))

	assert.Equal(t, 2, f.svc.CartItemCount())
}

func TestUpdateQuantity_InvalidDelta(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 1)

	for _, d := range []int{0, 2, -5} {
		err := f.svc.UpdateQuantity(context.Background(), "1--", d)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	assert.Equal(t, 1, f.svc.CartItemCount())
}

func TestUpdateQuantity_MissingKeyIsNoop(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 1)

	require.NoError(t, f.svc.UpdateQuantity(context.Background(), "9--", 1))
	assert.Equal(t, 1, f.svc.CartItemCount())
}

func TestRemoveFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	add(t, f.svc, 1, "", "", 1)
	add(t, f.svc, 2, "", "", 1)

	f.svc.RemoveFromCart(ctx, "1--")
	f.svc.RemoveFromCart(ctx, "missing")

	lines := f.svc.Cart()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].ProductID)

	persisted, err := f.snapshots.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, lines, persisted)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 2)

	f.svc.ClearCart(context.Background())

	assert.Empty(t, f.svc.Cart())
	assert.Equal(t, 0, f.svc.CartItemCount())
	assert.Contains(t, f.events.topics, event.TopicCartCleared)
}

// --- Totals and views ---

func TestCartTotal_Exact(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 2)
	add(t, f.svc, 2, "", "", 1)

	total := f.svc.CartTotal()
	assert.True(t, total.Equal(decimal.RequireFromString("249.99")), "got %s", total)
	assert.Equal(t, 3, f.svc.CartItemCount())
}

func TestCartTotal_Empty(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.svc.CartTotal().IsZero())
	assert.Equal(t, 0, f.svc.CartItemCount())
}

func TestCartView(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 2)
	add(t, f.svc, 2, "", "", 1)

	view := f.svc.CartView()

	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Anel de Diamante Solitário", view.Lines[0].Name)
	assert.True(t, view.Lines[0].Subtotal.Equal(decimal.RequireFromString("200")))
	assert.True(t, view.Lines[1].UnitPrice.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, "249.99", view.Total.StringFixed(2))
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, domain.Currency, view.Currency)
}

// --- Wishlist ---

func TestToggleWishlist_TwiceRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []int{3, 1, 2} {
		_, _, err := f.svc.ToggleWishlist(ctx, id)
		require.NoError(t, err)
	}

	for _, id := range []int{1, 5} {
		before := f.svc.Wishlist()

		_, _, err := f.svc.ToggleWishlist(ctx, id)
		require.NoError(t, err)
		_, _, err = f.svc.ToggleWishlist(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, before, f.svc.Wishlist(), "product %d", id)
	}
}

func TestToggleWishlist_MembershipAndNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, n, err := f.svc.ToggleWishlist(ctx, 2)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, f.svc.Contains(2))
	assert.Equal(t, domain.MsgAddedToWishlist, n.Message)

	added, n, err = f.svc.ToggleWishlist(ctx, 2)
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, f.svc.Contains(2))
	assert.Equal(t, domain.SeverityInfo, n.Severity)
}

func TestToggleWishlist_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ToggleWishlist(context.Background(), 99999)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Empty(t, f.svc.Wishlist())
}

func TestClearWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.ToggleWishlist(ctx, 1)
	require.NoError(t, err)

	f.svc.ClearWishlist(ctx)

	assert.Empty(t, f.svc.Wishlist())
	persisted, err := f.snapshots.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestShareWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []int{2, 1} {
		_, _, err := f.svc.ToggleWishlist(ctx, id)
		require.NoError(t, err)
	}

	assert.Equal(t, "Minha Lista de Desejos:\nColar de Pérolas\nAnel de Diamante Solitário", f.svc.ShareWishlist())

	view := f.svc.WishlistView()
	assert.Equal(t, 2, view.Count)
}

func TestShareWishlist_Empty(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "Minha Lista de Desejos:\n", f.svc.ShareWishlist())
}

// --- Checkout ---

func TestCheckout_ClearsCart(t *testing.T) {
	f := newFixture(t)
	add(t, f.svc, 1, "", "", 1)
	add(t, f.svc, 2, "", "", 1)
	add(t, f.svc, 5, "16", "gold", 1)

	res, err := f.svc.Checkout(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderID)
	assert.Equal(t, 3, res.ItemCount)
	assert.Equal(t, "249.99", res.Total.StringFixed(2))
	assert.Equal(t, domain.MsgCheckoutCompleted, res.Notification.Message)

	assert.Empty(t, f.svc.Cart())
	assert.Equal(t, 0, f.svc.CartItemCount())

	persisted, err := f.snapshots.LoadCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)

	require.Len(t, f.events.orders, 1)
	assert.Equal(t, res.OrderID, f.events.orders[0].OrderID)
	assert.Len(t, f.events.orders[0].Lines, 3)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.svc.Cart())
	assert.Equal(t, []domain.Notification{{Message: domain.MsgEmptyCart, Severity: domain.SeverityError}}, f.inbox.Drain("abc"))
}

func TestCheckout_ClearsOnlyAfterGatewayAccepts(t *testing.T) {
	var persistedDuringSubmit []domain.CartLine
	var f *fixture
	f = newFixture(t, func(d *Dependencies) {
		d.Gateway = gatewayFunc(func(ctx context.Context, order checkout.Order) error {
			lines, err := f.snapshots.LoadCart(ctx)
			persistedDuringSubmit = lines
			return err
		})
	})
	add(t, f.svc, 1, "", "", 2)

	_, err := f.svc.Checkout(context.Background())

	require.NoError(t, err)
	require.Len(t, persistedDuringSubmit, 1)
	assert.Empty(t, f.svc.Cart())
}

func TestCheckout_GatewayFailureKeepsCart(t *testing.T) {
	rejected := apperrors.Unprocessable("OUT_OF_STOCK", "checkout: sold out", nil)
	f := newFixture(t, func(d *Dependencies) {
		d.Gateway = gatewayFunc(func(context.Context, checkout.Order) error { return rejected })
	})
	add(t, f.svc, 1, "", "", 2)
	f.inbox.Drain("abc")

	_, err := f.svc.Checkout(context.Background())

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "OUT_OF_STOCK", appErr.Code)
	assert.Equal(t, 2, f.svc.CartItemCount())
	assert.Equal(t, domain.SeverityError, f.inbox.Drain("abc")[0].Severity)
	assert.Empty(t, f.events.orders)
}

func TestCheckout_GatewayNotCancelledByCaller(t *testing.T) {
	var sawCancel bool
	f := newFixture(t, func(d *Dependencies) {
		d.Gateway = gatewayFunc(func(ctx context.Context, _ checkout.Order) error {
			sawCancel = ctx.Err() != nil
			return nil
		})
	})
	add(t, f.svc, 1, "", "", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Checkout(ctx)

	require.NoError(t, err)
	assert.False(t, sawCancel)
}

// --- Persistence ---

func TestPersistence_RoundTripAcrossRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	add(t, f.svc, 5, "16", "gold", 2)
	add(t, f.svc, 1, "", "", 1)
	_, _, err := f.svc.ToggleWishlist(ctx, 3)
	require.NoError(t, err)

	restarted := NewSessionService("abc", f.snapshots, f.deps)
	restarted.Rehydrate(ctx)

	if diff := cmp.Diff(f.svc.Cart(), restarted.Cart()); diff != "" {
		t.Errorf("cart after restart mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{3}, restarted.Wishlist())
}

func TestPersistence_WriteFailureIsSwallowed(t *testing.T) {
	snapshots := new(mockSnapshots)
	snapshots.On("SaveCart", mock.Anything, mock.Anything).Return(errors.New("quota exceeded"))
	deps := Dependencies{Catalog: testCatalog(t), Logger: newTestLogger()}
	svc := NewSessionService("abc", snapshots, deps)

	before := promtestutil.ToFloat64(PersistenceWriteFailures.WithLabelValues(repository.KeyCart))

	n, err := svc.AddToCart(context.Background(), AddToCartInput{ProductID: 1, Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.SeveritySuccess, n.Severity)
	assert.Equal(t, 1, svc.CartItemCount())
	assert.Equal(t, before+1, promtestutil.ToFloat64(PersistenceWriteFailures.WithLabelValues(repository.KeyCart)))
	snapshots.AssertExpectations(t)
}

func TestRehydrate_RepairsSnapshot(t *testing.T) {
	snapshots := new(mockSnapshots)
	snapshots.On("LoadCart", mock.Anything).Return([]domain.CartLine{
		{VariantKey: "1--", ProductID: 1, SelectedSize: domain.DefaultVariant, SelectedMetal: domain.DefaultVariant, Quantity: 1},
		{VariantKey: "stale", ProductID: 1, SelectedSize: "", SelectedMetal: "", Quantity: 2},
		{VariantKey: "2--", ProductID: 2, SelectedSize: domain.DefaultVariant, SelectedMetal: domain.DefaultVariant, Quantity: 0},
		{VariantKey: "404--", ProductID: 404, SelectedSize: domain.DefaultVariant, SelectedMetal: domain.DefaultVariant, Quantity: 1},
	}, nil)
	snapshots.On("LoadWishlist", mock.Anything).Return([]int{2, 1, 2}, nil)
	snapshots.On("SaveCart", mock.Anything, []domain.CartLine{
		{VariantKey: "1--", ProductID: 1, SelectedSize: domain.DefaultVariant, SelectedMetal: domain.DefaultVariant, Quantity: 3},
	}).Return(nil)
	snapshots.On("SaveWishlist", mock.Anything, []int{2, 1}).Return(nil)

	svc := NewSessionService("abc", snapshots, Dependencies{Catalog: testCatalog(t), Logger: newTestLogger()})
	svc.Rehydrate(context.Background())

	assert.Equal(t, 3, svc.CartItemCount())
	assert.Equal(t, []int{2, 1}, svc.Wishlist())
	snapshots.AssertExpectations(t)
}

func TestRehydrate_LoadErrorStartsEmpty(t *testing.T) {
	snapshots := new(mockSnapshots)
	snapshots.On("LoadCart", mock.Anything).Return(nil, errors.New("corrupt"))
	snapshots.On("LoadWishlist", mock.Anything).Return(nil, errors.New("corrupt"))

	svc := NewSessionService("abc", snapshots, Dependencies{Catalog: testCatalog(t), Logger: newTestLogger()})
	svc.Rehydrate(context.Background())

	assert.Empty(t, svc.Cart())
	assert.Empty(t, svc.Wishlist())
	snapshots.AssertExpectations(t)
}

func TestEvents_PublishFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	add(t, f.svc, 1, "", "", 1)
	_, err := f.svc.Checkout(context.Background())

	require.NoError(t, err)
	assert.Empty(t, f.svc.Cart())
}

func TestOperationsOnOneSessionDoNotInterleave(t *testing.T) {
	f := newFixture(t, func(d *Dependencies) {
		d.Latency = FixedLatency{AddToCart: time.Millisecond}
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddToCart(context.Background(), AddToCartInput{ProductID: 5, Size: "16", Metal: "gold", Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines := f.svc.Cart()
	require.Len(t, lines, 1)
	assert.Equal(t, 20, lines[0].Quantity)
}
