package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prbretas/JEWELRY/internal/checkout"
	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/internal/event"
	"github.com/prbretas/JEWELRY/internal/notify"
	"github.com/prbretas/JEWELRY/internal/repository"
	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
)

// Dependencies are shared by every session.
type Dependencies struct {
	Catalog  domain.ProductFinder
	Events   event.Publisher
	Notifier notify.Notifier
	Gateway  checkout.Gateway
	Latency  Latency
	Logger   *slog.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Events == nil {
		d.Events = event.Noop{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Multi{}
	}
	if d.Gateway == nil {
		d.Gateway = checkout.NewSimulated(0)
	}
	if d.Latency == nil {
		d.Latency = NoLatency
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// AddToCartInput holds the parameters for adding a product to the cart.
// Empty Size or Metal mean the default variant.
type AddToCartInput struct {
	ProductID int
	Size      string
	Metal     string
	Quantity  int
}

// CheckoutResult describes a completed checkout.
type CheckoutResult struct {
	OrderID      string              `json:"order_id"`
	Total        decimal.Decimal     `json:"total"`
	ItemCount    int                 `json:"item_count"`
	Currency     string              `json:"currency"`
	Notification domain.Notification `json:"notification"`
}

// SessionService owns the cart and wishlist of one session. Operations are
// serialized: the mutex is held for the whole operation, simulated latency
// included, so two operations on one session never interleave.
type SessionService struct {
	id        string
	snapshots repository.Snapshots
	deps      Dependencies
	logger    *slog.Logger

	mu       sync.Mutex
	cart     domain.Cart
	wishlist domain.Wishlist
}

// NewSessionService creates an empty session. Call Rehydrate to restore
// persisted state.
func NewSessionService(sessionID string, snapshots repository.Snapshots, deps Dependencies) *SessionService {
	deps = deps.withDefaults()
	return &SessionService{
		id:        sessionID,
		snapshots: snapshots,
		deps:      deps,
		logger:    deps.Logger.With(slog.String("session_id", sessionID)),
	}
}

// ID returns the session id.
func (s *SessionService) ID() string {
	return s.id
}

// Rehydrate replaces the in-memory state with the persisted snapshots,
// repairing them against the catalog. Unreadable snapshots start the session
// empty.
func (s *SessionService) Rehydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rehydrateLocked(ctx)
}

func (s *SessionService) rehydrateLocked(ctx context.Context) {
	lines, err := s.snapshots.LoadCart(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load cart snapshot, starting empty",
			slog.String("error", err.Error()),
		)
		lines = nil
	}
	ids, err := s.snapshots.LoadWishlist(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load wishlist snapshot, starting empty",
			slog.String("error", err.Error()),
		)
		ids = nil
	}

	cart, cartRepaired := s.repairCart(lines)
	wishlist, wishlistRepaired := repairWishlist(ids)
	s.cart = cart
	s.wishlist = wishlist

	if cartRepaired {
		s.logger.WarnContext(ctx, "repaired cart snapshot",
			slog.Int("stored_lines", len(lines)),
			slog.Int("kept_lines", len(cart.Lines)),
		)
		s.persistCart(ctx)
	}
	if wishlistRepaired {
		s.logger.WarnContext(ctx, "repaired wishlist snapshot",
			slog.Int("stored_ids", len(ids)),
			slog.Int("kept_ids", wishlist.Len()),
		)
		s.persistWishlist(ctx)
	}

	s.logger.DebugContext(ctx, "session rehydrated",
		slog.Int("cart_lines", len(s.cart.Lines)),
		slog.Int("wishlist_items", s.wishlist.Len()),
	)
}

// repairCart drops lines with a non-positive quantity or an unknown product,
// recomputes variant keys and merges lines that share one.
func (s *SessionService) repairCart(lines []domain.CartLine) (domain.Cart, bool) {
	var cart domain.Cart
	repaired := false
	for _, stored := range lines {
		if stored.Quantity < 1 {
			repaired = true
			continue
		}
		if _, ok := s.deps.Catalog.FindProduct(stored.ProductID); !ok {
			repaired = true
			continue
		}
		line := domain.NewCartLine(stored.ProductID, stored.SelectedSize, stored.SelectedMetal, stored.Quantity)
		if line != stored {
			repaired = true
		}
		if i := cart.FindLine(line.VariantKey); i >= 0 {
			cart.Lines[i].Quantity += line.Quantity
			repaired = true
			continue
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, repaired
}

func repairWishlist(ids []int) (domain.Wishlist, bool) {
	var w domain.Wishlist
	repaired := false
	for _, id := range ids {
		if w.Contains(id) {
			repaired = true
			continue
		}
		w.IDs = append(w.IDs, id)
	}
	return w, repaired
}

// AddToCart resolves the product and merges the variant into the cart. The
// simulated latency elapses before the line is added.
func (s *SessionService) AddToCart(ctx context.Context, in AddToCartInput) (domain.Notification, error) {
	if in.Quantity < 1 {
		return domain.Notification{}, apperrors.InvalidInput("quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.deps.Catalog.FindProduct(in.ProductID)
	if !ok {
		s.notify(ctx, domain.MsgProductNotFound, domain.SeverityError)
		return domain.Notification{}, domain.ProductNotFound(in.ProductID)
	}
	if err := validateSize(product, in.Size); err != nil {
		s.notify(ctx, domain.MsgSizeUnavailable, domain.SeverityError)
		return domain.Notification{}, err
	}

	if err := s.deps.Latency.Wait(context.WithoutCancel(ctx), OpAddToCart); err != nil {
		return domain.Notification{}, fmt.Errorf("add to cart: %w", err)
	}

	line := domain.NewCartLine(product.ID, in.Size, in.Metal, in.Quantity)
	if i := s.cart.FindLine(line.VariantKey); i >= 0 {
		s.cart.Lines[i].Quantity += in.Quantity
	} else {
		s.cart.Lines = append(s.cart.Lines, line)
	}

	s.persistCart(ctx)
	s.publishCartUpdated(ctx)
	CartMutations.WithLabelValues(OpAddToCart).Inc()

	s.logger.InfoContext(ctx, "product added to cart",
		slog.Int("product_id", product.ID),
		slog.String("variant_key", line.VariantKey),
		slog.Int("quantity", in.Quantity),
	)

	return s.notify(ctx, domain.MsgAddedToCart, domain.SeveritySuccess), nil
}

// validateSize rejects a size the product is not offered in. Products that
// list no sizes accept anything.
func validateSize(p domain.Product, size string) error {
	sizes := p.Details.Sizes()
	if size == "" || size == domain.DefaultVariant || len(sizes) == 0 {
		return nil
	}
	if !slices.Contains(sizes, size) {
		return apperrors.InvalidInput(fmt.Sprintf("size %q is not available for product %d", size, p.ID))
	}
	return nil
}

// RemoveFromCart removes the line with the given key. A missing key is a no-op.
func (s *SessionService) RemoveFromCart(ctx context.Context, variantKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.cart.FindLine(variantKey)
	if i >= 0 {
		s.cart.Lines = slices.Delete(s.cart.Lines, i, i+1)
	}

	s.persistCart(ctx)
	if i < 0 {
		return
	}
	s.publishCartUpdated(ctx)
	CartMutations.WithLabelValues(OpRemoveFromCart).Inc()

	s.logger.InfoContext(ctx, "line removed from cart", slog.String("variant_key", variantKey))
}

// UpdateQuantity applies delta (+1 or -1) to a line. Decrementing a line at
// quantity 1 leaves it unchanged; a missing key is a no-op.
func (s *SessionService) UpdateQuantity(ctx context.Context, variantKey string, delta int) error {
	if delta != 1 && delta != -1 {
		return apperrors.InvalidInput("delta must be +1 or -1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if i := s.cart.FindLine(variantKey); i >= 0 {
		if q := s.cart.Lines[i].Quantity + delta; q >= 1 {
			s.cart.Lines[i].Quantity = q
			changed = true
		}
	}

	s.persistCart(ctx)
	if changed {
		s.publishCartUpdated(ctx)
		CartMutations.WithLabelValues(OpUpdateQuantity).Inc()
	}
	return nil
}

// ClearCart removes every line.
func (s *SessionService) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Lines = nil
	s.persistCart(ctx)
	s.publishCartCleared(ctx, event.ClearedByShopper)
	CartMutations.WithLabelValues(OpClearCart).Inc()

	s.logger.InfoContext(ctx, "cart cleared")
}

// ToggleWishlist adds the product to the wishlist if absent and removes it if
// present. It returns the membership after the call.
func (s *SessionService) ToggleWishlist(ctx context.Context, productID int) (bool, domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deps.Catalog.FindProduct(productID); !ok {
		s.notify(ctx, domain.MsgProductNotFound, domain.SeverityError)
		return false, domain.Notification{}, domain.ProductNotFound(productID)
	}

	if err := s.deps.Latency.Wait(context.WithoutCancel(ctx), OpToggleWishlist); err != nil {
		return false, domain.Notification{}, fmt.Errorf("toggle wishlist: %w", err)
	}

	added := s.wishlist.Toggle(productID)

	s.persistWishlist(ctx)
	s.publishWishlistUpdated(ctx)
	CartMutations.WithLabelValues(OpToggleWishlist).Inc()

	s.logger.InfoContext(ctx, "wishlist toggled",
		slog.Int("product_id", productID),
		slog.Bool("added", added),
	)

	if added {
		return true, s.notify(ctx, domain.MsgAddedToWishlist, domain.SeveritySuccess), nil
	}
	return false, s.notify(ctx, domain.MsgRemovedFromWish, domain.SeverityInfo), nil
}

// ClearWishlist removes every product from the wishlist.
func (s *SessionService) ClearWishlist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlist.Clear()
	s.persistWishlist(ctx)
	s.publishWishlistUpdated(ctx)
	CartMutations.WithLabelValues(OpClearWishlist).Inc()

	s.logger.InfoContext(ctx, "wishlist cleared")
}

// Checkout submits the cart through the checkout gateway and clears it once
// the gateway accepts. The gateway call is not cancelled when ctx is. On
// failure the cart is left intact.
func (s *SessionService) Checkout(ctx context.Context) (CheckoutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart.Lines) == 0 {
		Checkouts.WithLabelValues(CheckoutEmptyCart).Inc()
		s.notify(ctx, domain.MsgEmptyCart, domain.SeverityError)
		return CheckoutResult{}, domain.EmptyCart()
	}

	order := checkout.Order{
		ID:        uuid.New().String(),
		SessionID: s.id,
		Lines:     s.cart.Snapshot(),
		ItemCount: s.cart.ItemCount(),
		Total:     s.cart.Total(s.deps.Catalog),
		Currency:  domain.Currency,
	}

	if err := s.deps.Gateway.Submit(context.WithoutCancel(ctx), order); err != nil {
		Checkouts.WithLabelValues(CheckoutFailed).Inc()
		s.logger.ErrorContext(ctx, "checkout failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		s.notify(ctx, domain.MsgCheckoutFailed, domain.SeverityError)
		return CheckoutResult{}, fmt.Errorf("checkout: %w", err)
	}

	s.cart.Lines = nil
	s.persistCart(ctx)
	s.publishCartCleared(ctx, event.ClearedByCheckout)
	if err := s.deps.Events.PublishCheckoutCompleted(ctx, event.CheckoutCompletedData{
		SessionID: s.id,
		OrderID:   order.ID,
		Lines:     order.Lines,
		ItemCount: order.ItemCount,
		Total:     order.Total,
		Currency:  order.Currency,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	Checkouts.WithLabelValues(CheckoutCompleted).Inc()

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.Int("item_count", order.ItemCount),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return CheckoutResult{
		OrderID:      order.ID,
		Total:        order.Total,
		ItemCount:    order.ItemCount,
		Currency:     order.Currency,
		Notification: s.notify(ctx, domain.MsgCheckoutCompleted, domain.SeveritySuccess),
	}, nil
}

// CartTotal returns Σ price × quantity over the cart.
func (s *SessionService) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total(s.deps.Catalog)
}

// CartItemCount returns Σ quantity over the cart.
func (s *SessionService) CartItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// Cart returns a copy of the cart lines in order.
func (s *SessionService) Cart() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

// Wishlist returns a copy of the wishlist ids in order.
func (s *SessionService) Wishlist() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Snapshot()
}

// Contains reports whether the product is on the wishlist.
func (s *SessionService) Contains(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Contains(productID)
}

// CartView resolves the cart against the catalog for display.
func (s *SessionService) CartView() domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := domain.CartView{
		Lines:     make([]domain.CartLineView, 0, len(s.cart.Lines)),
		Total:     s.cart.Total(s.deps.Catalog),
		ItemCount: s.cart.ItemCount(),
		Currency:  domain.Currency,
	}
	for _, line := range s.cart.Lines {
		lv := domain.CartLineView{CartLine: line}
		if p, ok := s.deps.Catalog.FindProduct(line.ProductID); ok {
			lv.Name = p.Name
			lv.Image = p.DisplayImage()
			lv.UnitPrice = p.Price
			lv.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		}
		view.Lines = append(view.Lines, lv)
	}
	return view
}

// WishlistView resolves the wishlist against the catalog. Unknown ids are
// skipped.
func (s *SessionService) WishlistView() domain.WishlistView {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, s.wishlist.Len())
	for _, id := range s.wishlist.IDs {
		if p, ok := s.deps.Catalog.FindProduct(id); ok {
			products = append(products, p)
		}
	}
	return domain.WishlistView{Products: products, Count: len(products)}
}

// ShareWishlist renders the wishlist as shareable text: the title line, then
// the product names separated by newlines.
func (s *SessionService) ShareWishlist() string {
	view := s.WishlistView()

	names := make([]string, len(view.Products))
	for i, p := range view.Products {
		names[i] = p.Name
	}
	return domain.WishlistShareTitle + "\n" + strings.Join(names, "\n")
}

// persistCart writes the cart snapshot. Failures are logged and counted; the
// in-memory change stands.
func (s *SessionService) persistCart(ctx context.Context) {
	if err := s.snapshots.SaveCart(context.WithoutCancel(ctx), s.cart.Snapshot()); err != nil {
		PersistenceWriteFailures.WithLabelValues(repository.KeyCart).Inc()
		s.logger.WarnContext(ctx, "failed to persist cart, changes may not survive a reload",
			slog.String("error", err.Error()),
		)
	}
}

func (s *SessionService) persistWishlist(ctx context.Context) {
	if err := s.snapshots.SaveWishlist(context.WithoutCancel(ctx), s.wishlist.Snapshot()); err != nil {
		PersistenceWriteFailures.WithLabelValues(repository.KeyWishlist).Inc()
		s.logger.WarnContext(ctx, "failed to persist wishlist, changes may not survive a reload",
			slog.String("error", err.Error()),
		)
	}
}

func (s *SessionService) publishCartUpdated(ctx context.Context) {
	err := s.deps.Events.PublishCartUpdated(ctx, event.CartUpdatedData{
		SessionID: s.id,
		Lines:     s.cart.Snapshot(),
		ItemCount: s.cart.ItemCount(),
		Total:     s.cart.Total(s.deps.Catalog),
		Currency:  domain.Currency,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
}

func (s *SessionService) publishCartCleared(ctx context.Context, reason string) {
	err := s.deps.Events.PublishCartCleared(ctx, event.CartClearedData{SessionID: s.id, Reason: reason})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("error", err.Error()),
		)
	}
}

func (s *SessionService) publishWishlistUpdated(ctx context.Context) {
	err := s.deps.Events.PublishWishlistUpdated(ctx, event.WishlistUpdatedData{
		SessionID:  s.id,
		ProductIDs: s.wishlist.Snapshot(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("error", err.Error()),
		)
	}
}

func (s *SessionService) notify(ctx context.Context, message string, severity domain.Severity) domain.Notification {
	n := domain.Notification{Message: message, Severity: severity}
	s.deps.Notifier.Notify(ctx, s.id, n)
	return n
}
