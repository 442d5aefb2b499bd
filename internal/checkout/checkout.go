// Package checkout submits orders once the shopper confirms the cart.
package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prbretas/JEWELRY/internal/domain"
)

// Order is the cart being checked out.
type Order struct {
	ID        string            `json:"order_id"`
	SessionID string            `json:"session_id"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Total     decimal.Decimal   `json:"total"`
	Currency  string            `json:"currency"`
}

// Gateway accepts an order. A nil error means the cart may be cleared.
type Gateway interface {
	Submit(ctx context.Context, order Order) error
}

// Simulated accepts every order after a fixed delay, standing in for a real
// payment round trip.
type Simulated struct {
	delay time.Duration
}

// NewSimulated creates a gateway that waits delay before accepting.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{delay: delay}
}

func (s *Simulated) Submit(ctx context.Context, _ Order) error {
	return Wait(ctx, s.delay)
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
