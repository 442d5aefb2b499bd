package service

import (
	"context"
	"time"

	"github.com/prbretas/JEWELRY/internal/checkout"
)

// Latency simulates the network round trip of an operation before it takes
// effect. Swap it for a real call when one exists.
type Latency interface {
	Wait(ctx context.Context, op string) error
}

// FixedLatency waits a configured delay per operation.
type FixedLatency struct {
	AddToCart time.Duration
	Wishlist  time.Duration
}

func (l FixedLatency) Wait(ctx context.Context, op string) error {
	switch op {
	case OpAddToCart:
		return checkout.Wait(ctx, l.AddToCart)
	case OpToggleWishlist:
		return checkout.Wait(ctx, l.Wishlist)
	default:
		return nil
	}
}

// NoLatency completes every operation immediately.
var NoLatency Latency = FixedLatency{}
