// Package repository persists session snapshots in a durable key-value store.
package repository

import (
	"context"
	"fmt"

	"github.com/prbretas/JEWELRY/internal/domain"
	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
)

// ErrNotFound is returned by Store.Load for a key that was never saved.
var ErrNotFound = fmt.Errorf("snapshot not found: %w", apperrors.ErrNotFound)

// Store is a durable key-value store, the server-side stand-in for browser
// local storage.
type Store interface {
	// Save writes value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Load returns the value under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Snapshots reads and writes the cart and wishlist of one session.
type Snapshots interface {
	// SaveCart persists the cart lines in order.
	SaveCart(ctx context.Context, lines []domain.CartLine) error

	// LoadCart returns the persisted lines, or an empty slice when none were saved.
	LoadCart(ctx context.Context) ([]domain.CartLine, error)

	// SaveWishlist persists the wishlist ids in order.
	SaveWishlist(ctx context.Context, ids []int) error

	// LoadWishlist returns the persisted ids, or an empty slice when none were saved.
	LoadWishlist(ctx context.Context) ([]int, error)
}
