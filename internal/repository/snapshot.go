package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prbretas/JEWELRY/internal/domain"
)

// Snapshot keys within a session scope.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
)

// SessionPrefix returns the key prefix of a session scope.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

// Scoped namespaces every key of an underlying store, the way a browser
// origin namespaces local storage.
type Scoped struct {
	store  Store
	prefix string
}

// Scope returns a view of store restricted to one session.
func Scope(store Store, sessionID string) *Scoped {
	return &Scoped{store: store, prefix: SessionPrefix(sessionID)}
}

func (s *Scoped) Save(ctx context.Context, key string, value []byte) error {
	return s.store.Save(ctx, s.prefix+key, value)
}

func (s *Scoped) Load(ctx context.Context, key string) ([]byte, error) {
	return s.store.Load(ctx, s.prefix+key)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.prefix+key)
}

func (s *Scoped) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SnapshotRepository stores snapshots as JSON arrays, one key per collection.
type SnapshotRepository struct {
	store Store
}

// NewSnapshotRepository creates a snapshot repository over store. Pass a
// Scoped store to isolate sessions.
func NewSnapshotRepository(store Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// SaveCart persists the cart lines.
func (r *SnapshotRepository) SaveCart(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return r.save(ctx, KeyCart, lines)
}

// LoadCart returns the persisted cart lines.
func (r *SnapshotRepository) LoadCart(ctx context.Context) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	if err := r.load(ctx, KeyCart, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, nil
}

// SaveWishlist persists the wishlist ids.
func (r *SnapshotRepository) SaveWishlist(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	return r.save(ctx, KeyWishlist, ids)
}

// LoadWishlist returns the persisted wishlist ids.
func (r *SnapshotRepository) LoadWishlist(ctx context.Context) ([]int, error) {
	ids := []int{}
	if err := r.load(ctx, KeyWishlist, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

func (r *SnapshotRepository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", key, err)
	}
	if err := r.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s snapshot: %w", key, err)
	}
	return nil
}

func (r *SnapshotRepository) load(ctx context.Context, key string, v any) error {
	data, err := r.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load %s snapshot: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s snapshot: %w", key, err)
	}
	return nil
}
