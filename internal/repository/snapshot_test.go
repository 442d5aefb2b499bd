package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/internal/repository"
	"github.com/prbretas/JEWELRY/internal/repository/memory"
)

type failingStore struct {
	err error
}

func (f failingStore) Save(context.Context, string, []byte) error {
	return f.err
}

func (f failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, f.err
}

func (f failingStore) Delete(context.Context, string) error {
	return f.err
}

func (f failingStore) Ping(context.Context) error {
	return f.err
}

func TestSnapshotRepository_CartRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSnapshotRepository(memory.New())

	lines := []domain.CartLine{
		domain.NewCartLine(5, "16", "gold", 2),
		domain.NewCartLine(1, "", "", 1),
		domain.NewCartLine(6, "", "silver", 3),
	}
	require.NoError(t, repo.SaveCart(ctx, lines))

	got, err := repo.LoadCart(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(lines, got); diff != "" {
		t.Errorf("cart round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRepository_WishlistRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSnapshotRepository(memory.New())

	require.NoError(t, repo.SaveWishlist(ctx, []int{7, 3, 1}))

	got, err := repo.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3, 1}, got)
}

func TestSnapshotRepository_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := repository.NewSnapshotRepository(store)

	require.NoError(t, repo.SaveCart(ctx, []domain.CartLine{domain.NewCartLine(5, "16", "gold", 1)}))
	require.NoError(t, repo.SaveWishlist(ctx, nil))

	cart, err := store.Load(ctx, repository.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"variantKey":"5-16-gold","productId":5,"selectedSize":"16","selectedMetal":"gold","quantity":1}]`,
		string(cart))

	wishlist, err := store.Load(ctx, repository.KeyWishlist)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(wishlist))
}

func TestSnapshotRepository_MissingKeysLoadEmpty(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSnapshotRepository(memory.New())

	lines, err := repo.LoadCart(ctx)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	ids, err := repo.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSnapshotRepository_NullSnapshotLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Save(ctx, repository.KeyCart, []byte("null")))

	lines, err := repository.NewSnapshotRepository(store).LoadCart(ctx)
	require.NoError(t, err)
	assert.NotNil(t, lines)
}

func TestSnapshotRepository_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Save(ctx, repository.KeyWishlist, []byte("{not json")))

	_, err := repository.NewSnapshotRepository(store).LoadWishlist(ctx)
	assert.Error(t, err)
}

func TestSnapshotRepository_StoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	repo := repository.NewSnapshotRepository(failingStore{err: boom})

	err := repo.SaveCart(ctx, nil)
	assert.ErrorIs(t, err, boom)

	_, err = repo.LoadWishlist(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestScope_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	a := repository.NewSnapshotRepository(repository.Scope(store, "alice"))
	b := repository.NewSnapshotRepository(repository.Scope(store, "bob"))

	require.NoError(t, a.SaveWishlist(ctx, []int{1}))
	require.NoError(t, b.SaveWishlist(ctx, []int{2, 3}))

	got, err := a.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	raw, err := store.Load(ctx, "session:bob:wishlist")
	require.NoError(t, err)
	assert.Equal(t, "[2,3]", string(raw))

	scoped := repository.Scope(store, "alice")
	require.NoError(t, scoped.Delete(ctx, repository.KeyWishlist))
	_, err = store.Load(ctx, "session:alice:wishlist")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, scoped.Ping(ctx))
}
