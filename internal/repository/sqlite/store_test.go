package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/internal/repository"
	"github.com/prbretas/JEWELRY/pkg/database"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	db, err := database.NewSQLiteDB(context.Background(), database.SQLiteConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := New(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestStore_SaveLoadOverwrite(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "s.db"))

	require.NoError(t, store.Save(ctx, "session:a:cart", []byte(`[]`)))
	require.NoError(t, store.Save(ctx, "session:a:cart", []byte(`[1]`)))

	got, err := store.Load(ctx, "session:a:cart")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func TestStore_LoadMissing(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "s.db"))

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "s.db"))

	require.NoError(t, store.Save(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, store.Ping(ctx))
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "s.db")
	lines := []domain.CartLine{domain.NewCartLine(5, "16", "gold", 2)}

	first := repository.NewSnapshotRepository(repository.Scope(openStore(t, path), "abc"))
	require.NoError(t, first.SaveCart(ctx, lines))
	require.NoError(t, first.SaveWishlist(ctx, []int{2, 1}))

	second := repository.NewSnapshotRepository(repository.Scope(openStore(t, path), "abc"))
	gotLines, err := second.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, lines, gotLines)

	ids, err := second.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, ids)
}
