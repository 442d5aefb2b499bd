package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteDB_CreatesFileInNestedDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storefront.db")

	db, err := NewSQLiteDB(context.Background(), SQLiteConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE t (k TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestNewSQLiteDB_EmptyPath(t *testing.T) {
	_, err := NewSQLiteDB(context.Background(), SQLiteConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty path")
}
