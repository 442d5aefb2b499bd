// Package sqlite stores snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prbretas/JEWELRY/internal/repository"
	"github.com/prbretas/JEWELRY/pkg/database"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`
	saveSQL = `INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	loadSQL   = `SELECT value FROM snapshots WHERE key = ?`
	deleteSQL = `DELETE FROM snapshots WHERE key = ?`
)

// Store implements repository.Store on a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates the snapshots table if needed and returns a store over db.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save upserts the value under key.
func (s *Store) Save(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemSQLite, "SaveSnapshot", saveSQL)
	defer func() { end(err) }()

	if _, err = s.db.ExecContext(ctx, saveSQL, key, value, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("sqlite save %s: %w", key, err)
	}
	return nil
}

// Load returns the value under key.
func (s *Store) Load(ctx context.Context, key string) (value []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemSQLite, "LoadSnapshot", loadSQL)
	defer func() { end(err) }()

	if err = s.db.QueryRowContext(ctx, loadSQL, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite load %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemSQLite, "DeleteSnapshot", deleteSQL)
	defer func() { end(err) }()

	if _, err = s.db.ExecContext(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
