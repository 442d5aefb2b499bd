// Package postgres stores snapshots in a PostgreSQL table.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/prbretas/JEWELRY/internal/repository"
	"github.com/prbretas/JEWELRY/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	saveSQL = `INSERT INTO snapshots (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	loadSQL   = `SELECT value FROM snapshots WHERE key = $1`
	deleteSQL = `DELETE FROM snapshots WHERE key = $1`
	pingSQL   = `SELECT 1`
)

// Migrate applies the snapshot schema.
func Migrate(ctx context.Context, db database.TxBeginner, logger *slog.Logger) error {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	return database.RunMigrations(ctx, db, sub, logger)
}

// Store implements repository.Store using PostgreSQL.
type Store struct {
	db database.DBTX
}

// New creates a PostgreSQL-backed store. db is typically a *pgxpool.Pool.
func New(db database.DBTX) *Store {
	return &Store{db: db}
}

// Save upserts the value under key.
func (s *Store) Save(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SaveSnapshot", saveSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, saveSQL, key, value); err != nil {
		return fmt.Errorf("postgres save %s: %w", key, err)
	}
	return nil
}

// Load returns the value under key.
func (s *Store) Load(ctx context.Context, key string) (value []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "LoadSnapshot", loadSQL)
	defer func() { end(err) }()

	if err = s.db.QueryRow(ctx, loadSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("postgres load %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteSnapshot", deleteSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

// Ping runs a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, pingSQL).Scan(&one)
}
