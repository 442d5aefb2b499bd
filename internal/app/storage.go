package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prbretas/JEWELRY/internal/config"
	"github.com/prbretas/JEWELRY/internal/repository"
	"github.com/prbretas/JEWELRY/internal/repository/memory"
	"github.com/prbretas/JEWELRY/internal/repository/postgres"
	redisrepo "github.com/prbretas/JEWELRY/internal/repository/redis"
	"github.com/prbretas/JEWELRY/internal/repository/sqlite"
	"github.com/prbretas/JEWELRY/pkg/database"
)

// storage is the opened snapshot backend plus the function releasing its
// connections.
type storage struct {
	store repository.Store
	close func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := database.NewSQLiteDB(ctx, database.SQLiteConfig{Path: cfg.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store, err := sqlite.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("opened SQLite snapshot store", slog.String("path", cfg.SQLitePath))
		return &storage{store: store, close: db.Close}, nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, cfg.RedisConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return &storage{store: redisrepo.New(client, cfg.RedisKeyTTL), close: client.Close}, nil

	case config.BackendPostgres:
		pgCfg := cfg.PostgresConfig()
		pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		database.RegisterPoolMetrics(pool, serviceName)

		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		return &storage{store: postgres.New(pool), close: func() error {
			pool.Close()
			return nil
		}}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory snapshot store, carts will not survive a restart")
		return &storage{store: memory.New(), close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
