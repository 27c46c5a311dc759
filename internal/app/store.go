package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/purchase-orders/internal/config"
	"github.com/utafrali/purchase-orders/internal/repository"
	"github.com/utafrali/purchase-orders/internal/repository/cache"
	"github.com/utafrali/purchase-orders/internal/repository/memory"
	"github.com/utafrali/purchase-orders/internal/repository/postgres"
	"github.com/utafrali/purchase-orders/migrations"
	"github.com/utafrali/purchase-orders/pkg/database"
)

// Store bundles the repositories selected by configuration together with the
// connections that back them. The server and poctl share it.
type Store struct {
	Orders repository.PurchaseOrderRepository
	Admin  repository.AdminRepository

	// Pool is nil for the memory backend.
	Pool *pgxpool.Pool
	// Redis is nil unless the cache is enabled.
	Redis *redis.Client
}

// OpenStore connects the configured storage backend, applies migrations for
// PostgreSQL and wraps reads with the Redis cache when enabled.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	s := &Store{}

	switch cfg.StorageBackend {
	case config.StorageMemory:
		repo := memory.New()
		s.Orders, s.Admin = repo, repo
		logger.Warn("using in-memory storage, data is lost on exit")

	default:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

		repo := postgres.NewPurchaseOrderRepository(pool)
		s.Orders, s.Admin, s.Pool = repo, repo, pool
	}

	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("redis cache enabled",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Duration("ttl", cfg.CacheTTL),
		)
		s.Redis = client

		// A fresh memory store reuses ids from 1, so entries cached by an
		// earlier process would shadow new orders.
		if cfg.StorageBackend == config.StorageMemory {
			if _, err := cache.Purge(ctx, client); err != nil {
				s.Close()
				return nil, fmt.Errorf("purge redis cache: %w", err)
			}
		}

		s.Orders = cache.NewPurchaseOrderRepository(s.Orders, client, cfg.CacheTTL, logger)
		s.Admin = cache.NewAdminRepository(s.Admin, client, logger)
	}

	return s, nil
}

// Close releases every connection held by the store.
func (s *Store) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
