package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/purchase-orders/internal/repository"
)

const scanBatch = 500

// AdminRepository evicts cached orders when the table is cleared, so
// GetByID cannot serve an order that DeleteAll removed.
type AdminRepository struct {
	repository.AdminRepository

	client redis.Cmdable
	logger *slog.Logger
}

// NewAdminRepository wraps next so bulk deletes also clear the cache.
func NewAdminRepository(next repository.AdminRepository, client redis.Cmdable, logger *slog.Logger) *AdminRepository {
	return &AdminRepository{
		AdminRepository: next,
		client:          client,
		logger:          logger,
	}
}

// DeleteAll removes every order and then every cached order. The rows are
// already gone when eviction fails, so the count is returned with the error.
func (r *AdminRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := r.AdminRepository.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	evicted, err := Purge(ctx, r.client)
	if err != nil {
		return n, err
	}
	r.logger.InfoContext(ctx, "purchase order cache cleared", slog.Int64("keys", evicted))
	return n, nil
}

// Purge deletes every cached purchase order and returns the number of keys
// removed. It walks the keyspace with SCAN instead of KEYS.
func Purge(ctx context.Context, client redis.Cmdable) (int64, error) {
	var (
		cursor  uint64
		evicted int64
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return evicted, fmt.Errorf("scan cached purchase orders: %w", err)
		}
		if len(keys) > 0 {
			n, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return evicted, fmt.Errorf("evict cached purchase orders: %w", err)
			}
			evicted += n
		}
		if next == 0 {
			return evicted, nil
		}
		cursor = next
	}
}
