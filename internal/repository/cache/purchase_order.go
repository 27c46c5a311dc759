// Package cache provides a Redis read-through layer in front of a purchase
// order repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/internal/repository"
)

const keyPrefix = "purchase_order:"

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "purchase_order_cache_lookups_total",
		Help: "Purchase order cache lookups by result (hit, miss, error).",
	},
	[]string{"result"},
)

// PurchaseOrderRepository caches GetByID results. Orders are immutable once
// created, so the only invalidation needed is on delete. Redis failures are
// logged and the call falls through to the wrapped repository.
type PurchaseOrderRepository struct {
	repository.PurchaseOrderRepository

	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewPurchaseOrderRepository wraps next with a cache stored in client.
func NewPurchaseOrderRepository(next repository.PurchaseOrderRepository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		PurchaseOrderRepository: next,
		client:                  client,
		ttl:                     ttl,
		logger:                  logger,
	}
}

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// GetByID serves from Redis when possible and populates it on a miss.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		var o domain.PurchaseOrder
		if err := json.Unmarshal(data, &o); err == nil {
			lookups.WithLabelValues("hit").Inc()
			return &o, nil
		}
		r.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.Int64("id", id))
		lookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		lookups.WithLabelValues("miss").Inc()
	default:
		r.logger.WarnContext(ctx, "cache get failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		lookups.WithLabelValues("error").Inc()
	}

	o, err := r.PurchaseOrderRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.store(ctx, o); err != nil {
		r.logger.WarnContext(ctx, "cache set failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	}
	return o, nil
}

// Delete removes the order and evicts its cache entry.
func (r *PurchaseOrderRepository) Delete(ctx context.Context, id int64) error {
	if err := r.PurchaseOrderRepository.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache invalidation failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (r *PurchaseOrderRepository) store(ctx context.Context, o *domain.PurchaseOrder) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal purchase order: %w", err)
	}
	if err := r.client.Set(ctx, key(o.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set purchase order: %w", err)
	}
	return nil
}
