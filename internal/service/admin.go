package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/internal/repository"
)

// AdminService implements bulk maintenance and reporting over the whole
// purchase order table.
type AdminService struct {
	repo   repository.AdminRepository
	logger *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(repo repository.AdminRepository, logger *slog.Logger) *AdminService {
	return &AdminService{repo: repo, logger: logger}
}

// Init inserts SampleOrders when the table is empty. It returns the number of
// rows inserted, zero when data already exists.
func (s *AdminService) Init(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count purchase orders: %w", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "purchase orders already present, skipping initialization",
			slog.Int64("count", count))
		return 0, nil
	}

	n, err := s.repo.CreateBatch(ctx, SampleOrders())
	if err != nil {
		return 0, fmt.Errorf("insert sample purchase orders: %w", err)
	}
	s.logger.InfoContext(ctx, "initialized purchase orders with sample data", slog.Int64("inserted", n))
	return n, nil
}

// SeedOptions controls Seed.
type SeedOptions struct {
	Count     int
	BatchSize int
	// Rand drives generation; nil seeds from the clock.
	Rand *rand.Rand
	// Progress, when set, is called after every batch.
	Progress func(done, total int)
}

// Seed bulk-inserts Count randomly generated orders in batches.
func (s *AdminService) Seed(ctx context.Context, opts SeedOptions) (int64, error) {
	if opts.Count <= 0 {
		return 0, errors.New("seed count must be positive")
	}
	if opts.BatchSize <= 0 {
		return 0, errors.New("seed batch size must be positive")
	}
	r := opts.Rand
	if r == nil {
		now := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(now, now>>1)) // #nosec G404 -- sample data
	}

	var inserted int64
	for done := 0; done < opts.Count; {
		size := min(opts.BatchSize, opts.Count-done)
		batch := make([]domain.PurchaseOrder, size)
		for i := range batch {
			batch[i] = RandomOrder(r)
		}

		n, err := s.repo.CreateBatch(ctx, batch)
		if err != nil {
			return inserted, fmt.Errorf("insert batch at %d: %w", done, err)
		}
		inserted += n
		done += size

		if opts.Progress != nil {
			opts.Progress(done, opts.Count)
		}
	}

	s.logger.InfoContext(ctx, "seeded purchase orders", slog.Int64("inserted", inserted))
	return inserted, nil
}

// Count returns the number of stored orders.
func (s *AdminService) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count purchase orders: %w", err)
	}
	return n, nil
}

// Clear deletes every order.
func (s *AdminService) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear purchase orders: %w", err)
	}
	s.logger.WarnContext(ctx, "deleted all purchase orders", slog.Int64("deleted", n))
	return n, nil
}

// Summary returns the aggregate report.
func (s *AdminService) Summary(ctx context.Context) (*domain.Summary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize purchase orders: %w", err)
	}
	return summary, nil
}
