// Package memory implements the purchase order repositories in process
// memory. It backs the "memory" storage mode and service tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/utafrali/purchase-orders/internal/domain"
	apperrors "github.com/utafrali/purchase-orders/pkg/errors"
)

const (
	summaryTopItems = 10
	summaryLatest   = 5
)

// Repository keeps orders sorted by id. IDs come from a counter that never
// goes backwards, even after DeleteAll, mirroring a BIGSERIAL column.
type Repository struct {
	mu     sync.RWMutex
	orders []domain.PurchaseOrder
	nextID int64
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{nextID: 1}
}

func (r *Repository) Create(_ context.Context, o *domain.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = r.nextID
	r.nextID++
	r.orders = append(r.orders, *o)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.find(id)
	if !ok {
		return nil, notFound(id)
	}
	o := r.orders[i]
	return &o, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.find(id)
	if !ok {
		return notFound(id)
	}
	r.orders = slices.Delete(r.orders, i, i+1)
	return nil
}

func (r *Repository) ListAll(_ context.Context) ([]domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append(make([]domain.PurchaseOrder, 0, len(r.orders)), r.orders...), nil
}

// ListAfter returns up to limit+1 orders with id > afterID.
func (r *Repository) ListAfter(_ context.Context, afterID *int64, limit int) ([]domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := 0
	if afterID != nil {
		start = sort.Search(len(r.orders), func(i int) bool { return r.orders[i].ID > *afterID })
	}
	end := min(start+limit+1, len(r.orders))

	return append(make([]domain.PurchaseOrder, 0, end-start), r.orders[start:end]...), nil
}

func (r *Repository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

func (r *Repository) CreateBatch(_ context.Context, orders []domain.PurchaseOrder) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range orders {
		o.ID = r.nextID
		r.nextID++
		r.orders = append(r.orders, o)
	}
	return int64(len(orders)), nil
}

func (r *Repository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.orders))
	r.orders = nil
	return n, nil
}

// Summary computes the same report as the SQL implementation.
func (r *Repository) Summary(_ context.Context) (*domain.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &domain.Summary{TotalOrders: int64(len(r.orders))}
	if len(r.orders) == 0 {
		return s, nil
	}

	first := r.orders[0]
	s.MinValue, s.MaxValue = first.TotalPrice, first.TotalPrice
	s.MinQuantity, s.MaxQuantity = first.Quantity, first.Quantity
	s.EarliestOrderDate, s.LatestOrderDate = first.OrderDate, first.OrderDate
	s.EarliestDeliveryDate, s.LatestDeliveryDate = first.DeliveryDate, first.DeliveryDate

	items := make(map[string]*domain.ItemStats)
	years := make(map[int]*domain.YearStats)

	for _, o := range r.orders {
		s.TotalValue += o.TotalPrice
		s.TotalQuantity += int64(o.Quantity)
		s.MinValue = min(s.MinValue, o.TotalPrice)
		s.MaxValue = max(s.MaxValue, o.TotalPrice)
		s.MinQuantity = min(s.MinQuantity, o.Quantity)
		s.MaxQuantity = max(s.MaxQuantity, o.Quantity)
		if o.OrderDate.Before(s.EarliestOrderDate) {
			s.EarliestOrderDate = o.OrderDate
		}
		if o.OrderDate.After(s.LatestOrderDate) {
			s.LatestOrderDate = o.OrderDate
		}
		if o.DeliveryDate.Before(s.EarliestDeliveryDate) {
			s.EarliestDeliveryDate = o.DeliveryDate
		}
		if o.DeliveryDate.After(s.LatestDeliveryDate) {
			s.LatestDeliveryDate = o.DeliveryDate
		}

		it, ok := items[o.ItemName]
		if !ok {
			it = &domain.ItemStats{ItemName: o.ItemName}
			items[o.ItemName] = it
		}
		it.OrderCount++
		it.Quantity += int64(o.Quantity)
		it.TotalValue += o.TotalPrice

		y, ok := years[o.OrderDate.Year()]
		if !ok {
			y = &domain.YearStats{Year: o.OrderDate.Year()}
			years[o.OrderDate.Year()] = y
		}
		y.OrderCount++
		y.TotalValue += o.TotalPrice
	}

	n := float64(len(r.orders))
	s.AverageValue = s.TotalValue / n
	s.AverageQuantity = float64(s.TotalQuantity) / n

	all := make([]domain.ItemStats, 0, len(items))
	for _, it := range items {
		all = append(all, *it)
	}
	s.TopByCount = topItems(all, func(a, b domain.ItemStats) int {
		return cmp.Compare(b.OrderCount, a.OrderCount)
	})
	s.TopByRevenue = topItems(all, func(a, b domain.ItemStats) int {
		return cmp.Compare(b.TotalValue, a.TotalValue)
	})

	for _, y := range years {
		s.ByYear = append(s.ByYear, *y)
	}
	slices.SortFunc(s.ByYear, func(a, b domain.YearStats) int { return cmp.Compare(a.Year, b.Year) })

	for i := len(r.orders) - 1; i >= 0 && len(s.Latest) < summaryLatest; i-- {
		s.Latest = append(s.Latest, r.orders[i])
	}
	return s, nil
}

// topItems sorts a copy by order, breaking ties by item name.
func topItems(items []domain.ItemStats, order func(a, b domain.ItemStats) int) []domain.ItemStats {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b domain.ItemStats) int {
		if c := order(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ItemName, b.ItemName)
	})
	return sorted[:min(len(sorted), summaryTopItems)]
}

func (r *Repository) find(id int64) (int, bool) {
	return slices.BinarySearchFunc(r.orders, id, func(o domain.PurchaseOrder, id int64) int {
		return cmp.Compare(o.ID, id)
	})
}

func notFound(id int64) error {
	return apperrors.NotFound("purchase order", strconv.FormatInt(id, 10))
}
