package repository

import (
	"context"

	"github.com/utafrali/purchase-orders/internal/domain"
)

// PurchaseOrderRepository defines the interface for purchase order persistence.
type PurchaseOrderRepository interface {
	// Create inserts a new purchase order and sets its storage-assigned ID.
	Create(ctx context.Context, order *domain.PurchaseOrder) error

	// GetByID retrieves a purchase order by ID.
	GetByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error)

	// Delete removes a purchase order by ID.
	Delete(ctx context.Context, id int64) error

	// ListAll returns every purchase order in ascending ID order.
	ListAll(ctx context.Context) ([]domain.PurchaseOrder, error)

	// ListAfter returns up to limit+1 purchase orders in ascending ID order,
	// restricted to IDs strictly greater than afterID when it is non-nil.
	// The extra row lets callers detect a following page.
	ListAfter(ctx context.Context, afterID *int64, limit int) ([]domain.PurchaseOrder, error)
}

// AdminRepository covers bulk maintenance and reporting over the whole table.
type AdminRepository interface {
	// Count returns the number of stored purchase orders.
	Count(ctx context.Context) (int64, error)

	// CreateBatch bulk-inserts orders and returns the number of rows written.
	CreateBatch(ctx context.Context, orders []domain.PurchaseOrder) (int64, error)

	// DeleteAll removes every purchase order and returns the number removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Summary computes the aggregate report.
	Summary(ctx context.Context) (*domain.Summary, error)
}
