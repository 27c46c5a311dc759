package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/internal/repository"
	apperrors "github.com/utafrali/purchase-orders/pkg/errors"
	"github.com/utafrali/purchase-orders/pkg/pagination"
)

// EventPublisher emits purchase order domain events. *event.Producer
// implements it.
type EventPublisher interface {
	PublishPurchaseOrderCreated(ctx context.Context, o *domain.PurchaseOrder) error
	PublishPurchaseOrderDeleted(ctx context.Context, id int64) error
}

// PurchaseOrderService implements the purchase order use cases.
type PurchaseOrderService struct {
	repo   repository.PurchaseOrderRepository
	events EventPublisher
	logger *slog.Logger
}

// NewPurchaseOrderService creates a new purchase order service.
func NewPurchaseOrderService(repo repository.PurchaseOrderRepository, events EventPublisher, logger *slog.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// CreatePurchaseOrderInput holds the parameters for creating an order.
type CreatePurchaseOrderInput struct {
	ItemName     string
	OrderDate    time.Time
	DeliveryDate time.Time
	Quantity     int
	UnitPrice    float64
}

// CreatePurchaseOrder stores a new order. The total price is computed here
// once and never recomputed.
func (s *PurchaseOrderService) CreatePurchaseOrder(ctx context.Context, input CreatePurchaseOrderInput) (*domain.PurchaseOrder, error) {
	itemName := strings.TrimSpace(input.ItemName)
	switch {
	case itemName == "":
		return nil, apperrors.Validation("item_name is required")
	case input.OrderDate.IsZero():
		return nil, apperrors.Validation("order_date is required")
	case input.DeliveryDate.IsZero():
		return nil, apperrors.Validation("delivery_date is required")
	case input.Quantity <= 0:
		return nil, apperrors.Validation("quantity must be greater than 0")
	case input.Quantity > domain.MaxQuantity:
		return nil, apperrors.Validation(fmt.Sprintf("quantity must be at most %d", domain.MaxQuantity))
	case math.IsNaN(input.UnitPrice) || math.IsInf(input.UnitPrice, 0):
		return nil, apperrors.Validation("unit_price must be a finite number")
	case input.UnitPrice < 0:
		return nil, apperrors.Validation("unit_price must not be negative")
	case input.UnitPrice > domain.MaxUnitPrice:
		return nil, apperrors.Validation(fmt.Sprintf("unit_price must be at most %d", domain.MaxUnitPrice))
	}

	total := domain.ComputeTotalPrice(input.Quantity, input.UnitPrice)
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, apperrors.Validation("total_price is out of range")
	}

	order := &domain.PurchaseOrder{
		ItemName:     itemName,
		OrderDate:    input.OrderDate,
		DeliveryDate: input.DeliveryDate,
		Quantity:     input.Quantity,
		UnitPrice:    input.UnitPrice,
		TotalPrice:   total,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	if err := s.events.PublishPurchaseOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish purchase_order.created event",
			slog.Int64("purchase_order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "purchase order created",
		slog.Int64("purchase_order_id", order.ID),
		slog.String("item_name", order.ItemName),
		slog.Float64("total_price", order.TotalPrice),
	)

	return order, nil
}

// GetPurchaseOrder retrieves an order by its ID.
func (s *PurchaseOrderService) GetPurchaseOrder(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return order, nil
}

// DeletePurchaseOrder removes an order.
func (s *PurchaseOrderService) DeletePurchaseOrder(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}

	if err := s.events.PublishPurchaseOrderDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish purchase_order.deleted event",
			slog.Int64("purchase_order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "purchase order deleted", slog.Int64("purchase_order_id", id))
	return nil
}

// ListPurchaseOrders returns every order ascending by id. It is unbounded and
// independent of the cursor listing.
func (s *PurchaseOrderService) ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return orders, nil
}

// ListPurchaseOrdersWithCursor returns one page of orders after cursor. An
// empty cursor requests the first page.
func (s *PurchaseOrderService) ListPurchaseOrdersWithCursor(ctx context.Context, cursor string, limit int) (pagination.Page[domain.PurchaseOrder], error) {
	if limit < pagination.MinLimit || limit > pagination.MaxLimit {
		return pagination.Page[domain.PurchaseOrder]{}, apperrors.Validation(
			fmt.Sprintf("limit must be between %d and %d", pagination.MinLimit, pagination.MaxLimit))
	}

	var afterID *int64
	if cursor != "" {
		id, err := pagination.DecodeCursor(cursor)
		if err != nil {
			return pagination.Page[domain.PurchaseOrder]{}, apperrors.InvalidCursor(err)
		}
		afterID = &id
	}

	rows, err := s.repo.ListAfter(ctx, afterID, limit)
	if err != nil {
		return pagination.Page[domain.PurchaseOrder]{}, fmt.Errorf("list purchase orders page: %w", err)
	}

	return pagination.Assemble(rows, limit, domain.PurchaseOrder.Key), nil
}
