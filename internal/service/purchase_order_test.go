package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/internal/repository/memory"
	apperrors "github.com/utafrali/purchase-orders/pkg/errors"
	"github.com/utafrali/purchase-orders/pkg/pagination"
)

// --- Mocks ---

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, o *domain.PurchaseOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseOrder), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) ListAll(ctx context.Context) ([]domain.PurchaseOrder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PurchaseOrder), args.Error(1)
}

func (m *mockRepository) ListAfter(ctx context.Context, afterID *int64, limit int) ([]domain.PurchaseOrder, error) {
	args := m.Called(ctx, afterID, limit)
	return args.Get(0).([]domain.PurchaseOrder), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishPurchaseOrderCreated(ctx context.Context, o *domain.PurchaseOrder) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockEvents) PublishPurchaseOrderDeleted(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newMockService() (*PurchaseOrderService, *mockRepository, *mockEvents) {
	repo := new(mockRepository)
	events := new(mockEvents)
	return NewPurchaseOrderService(repo, events, newTestLogger()), repo, events
}

// newMemoryService returns a service over an in-memory store holding n
// orders with ids 1..n.
func newMemoryService(t *testing.T, n int) *PurchaseOrderService {
	t.Helper()
	events := new(mockEvents)
	events.On("PublishPurchaseOrderCreated", mock.Anything, mock.Anything).Return(nil)
	svc := NewPurchaseOrderService(memory.New(), events, newTestLogger())
	for i := 0; i < n; i++ {
		_, err := svc.CreatePurchaseOrder(context.Background(), validInput())
		require.NoError(t, err)
	}
	return svc
}

func validInput() CreatePurchaseOrderInput {
	return CreatePurchaseOrderInput{
		ItemName:     "Laptop",
		OrderDate:    time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		DeliveryDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Quantity:     3,
		UnitPrice:    19.99,
	}
}

func pageIDs(p pagination.Page[domain.PurchaseOrder]) []int64 {
	ids := make([]int64, len(p.Items))
	for i, o := range p.Items {
		ids[i] = o.ID
	}
	return ids
}

func decode(t *testing.T, cursor *string) int64 {
	t.Helper()
	require.NotNil(t, cursor)
	id, err := pagination.DecodeCursor(*cursor)
	require.NoError(t, err)
	return id
}

// --- CreatePurchaseOrder ---

func TestCreatePurchaseOrder_Success(t *testing.T) {
	svc, repo, events := newMockService()
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.PurchaseOrder")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.PurchaseOrder).ID = 11 }).
		Return(nil)
	events.On("PublishPurchaseOrderCreated", ctx, mock.AnythingOfType("*domain.PurchaseOrder")).Return(nil)

	input := validInput()
	input.ItemName = "  Laptop  "
	order, err := svc.CreatePurchaseOrder(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, int64(11), order.ID)
	assert.Equal(t, "Laptop", order.ItemName)
	assert.Equal(t, 59.97, order.TotalPrice)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCreatePurchaseOrder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreatePurchaseOrderInput)
		msg    string
	}{
		{"blank item name", func(in *CreatePurchaseOrderInput) { in.ItemName = "   " }, "item_name is required"},
		{"missing order date", func(in *CreatePurchaseOrderInput) { in.OrderDate = time.Time{} }, "order_date is required"},
		{"missing delivery date", func(in *CreatePurchaseOrderInput) { in.DeliveryDate = time.Time{} }, "delivery_date is required"},
		{"zero quantity", func(in *CreatePurchaseOrderInput) { in.Quantity = 0 }, "quantity must be greater than 0"},
		{"negative price", func(in *CreatePurchaseOrderInput) { in.UnitPrice = -1 }, "unit_price must not be negative"},
		{"quantity above int32", func(in *CreatePurchaseOrderInput) { in.Quantity = domain.MaxQuantity + 1 }, "quantity must be at most 2147483647"},
		{"price above cap", func(in *CreatePurchaseOrderInput) { in.UnitPrice = 1e308 }, "unit_price must be at most 1000000000"},
		{"infinite price", func(in *CreatePurchaseOrderInput) { in.UnitPrice = math.Inf(1) }, "unit_price must be a finite number"},
		{"NaN price", func(in *CreatePurchaseOrderInput) { in.UnitPrice = math.NaN() }, "unit_price must be a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newMockService()
			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreatePurchaseOrder(context.Background(), input)

			assert.ErrorIs(t, err, apperrors.ErrValidation)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.msg, appErr.Message)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreatePurchaseOrder_UpperBoundsAccepted(t *testing.T) {
	svc := newMemoryService(t, 0)
	input := validInput()
	input.Quantity = domain.MaxQuantity
	input.UnitPrice = domain.MaxUnitPrice

	o, err := svc.CreatePurchaseOrder(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, math.IsInf(o.TotalPrice, 0))
	assert.InDelta(t, 2.147483647e18, o.TotalPrice, 1e6)
}

func TestCreatePurchaseOrder_RepositoryError(t *testing.T) {
	svc, repo, events := newMockService()
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.CreatePurchaseOrder(context.Background(), validInput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create purchase order")
	events.AssertNotCalled(t, "PublishPurchaseOrderCreated", mock.Anything, mock.Anything)
}

func TestCreatePurchaseOrder_EventFailureDoesNotFail(t *testing.T) {
	svc, repo, events := newMockService()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishPurchaseOrderCreated", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	order, err := svc.CreatePurchaseOrder(context.Background(), validInput())

	require.NoError(t, err)
	assert.NotNil(t, order)
}

// --- Get / Delete / ListAll ---

func TestGetPurchaseOrder_NotFound(t *testing.T) {
	svc, repo, _ := newMockService()
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, apperrors.NotFound("purchase order", "9"))

	_, err := svc.GetPurchaseOrder(context.Background(), 9)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeletePurchaseOrder(t *testing.T) {
	svc, repo, events := newMockService()
	repo.On("Delete", mock.Anything, int64(4)).Return(nil)
	events.On("PublishPurchaseOrderDeleted", mock.Anything, int64(4)).Return(nil)

	require.NoError(t, svc.DeletePurchaseOrder(context.Background(), 4))
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestDeletePurchaseOrder_NotFoundPublishesNothing(t *testing.T) {
	svc, repo, events := newMockService()
	repo.On("Delete", mock.Anything, int64(4)).Return(apperrors.NotFound("purchase order", "4"))

	err := svc.DeletePurchaseOrder(context.Background(), 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	events.AssertNotCalled(t, "PublishPurchaseOrderDeleted", mock.Anything, mock.Anything)
}

func TestListPurchaseOrders_ReturnsAllInOrder(t *testing.T) {
	svc := newMemoryService(t, 4)

	orders, err := svc.ListPurchaseOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 4)
	for i, o := range orders {
		assert.Equal(t, int64(i+1), o.ID)
	}
}

// --- ListPurchaseOrdersWithCursor ---

func TestCursorListing_Scenarios(t *testing.T) {
	svc := newMemoryService(t, 5)
	ctx := context.Background()

	// A: first page.
	page, err := svc.ListPurchaseOrdersWithCursor(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, pageIDs(page))
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(2), decode(t, page.NextCursor))

	// B: continue.
	page, err = svc.ListPurchaseOrdersWithCursor(ctx, *page.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, pageIDs(page))
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(4), decode(t, page.NextCursor))

	// C: last page.
	page, err = svc.ListPurchaseOrdersWithCursor(ctx, *page.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, pageIDs(page))
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestCursorListing_EmptyTable(t *testing.T) {
	svc := newMemoryService(t, 0)

	page, err := svc.ListPurchaseOrdersWithCursor(context.Background(), "", 50)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestCursorListing_InvalidCursor(t *testing.T) {
	svc, repo, _ := newMockService()

	_, err := svc.ListPurchaseOrdersWithCursor(context.Background(), "not-valid-base64!!", 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, pagination.ErrInvalidCursor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_CURSOR", appErr.Code)
	assert.Equal(t, "Invalid cursor", appErr.Message)
	repo.AssertNotCalled(t, "ListAfter", mock.Anything, mock.Anything, mock.Anything)
}

func TestCursorListing_LimitOutOfRange(t *testing.T) {
	svc, _, _ := newMockService()

	for _, limit := range []int{0, -1, 201} {
		_, err := svc.ListPurchaseOrdersWithCursor(context.Background(), "", limit)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "limit %d", limit)
	}
}

func TestCursorListing_PassesDecodedKeyAndLimit(t *testing.T) {
	svc, repo, _ := newMockService()
	repo.On("ListAfter", mock.Anything, mock.MatchedBy(func(id *int64) bool { return id != nil && *id == 40 }), 10).
		Return([]domain.PurchaseOrder{}, nil)

	_, err := svc.ListPurchaseOrdersWithCursor(context.Background(), pagination.EncodeCursor(40), 10)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCursorListing_StorageError(t *testing.T) {
	svc, repo, _ := newMockService()
	repo.On("ListAfter", mock.Anything, (*int64)(nil), 10).Return([]domain.PurchaseOrder(nil), errors.New("connection reset"))

	_, err := svc.ListPurchaseOrdersWithCursor(context.Background(), "", 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCursorListing_ExhaustionVisitsEveryRowOnce(t *testing.T) {
	for _, tc := range []struct{ rows, limit int }{
		{0, 3}, {1, 1}, {6, 3}, {7, 3}, {10, 1}, {10, 200},
	} {
		t.Run(fmt.Sprintf("rows=%d/limit=%d", tc.rows, tc.limit), func(t *testing.T) {
			svc := newMemoryService(t, tc.rows)
			ctx := context.Background()

			var seen []int64
			cursor := ""
			for calls := 0; ; calls++ {
				require.LessOrEqual(t, calls, tc.rows+1, "pagination did not terminate")

				page, err := svc.ListPurchaseOrdersWithCursor(ctx, cursor, tc.limit)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(page.Items), tc.limit)
				assert.Equal(t, page.HasMore, page.NextCursor != nil)
				seen = append(seen, pageIDs(page)...)

				if !page.HasMore {
					break
				}
				cursor = *page.NextCursor
			}

			want := make([]int64, tc.rows)
			for i := range want {
				want[i] = int64(i + 1)
			}
			assert.Equal(t, want, append([]int64{}, seen...))
		})
	}
}
