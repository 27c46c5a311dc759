package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/pkg/database"
	apperrors "github.com/utafrali/purchase-orders/pkg/errors"
)

const table = "purchase_orders"

const selectColumns = `id, item_name, order_date, delivery_date, quantity, unit_price, total_price`

// Report sizes used by Summary.
const (
	summaryTopItems = 10
	summaryLatest   = 5
)

// PurchaseOrderRepository implements repository.PurchaseOrderRepository and
// repository.AdminRepository using PostgreSQL.
type PurchaseOrderRepository struct {
	pool database.DBTX
}

// NewPurchaseOrderRepository creates a new PostgreSQL-backed repository.
func NewPurchaseOrderRepository(pool database.DBTX) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{pool: pool}
}

// Create inserts an order and sets its ID from the BIGSERIAL sequence.
func (r *PurchaseOrderRepository) Create(ctx context.Context, o *domain.PurchaseOrder) (err error) {
	const query = `
		INSERT INTO purchase_orders (item_name, order_date, delivery_date, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, table, "CreatePurchaseOrder", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		o.ItemName,
		o.OrderDate,
		o.DeliveryDate,
		o.Quantity,
		o.UnitPrice,
		o.TotalPrice,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

// GetByID returns the order with the given id or an apperrors NotFound.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (_ *domain.PurchaseOrder, err error) {
	const query = `SELECT ` + selectColumns + ` FROM purchase_orders WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, table, "GetPurchaseOrder", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("purchase order", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get purchase order %d: %w", id, err)
	}
	return &o, nil
}

// Delete removes the order with the given id.
func (r *PurchaseOrderRepository) Delete(ctx context.Context, id int64) (err error) {
	const query = `DELETE FROM purchase_orders WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, table, "DeletePurchaseOrder", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete purchase order %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("purchase order", strconv.FormatInt(id, 10))
	}
	return nil
}

// ListAll returns every order ascending by id.
func (r *PurchaseOrderRepository) ListAll(ctx context.Context) (_ []domain.PurchaseOrder, err error) {
	const query = `SELECT ` + selectColumns + ` FROM purchase_orders ORDER BY id ASC`

	ctx, end := database.TraceQuery(ctx, table, "ListPurchaseOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return collectOrders(rows)
}

// ListAfter returns up to limit+1 orders with id > afterID, ascending. A nil
// afterID starts from the beginning of the table.
func (r *PurchaseOrderRepository) ListAfter(ctx context.Context, afterID *int64, limit int) (_ []domain.PurchaseOrder, err error) {
	const (
		firstPage = `SELECT ` + selectColumns + ` FROM purchase_orders ORDER BY id ASC LIMIT $1`
		nextPage  = `SELECT ` + selectColumns + ` FROM purchase_orders WHERE id > $1 ORDER BY id ASC LIMIT $2`
	)

	query, args := firstPage, []any{limit + 1}
	attrs := []attribute.KeyValue{attribute.Int("pagination.limit", limit)}
	if afterID != nil {
		query, args = nextPage, []any{*afterID, limit + 1}
		attrs = append(attrs, attribute.Int64("pagination.after_id", *afterID))
	}

	ctx, end := database.TraceQuery(ctx, table, "ListPurchaseOrdersAfter", query, attrs...)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders page: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	database.RecordRows(ctx, len(orders))
	return orders, nil
}

// Count returns the number of stored orders.
func (r *PurchaseOrderRepository) Count(ctx context.Context) (n int64, err error) {
	const query = `SELECT COUNT(*) FROM purchase_orders`

	ctx, end := database.TraceQuery(ctx, table, "CountPurchaseOrders", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count purchase orders: %w", err)
	}
	return n, nil
}

// CreateBatch bulk-loads orders with the COPY protocol. IDs are assigned by
// the sequence and are not written back to orders.
func (r *PurchaseOrderRepository) CreateBatch(ctx context.Context, orders []domain.PurchaseOrder) (n int64, err error) {
	if len(orders) == 0 {
		return 0, nil
	}

	columns := []string{"item_name", "order_date", "delivery_date", "quantity", "unit_price", "total_price"}

	ctx, end := database.TraceQuery(ctx, table, "CopyPurchaseOrders", "COPY purchase_orders")
	defer func() { end(err) }()

	n, err = r.pool.CopyFrom(ctx,
		pgx.Identifier{"purchase_orders"},
		columns,
		pgx.CopyFromSlice(len(orders), func(i int) ([]any, error) {
			o := orders[i]
			return []any{o.ItemName, o.OrderDate, o.DeliveryDate, o.Quantity, o.UnitPrice, o.TotalPrice}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy purchase orders: %w", err)
	}
	return n, nil
}

// DeleteAll removes every order and returns how many were removed.
func (r *PurchaseOrderRepository) DeleteAll(ctx context.Context) (_ int64, err error) {
	const query = `DELETE FROM purchase_orders`

	ctx, end := database.TraceQuery(ctx, table, "DeleteAllPurchaseOrders", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete all purchase orders: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Summary builds the aggregate report. An empty table yields a summary with
// only TotalOrders set.
func (r *PurchaseOrderRepository) Summary(ctx context.Context) (*domain.Summary, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	s := &domain.Summary{TotalOrders: total}
	if total == 0 {
		return s, nil
	}

	if err := r.summaryTotals(ctx, s); err != nil {
		return nil, err
	}
	if s.TopByCount, err = r.topItems(ctx, "COUNT(*) DESC"); err != nil {
		return nil, err
	}
	if s.TopByRevenue, err = r.topItems(ctx, "SUM(total_price) DESC"); err != nil {
		return nil, err
	}
	if s.ByYear, err = r.byYear(ctx); err != nil {
		return nil, err
	}
	if s.Latest, err = r.latest(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PurchaseOrderRepository) summaryTotals(ctx context.Context, s *domain.Summary) (err error) {
	const query = `
		SELECT
			SUM(total_price), AVG(total_price), MIN(total_price), MAX(total_price),
			SUM(quantity), AVG(quantity)::float8, MIN(quantity), MAX(quantity),
			MIN(order_date), MAX(order_date), MIN(delivery_date), MAX(delivery_date)
		FROM purchase_orders`

	ctx, end := database.TraceQuery(ctx, table, "SummarizePurchaseOrders", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query).Scan(
		&s.TotalValue, &s.AverageValue, &s.MinValue, &s.MaxValue,
		&s.TotalQuantity, &s.AverageQuantity, &s.MinQuantity, &s.MaxQuantity,
		&s.EarliestOrderDate, &s.LatestOrderDate, &s.EarliestDeliveryDate, &s.LatestDeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("summarize purchase orders: %w", err)
	}
	return nil
}

// topItems groups by item name; orderBy is one of two fixed expressions.
func (r *PurchaseOrderRepository) topItems(ctx context.Context, orderBy string) (_ []domain.ItemStats, err error) {
	query := fmt.Sprintf(`
		SELECT item_name, COUNT(*), SUM(quantity), SUM(total_price)
		FROM purchase_orders
		GROUP BY item_name
		ORDER BY %s, item_name
		LIMIT $1`, orderBy)

	ctx, end := database.TraceQuery(ctx, table, "TopPurchaseOrderItems", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, summaryTopItems)
	if err != nil {
		return nil, fmt.Errorf("query top items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ItemStats, 0, summaryTopItems)
	for rows.Next() {
		var it domain.ItemStats
		if err := rows.Scan(&it.ItemName, &it.OrderCount, &it.Quantity, &it.TotalValue); err != nil {
			return nil, fmt.Errorf("scan top item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top items: %w", err)
	}
	return items, nil
}

func (r *PurchaseOrderRepository) byYear(ctx context.Context) (_ []domain.YearStats, err error) {
	const query = `
		SELECT EXTRACT(YEAR FROM order_date)::int AS year, COUNT(*), SUM(total_price)
		FROM purchase_orders
		GROUP BY year
		ORDER BY year`

	ctx, end := database.TraceQuery(ctx, table, "PurchaseOrdersByYear", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders by year: %w", err)
	}
	defer rows.Close()

	var years []domain.YearStats
	for rows.Next() {
		var y domain.YearStats
		if err := rows.Scan(&y.Year, &y.OrderCount, &y.TotalValue); err != nil {
			return nil, fmt.Errorf("scan year row: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate year rows: %w", err)
	}
	return years, nil
}

func (r *PurchaseOrderRepository) latest(ctx context.Context) (_ []domain.PurchaseOrder, err error) {
	const query = `SELECT ` + selectColumns + ` FROM purchase_orders ORDER BY id DESC LIMIT $1`

	ctx, end := database.TraceQuery(ctx, table, "LatestPurchaseOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, summaryLatest)
	if err != nil {
		return nil, fmt.Errorf("query latest purchase orders: %w", err)
	}
	return collectOrders(rows)
}

func scanOrder(row pgx.Row) (domain.PurchaseOrder, error) {
	var o domain.PurchaseOrder
	err := row.Scan(
		&o.ID,
		&o.ItemName,
		&o.OrderDate,
		&o.DeliveryDate,
		&o.Quantity,
		&o.UnitPrice,
		&o.TotalPrice,
	)
	return o, err
}

// collectOrders drains and closes rows. The result is never nil.
func collectOrders(rows pgx.Rows) ([]domain.PurchaseOrder, error) {
	defer rows.Close()

	orders := make([]domain.PurchaseOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase order rows: %w", err)
	}
	return orders, nil
}
