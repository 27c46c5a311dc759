package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of order and delivery dates.
const DateLayout = "2006-01-02"

// Input bounds. Quantity matches the INTEGER column; the unit price cap keeps
// quantity × price well inside float64 range.
const (
	MaxQuantity  = math.MaxInt32
	MaxUnitPrice = 1_000_000_000
)

// Delivery status constants. Status is derived from the order dates and is
// never stored.
const (
	StatusDelivered = "delivered"
	StatusUpcoming  = "upcoming"
	StatusInProcess = "in_process"
	StatusScheduled = "scheduled"
)

// PurchaseOrder is a single purchase order record. ID is assigned by storage
// and is the pagination sort key.
type PurchaseOrder struct {
	ID           int64     `json:"id"`
	ItemName     string    `json:"item_name"`
	OrderDate    time.Time `json:"order_date"`
	DeliveryDate time.Time `json:"delivery_date"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	TotalPrice   float64   `json:"total_price"`
}

// Key returns the pagination sort key.
func (o PurchaseOrder) Key() int64 {
	return o.ID
}

// ComputeTotalPrice returns quantity × unit price rounded to cents. Decimal
// arithmetic keeps values like 3 × 19.99 at 59.97 instead of 59.970000000000006.
func ComputeTotalPrice(quantity int, unitPrice float64) float64 {
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}

// StatusAt derives the delivery status relative to the calendar day of now.
func (o PurchaseOrder) StatusAt(now time.Time) string {
	if o.OrderDate.IsZero() || o.DeliveryDate.IsZero() {
		return StatusScheduled
	}

	today := truncateToDay(now)
	switch {
	case truncateToDay(o.DeliveryDate).Before(today):
		return StatusDelivered
	case truncateToDay(o.OrderDate).After(today):
		return StatusUpcoming
	default:
		return StatusInProcess
	}
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
