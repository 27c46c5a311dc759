package domain

import "time"

// Summary is an aggregate report over every stored purchase order.
type Summary struct {
	TotalOrders int64

	TotalValue   float64
	AverageValue float64
	MinValue     float64
	MaxValue     float64

	TotalQuantity   int64
	AverageQuantity float64
	MinQuantity     int
	MaxQuantity     int

	TopByCount   []ItemStats
	TopByRevenue []ItemStats

	EarliestOrderDate    time.Time
	LatestOrderDate      time.Time
	EarliestDeliveryDate time.Time
	LatestDeliveryDate   time.Time

	ByYear []YearStats
	Latest []PurchaseOrder
}

// ItemStats aggregates orders sharing an item name.
type ItemStats struct {
	ItemName   string
	OrderCount int64
	Quantity   int64
	TotalValue float64
}

// YearStats aggregates orders placed in one calendar year.
type YearStats struct {
	Year       int
	OrderCount int64
	TotalValue float64
}
