package service

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/purchase-orders/internal/domain"
)

// ItemCatalogue is the set of item names used for generated orders.
var ItemCatalogue = []string{
	"Laptop", "Desktop Computer", "Monitor", "Keyboard", "Mouse",
	"Office Chair", "Desk", "Printer", "Scanner", "Webcam",
	"Headphones", "Microphone", "USB Cable", "HDMI Cable", "Router",
	"Switch", "Tablet", "Smartphone", "Hard Drive", "SSD",
	"RAM Module", "Graphics Card", "Motherboard", "CPU", "Power Supply",
	"Phone Case", "Screen Protector", "Charging Cable", "Adapter", "Hub",
	"Docking Station", "Ergonomic Mouse", "Mechanical Keyboard", "Speakers", "Projector",
	"Whiteboard", "Marker Set", "Notebook", "Pen Set", "Stapler",
	"Paper Ream", "File Cabinet", "Bookshelf", "Lamp", "Extension Cord",
	"Surge Protector", "Label Maker", "Calculator", "Shredder", "Coffee Maker",
}

// Generated order bounds.
var (
	seedFirstOrderDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	seedLastOrderDate  = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

const (
	seedMinLeadDays  = 5
	seedMaxLeadDays  = 30
	seedMaxQuantity  = 100
	seedMinUnitPrice = 10.0
	seedMaxUnitPrice = 2000.0
)

// SampleOrders returns the fixed orders inserted by Init.
func SampleOrders() []domain.PurchaseOrder {
	mk := func(item string, ordered, delivered time.Time, qty int, price float64) domain.PurchaseOrder {
		return domain.PurchaseOrder{
			ItemName:     item,
			OrderDate:    ordered,
			DeliveryDate: delivered,
			Quantity:     qty,
			UnitPrice:    price,
			TotalPrice:   domain.ComputeTotalPrice(qty, price),
		}
	}
	jan := func(d int) time.Time { return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC) }

	return []domain.PurchaseOrder{
		mk("Laptop", jan(5), jan(15), 10, 1200),
		mk("Office Chair", jan(8), jan(20), 25, 350),
		mk("Monitor", jan(10), jan(18), 20, 450),
		mk("Keyboard", jan(12), jan(22), 50, 80),
		mk("Mouse", jan(12), jan(22), 50, 35),
	}
}

// RandomOrder generates one order: a catalogue item ordered between
// 2020-01-01 and 2025-12-31, delivered 5 to 30 days later, quantity 1 to 100
// and unit price 10 to 2000 rounded to cents.
func RandomOrder(r *rand.Rand) domain.PurchaseOrder {
	spanDays := int(seedLastOrderDate.Sub(seedFirstOrderDate).Hours() / 24)
	ordered := seedFirstOrderDate.AddDate(0, 0, r.IntN(spanDays+1))
	delivered := ordered.AddDate(0, 0, seedMinLeadDays+r.IntN(seedMaxLeadDays-seedMinLeadDays+1))

	quantity := 1 + r.IntN(seedMaxQuantity)
	unitPrice := decimal.NewFromFloat(seedMinUnitPrice + r.Float64()*(seedMaxUnitPrice-seedMinUnitPrice)).
		Round(2).
		InexactFloat64()

	return domain.PurchaseOrder{
		ItemName:     ItemCatalogue[r.IntN(len(ItemCatalogue))],
		OrderDate:    ordered,
		DeliveryDate: delivered,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		TotalPrice:   domain.ComputeTotalPrice(quantity, unitPrice),
	}
}
