package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/purchase-orders/internal/domain"
	pkgkafka "github.com/utafrali/purchase-orders/pkg/kafka"
	"github.com/utafrali/purchase-orders/pkg/logger"
)

// Event types, which double as the topic suffix after the project prefix.
const (
	TypePurchaseOrderCreated = "purchase_order.created"
	TypePurchaseOrderDeleted = "purchase_order.deleted"
)

const AggregateTypePurchaseOrder = "purchase_order"

// Topics for purchase order domain events.
var (
	TopicPurchaseOrderCreated = pkgkafka.Topic(AggregateTypePurchaseOrder, "created")
	TopicPurchaseOrderDeleted = pkgkafka.Topic(AggregateTypePurchaseOrder, "deleted")
)

// PurchaseOrderCreatedData is the payload of purchase_order.created, a full
// snapshot of the new order.
type PurchaseOrderCreatedData struct {
	ID           int64   `json:"id"`
	ItemName     string  `json:"item_name"`
	OrderDate    string  `json:"order_date"`
	DeliveryDate string  `json:"delivery_date"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
}

// PurchaseOrderDeletedData is the payload of purchase_order.deleted.
type PurchaseOrderDeletedData struct {
	ID int64 `json:"id"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes purchase order domain events. A Producer with a nil
// Publisher drops every event, which is how event publishing is disabled.
type Producer struct {
	publisher Publisher
	source    string
	logger    *slog.Logger
}

// NewProducer creates an event producer. source identifies this service in
// the envelope.
func NewProducer(publisher Publisher, source string, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		source:    source,
		logger:    logger,
	}
}

// PublishPurchaseOrderCreated publishes a purchase_order.created event.
func (p *Producer) PublishPurchaseOrderCreated(ctx context.Context, o *domain.PurchaseOrder) error {
	data := PurchaseOrderCreatedData{
		ID:           o.ID,
		ItemName:     o.ItemName,
		OrderDate:    o.OrderDate.Format(domain.DateLayout),
		DeliveryDate: o.DeliveryDate.Format(domain.DateLayout),
		Quantity:     o.Quantity,
		UnitPrice:    o.UnitPrice,
		TotalPrice:   o.TotalPrice,
	}
	return p.publish(ctx, TopicPurchaseOrderCreated, TypePurchaseOrderCreated, o.ID, data)
}

// PublishPurchaseOrderDeleted publishes a purchase_order.deleted event.
func (p *Producer) PublishPurchaseOrderDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicPurchaseOrderDeleted, TypePurchaseOrderDeleted, id, PurchaseOrderDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, id int64, data any) error {
	if p.publisher == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(eventType, strconv.FormatInt(id, 10), AggregateTypePurchaseOrder, p.source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published "+eventType+" event",
		slog.Int64("purchase_order_id", id),
	)
	return nil
}
