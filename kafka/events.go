package kafka

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/order/domain"
)

// OrderEvent represents an order lifecycle event
type OrderEvent struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	OrderID      uint            `json:"order_id"`
	Reference    string          `json:"reference"`
	LocationID   uint            `json:"location_id"`
	SupplierName string          `json:"supplier_name"`
	Status       domain.Status   `json:"status"`
	ProductIDs   []uint          `json:"product_ids"`
	NetTotal     decimal.Decimal `json:"net_total"`
	GrossTotal   decimal.Decimal `json:"gross_total"`
	HasVariance  bool            `json:"has_variance"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderSent                 = "order.sent"
	EventTypeOrderUpdated              = "order.updated"
	EventTypeOrderCompleted            = "order.completed"
	EventTypeOrderDeleted              = "order.deleted"
	EventTypeOrderVarianceAcknowledged = "order.variance_acknowledged"
	EventTypeOrderDeliveryNoteAttached = "order.delivery_note_attached"
)

// Kafka topics
const (
	TopicOrderEvents = "order-events"
)

// NewOrderEvent snapshots an order into an event of the given type
func NewOrderEvent(eventType string, order *domain.Order) OrderEvent {
	event := OrderEvent{
		EventType:    eventType,
		OrderID:      order.ID,
		Reference:    order.Reference,
		LocationID:   order.LocationID,
		SupplierName: order.SupplierName,
		Status:       order.Status,
		NetTotal:     order.NetTotal,
		GrossTotal:   order.GrossTotal,
		HasVariance:  order.HasVariance,
	}
	for _, l := range order.Lines {
		event.ProductIDs = append(event.ProductIDs, l.ProductID)
	}
	return event
}
