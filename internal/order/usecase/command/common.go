package command

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/order/domain"
	catalog "github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/kafka"
	"github.com/tair/replenishment/pkg/logger"
)

var orderTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order lifecycle transitions",
	},
	[]string{"transition"},
)

// ProductCatalog is the product read side used by order commands
type ProductCatalog interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error)
}

// EventPublisher publishes order lifecycle events
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event kafka.OrderEvent) error
}

// publish emits an event; failures are logged, never returned, because the
// order change is already persisted.
func publish(ctx context.Context, pub EventPublisher, eventType string, order *domain.Order) {
	if pub == nil {
		return
	}
	if err := pub.PublishOrderEvent(ctx, kafka.NewOrderEvent(eventType, order)); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("event_type", eventType).
			Uint("order_id", order.ID).
			Msg("Failed to publish order event")
	}
}

// findOrder loads an order and maps a missing record onto ErrOrderNotFound
func findOrder(ctx context.Context, repo domain.OrderRepository, id uint) (*domain.Order, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: order_id is required", domain.ErrValidation)
	}
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	return order, nil
}

// liveTaxRates fetches the current tax rate of every product on the order
func liveTaxRates(ctx context.Context, products ProductCatalog, lines []domain.OrderLine) (domain.TaxLookup, error) {
	if products == nil {
		return nil, nil
	}
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := products.ListProducts(ctx, catalog.ProductFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	rates := make(map[uint]decimal.Decimal, len(found))
	for _, p := range found {
		if p.TaxRate.Valid {
			rates[p.ID] = p.TaxRate.Decimal
		}
	}
	return func(productID uint) (decimal.Decimal, bool) {
		rate, ok := rates[productID]
		return rate, ok
	}, nil
}
