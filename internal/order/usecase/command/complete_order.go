package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/kafka"
	"github.com/tair/replenishment/pkg/logger"
)

// ReceivedLine is the receiver's count for one line
type ReceivedLine struct {
	ProductID uint
	Quantity  float64
	Confirmed bool
}

// CompleteOrderCommand represents the command to reconcile a delivery
type CompleteOrderCommand struct {
	OrderID     uint
	Received    []ReceivedLine
	CompletedBy string
}

// CompleteOrderHandler handles complete order command
type CompleteOrderHandler struct {
	repo       domain.OrderRepository
	products   ProductCatalog
	publisher  EventPublisher
	defaultTax decimal.Decimal
	now        func() time.Time
}

// NewCompleteOrderHandler creates a new complete order handler
func NewCompleteOrderHandler(repo domain.OrderRepository, products ProductCatalog, publisher EventPublisher, defaultTax decimal.Decimal) *CompleteOrderHandler {
	return &CompleteOrderHandler{repo: repo, products: products, publisher: publisher, defaultTax: defaultTax, now: time.Now}
}

// Handle executes the complete order command. Totals are recomputed from the
// received quantities at the products' current tax rates. A quantity mismatch
// is flagged on the order, never rejected.
func (h *CompleteOrderHandler) Handle(ctx context.Context, cmd CompleteOrderCommand) (*domain.Order, error) {
	order, err := findOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusSent {
		return nil, fmt.Errorf("%w: only sent orders can be completed, order is %s", domain.ErrInvalidTransition, order.Status)
	}

	lines := append([]domain.OrderLine(nil), order.Lines...)
	for _, rec := range cmd.Received {
		if rec.Quantity < 0 {
			return nil, fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, rec.ProductID)
		}
		found := false
		for i := range lines {
			if lines[i].ProductID == rec.ProductID {
				lines[i].ReceivedQty = rec.Quantity
				lines[i].Confirmed = rec.Confirmed
				found = true
			}
		}
		// A confirmed zero for a product that was never ordered carries no information.
		if !found && rec.Quantity > 0 {
			return nil, fmt.Errorf("%w: product %d is not on the order", domain.ErrValidation, rec.ProductID)
		}
	}

	pending := (&domain.Order{Lines: lines}).Unconfirmed()
	if len(pending) > 0 {
		names := make([]string, 0, len(pending))
		for _, l := range pending {
			names = append(names, l.ProductName)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnconfirmedLines, strings.Join(names, ", "))
	}

	live, err := liveTaxRates(ctx, h.products, lines)
	if err != nil {
		return nil, err
	}

	now := h.now()
	order.Lines = lines
	order.Status = domain.StatusCompleted
	order.CompletedAt = &now
	order.CompletedBy = cmd.CompletedBy
	order.HasVariance = len(order.VarianceLines()) > 0
	order.VarianceAcknowledged = false
	order.Recompute(h.defaultTax, live)

	if err := h.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	orderTransitions.WithLabelValues("complete").Inc()
	event := logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("reference", order.Reference).
		Str("completed_by", order.CompletedBy).
		Bool("has_variance", order.HasVariance)
	if order.HasVariance {
		event = event.Int("variance_lines", len(order.VarianceLines()))
	}
	event.Msg("Order completed")

	publish(ctx, h.publisher, kafka.EventTypeOrderCompleted, order)
	return order, nil
}
