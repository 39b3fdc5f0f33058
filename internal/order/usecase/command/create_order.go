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

// LineInput is one line offered for a new order, usually from a suggestion
type LineInput struct {
	ProductID   uint
	ProductName string
	Quantity    float64
	Unit        string
	UnitPrice   decimal.Decimal
	TaxRate     decimal.NullDecimal
	// Manual marks lines the user added outside the suggestion set.
	Manual bool
}

// CreateOrderCommand represents the command to record an order as sent
// without contacting the supplier
type CreateOrderCommand struct {
	LocationID    uint
	LocationName  string
	SupplierName  string
	SupplierEmail string
	Note          string
	Lines         []LineInput
}

// CreateOrderHandler handles create order command
type CreateOrderHandler struct {
	repo       domain.OrderRepository
	publisher  EventPublisher
	defaultTax decimal.Decimal
	now        func() time.Time
}

// NewCreateOrderHandler creates a new create order handler
func NewCreateOrderHandler(repo domain.OrderRepository, publisher EventPublisher, defaultTax decimal.Decimal) *CreateOrderHandler {
	return &CreateOrderHandler{repo: repo, publisher: publisher, defaultTax: defaultTax, now: time.Now}
}

// Handle executes the create order command. Lines with quantity 0 are dropped
// and repeated products are merged into one line.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	order, err := buildSentOrder(cmd, h.now(), h.defaultTax)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderTransitions.WithLabelValues("mark_sent").Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("reference", order.Reference).
		Uint("location_id", order.LocationID).
		Str("supplier", order.SupplierName).
		Int("lines", len(order.Lines)).
		Msg("Order marked as sent")

	publish(ctx, h.publisher, kafka.EventTypeOrderSent, order)
	return order, nil
}

// buildSentOrder validates cmd and assembles the order to persist
func buildSentOrder(cmd CreateOrderCommand, now time.Time, defaultTax decimal.Decimal) (*domain.Order, error) {
	if cmd.LocationID == 0 {
		return nil, fmt.Errorf("%w: location_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(cmd.SupplierName) == "" {
		return nil, fmt.Errorf("%w: supplier_name is required", domain.ErrValidation)
	}

	var lines []domain.OrderLine
	seen := make(map[uint]int, len(cmd.Lines))
	for _, in := range cmd.Lines {
		if in.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id is required on every line", domain.ErrValidation)
		}
		if in.Quantity < 0 {
			return nil, fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, in.ProductID)
		}
		if in.Quantity == 0 {
			continue
		}
		// One line per product: repeated inputs are summed into the first.
		if i, ok := seen[in.ProductID]; ok {
			if in.Unit != "" && lines[i].Unit != "" && !strings.EqualFold(in.Unit, lines[i].Unit) {
				return nil, fmt.Errorf("%w: product %d is listed in both %s and %s", domain.ErrValidation, in.ProductID, lines[i].Unit, in.Unit)
			}
			lines[i].OrderedQty += in.Quantity
			continue
		}
		seen[in.ProductID] = len(lines)
		origin := domain.OriginSuggestion
		if in.Manual {
			origin = domain.OriginManual
		}
		lines = append(lines, domain.OrderLine{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			OrderedQty:  in.Quantity,
			Unit:        in.Unit,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			Origin:      origin,
		})
	}
	if len(lines) == 0 {
		return nil, domain.ErrNoOrderableLines
	}

	order := &domain.Order{
		Reference:     domain.NewReference(now),
		LocationID:    cmd.LocationID,
		LocationName:  cmd.LocationName,
		SupplierName:  strings.TrimSpace(cmd.SupplierName),
		SupplierEmail: strings.TrimSpace(cmd.SupplierEmail),
		Status:        domain.StatusSent,
		CreatedAt:     now,
		SentAt:        &now,
		Note:          cmd.Note,
		Lines:         lines,
	}
	order.Recompute(defaultTax, nil)
	return order, nil
}
