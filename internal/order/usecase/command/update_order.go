package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/order/domain"
	catalog "github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/kafka"
	"github.com/tair/replenishment/pkg/logger"
)

// LineQuantity pairs a product with a quantity
type LineQuantity struct {
	ProductID uint
	Quantity  float64
}

// UpdateOrderCommand represents the command to edit a sent order. Adjust sets
// quantities of existing lines, Add appends products of the same supplier and
// Remove drops lines.
type UpdateOrderCommand struct {
	OrderID uint
	Adjust  []LineQuantity
	Add     []LineQuantity
	Remove  []uint
	Note    *string
}

// UpdateOrderHandler handles update order command
type UpdateOrderHandler struct {
	repo       domain.OrderRepository
	products   ProductCatalog
	publisher  EventPublisher
	defaultTax decimal.Decimal
}

// NewUpdateOrderHandler creates a new update order handler
func NewUpdateOrderHandler(repo domain.OrderRepository, products ProductCatalog, publisher EventPublisher, defaultTax decimal.Decimal) *UpdateOrderHandler {
	return &UpdateOrderHandler{repo: repo, products: products, publisher: publisher, defaultTax: defaultTax}
}

// Handle executes the update order command. Every edit is validated before
// the order is touched; lines left at quantity 0 are dropped.
func (h *UpdateOrderHandler) Handle(ctx context.Context, cmd UpdateOrderCommand) (*domain.Order, error) {
	order, err := findOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusSent {
		return nil, fmt.Errorf("%w: only sent orders can be edited, order is %s", domain.ErrInvalidTransition, order.Status)
	}

	lines := append([]domain.OrderLine(nil), order.Lines...)
	index := func(productID uint) int {
		for i := range lines {
			if lines[i].ProductID == productID {
				return i
			}
		}
		return -1
	}

	for _, adj := range cmd.Adjust {
		if adj.Quantity < 0 {
			return nil, fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, adj.ProductID)
		}
		i := index(adj.ProductID)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %d is not on the order", domain.ErrValidation, adj.ProductID)
		}
		lines[i].OrderedQty = adj.Quantity
	}

	if len(cmd.Add) > 0 {
		supplierProducts, err := h.supplierProducts(ctx, order.SupplierName)
		if err != nil {
			return nil, err
		}
		for _, add := range cmd.Add {
			if add.Quantity <= 0 {
				return nil, fmt.Errorf("%w: added product %d needs a positive quantity", domain.ErrInvalidQuantity, add.ProductID)
			}
			p, ok := supplierProducts[add.ProductID]
			if !ok {
				return nil, fmt.Errorf("%w: product %d", domain.ErrForeignProduct, add.ProductID)
			}
			if i := index(add.ProductID); i >= 0 {
				lines[i].OrderedQty = add.Quantity
				continue
			}
			lines = append(lines, domain.OrderLine{
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				OrderedQty:  add.Quantity,
				Unit:        string(p.Unit),
				UnitPrice:   p.UnitPrice,
				TaxRate:     p.TaxRate,
				Origin:      domain.OriginManual,
			})
		}
	}

	for _, productID := range cmd.Remove {
		i := index(productID)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %d is not on the order", domain.ErrValidation, productID)
		}
		lines = append(lines[:i], lines[i+1:]...)
	}

	lines = domain.Orderable(lines)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: delete the order instead", domain.ErrNoOrderableLines)
	}

	order.Lines = lines
	if cmd.Note != nil {
		order.Note = *cmd.Note
	}
	order.Recompute(h.defaultTax, nil)

	if err := h.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	orderTransitions.WithLabelValues("edit").Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Int("lines", len(order.Lines)).
		Str("gross_total", order.GrossTotal.String()).
		Msg("Order updated")

	publish(ctx, h.publisher, kafka.EventTypeOrderUpdated, order)
	return order, nil
}

// supplierProducts returns the active products of the order's supplier by ID
func (h *UpdateOrderHandler) supplierProducts(ctx context.Context, supplier string) (map[uint]catalog.Product, error) {
	products, err := h.products.ListProducts(ctx, catalog.ProductFilter{Supplier: supplier, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier products: %w", err)
	}
	byID := make(map[uint]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}
