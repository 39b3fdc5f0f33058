package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/kafka"
	"github.com/tair/replenishment/pkg/logger"
)

// AcknowledgeVarianceCommand represents the command to accept a delivery
// that differs from the order
type AcknowledgeVarianceCommand struct {
	OrderID uint
}

// AcknowledgeVarianceHandler handles acknowledge variance command
type AcknowledgeVarianceHandler struct {
	repo      domain.OrderRepository
	publisher EventPublisher
}

// NewAcknowledgeVarianceHandler creates a new acknowledge variance handler
func NewAcknowledgeVarianceHandler(repo domain.OrderRepository, publisher EventPublisher) *AcknowledgeVarianceHandler {
	return &AcknowledgeVarianceHandler{repo: repo, publisher: publisher}
}

// Handle executes the acknowledge variance command
func (h *AcknowledgeVarianceHandler) Handle(ctx context.Context, cmd AcknowledgeVarianceCommand) (*domain.Order, error) {
	order, err := findOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusCompleted || !order.HasVariance {
		return nil, fmt.Errorf("%w: order has no variance to acknowledge", domain.ErrInvalidTransition)
	}
	if order.VarianceAcknowledged {
		return order, nil
	}

	order.VarianceAcknowledged = true
	if err := h.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to acknowledge variance: %w", err)
	}

	orderTransitions.WithLabelValues("acknowledge_variance").Inc()
	logger.Info(ctx).Uint("order_id", order.ID).Msg("Order variance acknowledged")
	publish(ctx, h.publisher, kafka.EventTypeOrderVarianceAcknowledged, order)
	return order, nil
}

// AttachDeliveryNoteCommand represents the command to store delivery note
// photo references on an order
type AttachDeliveryNoteCommand struct {
	OrderID   uint
	PhotoURLs []string
}

// AttachDeliveryNoteHandler handles attach delivery note command
type AttachDeliveryNoteHandler struct {
	repo      domain.OrderRepository
	publisher EventPublisher
}

// NewAttachDeliveryNoteHandler creates a new attach delivery note handler
func NewAttachDeliveryNoteHandler(repo domain.OrderRepository, publisher EventPublisher) *AttachDeliveryNoteHandler {
	return &AttachDeliveryNoteHandler{repo: repo, publisher: publisher}
}

// Handle executes the attach delivery note command. Already attached
// references are kept once.
func (h *AttachDeliveryNoteHandler) Handle(ctx context.Context, cmd AttachDeliveryNoteCommand) (*domain.Order, error) {
	var urls []string
	for _, u := range cmd.PhotoURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: at least one photo url is required", domain.ErrValidation)
	}

	order, err := findOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(order.DeliveryNotePhotos))
	for _, u := range order.DeliveryNotePhotos {
		seen[u] = true
	}
	added := 0
	for _, u := range urls {
		if !seen[u] {
			order.DeliveryNotePhotos = append(order.DeliveryNotePhotos, u)
			seen[u] = true
			added++
		}
	}
	if added == 0 {
		return order, nil
	}

	if err := h.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to attach delivery note: %w", err)
	}

	logger.Info(ctx).Uint("order_id", order.ID).Int("photos", added).Msg("Delivery note attached")
	publish(ctx, h.publisher, kafka.EventTypeOrderDeliveryNoteAttached, order)
	return order, nil
}

// DeleteOrderCommand represents the command to delete an order
type DeleteOrderCommand struct {
	OrderID uint
}

// DeleteOrderHandler handles delete order command
type DeleteOrderHandler struct {
	repo      domain.OrderRepository
	publisher EventPublisher
}

// NewDeleteOrderHandler creates a new delete order handler
func NewDeleteOrderHandler(repo domain.OrderRepository, publisher EventPublisher) *DeleteOrderHandler {
	return &DeleteOrderHandler{repo: repo, publisher: publisher}
}

// Handle executes the delete order command. Sent and completed orders are
// removed unconditionally.
func (h *DeleteOrderHandler) Handle(ctx context.Context, cmd DeleteOrderCommand) error {
	order, err := findOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	orderTransitions.WithLabelValues("delete").Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("reference", order.Reference).
		Str("status", string(order.Status)).
		Msg("Order deleted")

	publish(ctx, h.publisher, kafka.EventTypeOrderDeleted, order)
	return nil
}
