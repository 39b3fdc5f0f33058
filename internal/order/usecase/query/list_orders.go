package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/replenishment/internal/order/domain"
)

// ListOrdersQuery represents the query to list orders
type ListOrdersQuery struct {
	LocationID   uint
	SupplierName string
	Statuses     []domain.Status
	Limit        int
	Offset       int
}

// ListOrdersHandler handles list orders query
type ListOrdersHandler struct {
	repo domain.OrderRepository
}

// NewListOrdersHandler creates a new list orders handler
func NewListOrdersHandler(repo domain.OrderRepository) *ListOrdersHandler {
	return &ListOrdersHandler{repo: repo}
}

// Handle executes the list orders query, newest first
func (h *ListOrdersHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if query.Limit == 0 {
		query.Limit = 10
	}

	if query.Limit > 100 {
		query.Limit = 100
	}

	if query.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrValidation)
	}

	for _, s := range query.Statuses {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, s)
		}
	}

	orders, err := h.repo.List(ctx, domain.OrderFilter{
		LocationID:   query.LocationID,
		SupplierName: strings.TrimSpace(query.SupplierName),
		Statuses:     query.Statuses,
		Limit:        query.Limit,
		Offset:       query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}
