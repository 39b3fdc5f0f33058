package query

import (
	"context"
	"fmt"
	"time"

	orderdomain "github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/grouping"
)

// OrderLister is the read side of the order store used to drop lines that are
// already on their way
type OrderLister interface {
	List(ctx context.Context, filter orderdomain.OrderFilter) ([]orderdomain.Order, error)
}

// StartOfDay returns midnight of now's calendar day in now's location
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// ExcludeAlreadyOrdered drops suggestions whose product is already on an open
// sent order, or on an order completed today, for the same location and
// supplier.
func ExcludeAlreadyOrdered(s []domain.Suggestion, orders []orderdomain.Order, now time.Time) []domain.Suggestion {
	dayStart := StartOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var blocking []orderdomain.Order
	for _, o := range orders {
		switch o.Status {
		case orderdomain.StatusSent:
			blocking = append(blocking, o)
		case orderdomain.StatusCompleted:
			if o.CompletedAt != nil && !o.CompletedAt.Before(dayStart) && o.CompletedAt.Before(dayEnd) {
				blocking = append(blocking, o)
			}
		}
	}

	out := make([]domain.Suggestion, 0, len(s))
	for _, line := range s {
		if !alreadyOrdered(line, blocking) {
			out = append(out, line)
		}
	}
	return out
}

func alreadyOrdered(line domain.Suggestion, orders []orderdomain.Order) bool {
	for i := range orders {
		o := &orders[i]
		if o.LocationID != line.LocationID || !domain.SupplierNamesMatch(o.SupplierName, line.Supplier) {
			continue
		}
		if o.Contains(line.ProductID) {
			return true
		}
	}
	return false
}

// OrderableSuggestionsQuery represents the query for lines that can still be ordered
type OrderableSuggestionsQuery struct {
	LocationID uint
	Supplier   string
}

// OrderableSuggestionsHandler handles orderable suggestions query
type OrderableSuggestionsHandler struct {
	suggestions *GetSuggestionsHandler
	catalog     domain.CatalogRepository
	orders      OrderLister
	now         func() time.Time
}

// NewOrderableSuggestionsHandler creates a new orderable suggestions handler
func NewOrderableSuggestionsHandler(suggestions *GetSuggestionsHandler, catalog domain.CatalogRepository, orders OrderLister) *OrderableSuggestionsHandler {
	return &OrderableSuggestionsHandler{suggestions: suggestions, catalog: catalog, orders: orders, now: time.Now}
}

// Handle evaluates, drops already-ordered lines and groups the rest by
// location then supplier, ready to be turned into orders
func (h *OrderableSuggestionsHandler) Handle(ctx context.Context, q OrderableSuggestionsQuery) ([]grouping.LocationGroup, error) {
	report, err := h.suggestions.Handle(ctx, GetSuggestionsQuery{LocationID: q.LocationID, Supplier: q.Supplier})
	if err != nil {
		return nil, err
	}

	now := h.now()
	orders, err := h.orders.List(ctx, orderdomain.OrderFilter{
		LocationID: q.LocationID,
		Statuses:   []orderdomain.Status{orderdomain.StatusSent, orderdomain.StatusCompleted},
		// Completed orders only block for the day they were received.
		CompletedSince: StartOfDay(now),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}

	suppliers, err := h.catalog.ListSuppliers(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	lines := ExcludeAlreadyOrdered(report.Suggestions, orders, now)
	return grouping.ByLocationThenSupplier(lines, suppliers), nil
}
