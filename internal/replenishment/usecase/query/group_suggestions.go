package query

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/grouping"
)

// View selects a grouping projection
type View string

const (
	ViewByLocation View = "location"
	ViewBySupplier View = "supplier"
)

// GroupSuggestionsQuery represents the query for a grouped suggestion view
type GroupSuggestionsQuery struct {
	LocationID uint
	View       View
}

// GroupedSuggestions carries exactly one of the two projections
type GroupedSuggestions struct {
	View       View                     `json:"view"`
	ByLocation []grouping.LocationGroup `json:"by_location,omitempty"`
	BySupplier []grouping.SupplierGroup `json:"by_supplier,omitempty"`
}

// GroupSuggestionsHandler handles group suggestions query
type GroupSuggestionsHandler struct {
	suggestions *GetSuggestionsHandler
	catalog     domain.CatalogRepository
}

// NewGroupSuggestionsHandler creates a new group suggestions handler
func NewGroupSuggestionsHandler(suggestions *GetSuggestionsHandler, catalog domain.CatalogRepository) *GroupSuggestionsHandler {
	return &GroupSuggestionsHandler{suggestions: suggestions, catalog: catalog}
}

// Handle executes the group suggestions query
func (h *GroupSuggestionsHandler) Handle(ctx context.Context, q GroupSuggestionsQuery) (*GroupedSuggestions, error) {
	if q.View == "" {
		q.View = ViewByLocation
	}
	if q.View != ViewByLocation && q.View != ViewBySupplier {
		return nil, fmt.Errorf("%w: unknown view %q", domain.ErrInvalidInput, q.View)
	}

	report, err := h.suggestions.Handle(ctx, GetSuggestionsQuery{LocationID: q.LocationID})
	if err != nil {
		return nil, err
	}
	suppliers, err := h.catalog.ListSuppliers(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	out := &GroupedSuggestions{View: q.View}
	if q.View == ViewBySupplier {
		out.BySupplier = grouping.BySupplierThenLocation(report.Suggestions, suppliers)
	} else {
		out.ByLocation = grouping.ByLocationThenSupplier(report.Suggestions, suppliers)
	}
	return out, nil
}

// MinimumOrderGroup is the minimum order status of one location+supplier group
type MinimumOrderGroup struct {
	LocationID uint `json:"location_id"`
	grouping.MinimumOrderStatus
}

// CheckMinimumOrdersQuery represents the query for minimum order statuses
type CheckMinimumOrdersQuery struct {
	LocationID uint
}

// CheckMinimumOrdersHandler handles check minimum orders query
type CheckMinimumOrdersHandler struct {
	orderable  *OrderableSuggestionsHandler
	defaultTax decimal.Decimal
}

// NewCheckMinimumOrdersHandler creates a new check minimum orders handler
func NewCheckMinimumOrdersHandler(orderable *OrderableSuggestionsHandler, defaultTax decimal.Decimal) *CheckMinimumOrdersHandler {
	return &CheckMinimumOrdersHandler{orderable: orderable, defaultTax: defaultTax}
}

// Handle reports, per location and supplier, whether the orderable lines reach
// the supplier's minimum order value
func (h *CheckMinimumOrdersHandler) Handle(ctx context.Context, q CheckMinimumOrdersQuery) ([]MinimumOrderGroup, error) {
	groups, err := h.orderable.Handle(ctx, OrderableSuggestionsQuery{LocationID: q.LocationID})
	if err != nil {
		return nil, err
	}

	var out []MinimumOrderGroup
	for _, lg := range groups {
		for _, sl := range lg.Suppliers {
			status := grouping.CheckMinimumOrder(sl.Lines, sl.Supplier.Record, h.defaultTax)
			out = append(out, MinimumOrderGroup{LocationID: lg.LocationID, MinimumOrderStatus: status})
		}
	}
	return out, nil
}
