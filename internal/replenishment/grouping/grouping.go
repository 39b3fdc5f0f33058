// Package grouping provides read-only projections of a suggestion set.
// Groupings never filter: every suggestion appears in exactly one leaf.
package grouping

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/replenishment/domain"
)

// SupplierRef identifies a supplier group. Record is nil when the product's
// free-text supplier matched no supplier record.
type SupplierRef struct {
	Key    string           `json:"key"`
	Name   string           `json:"name"`
	Record *domain.Supplier `json:"record,omitempty"`
}

// SupplierLines is the leaf of the location-first view
type SupplierLines struct {
	Supplier SupplierRef         `json:"supplier"`
	Lines    []domain.Suggestion `json:"lines"`
}

// LocationGroup holds one location's suggestions split by supplier
type LocationGroup struct {
	LocationID uint            `json:"location_id"`
	Suppliers  []SupplierLines `json:"suppliers"`
}

// LocationLines is the leaf of the supplier-first view
type LocationLines struct {
	LocationID uint                `json:"location_id"`
	Lines      []domain.Suggestion `json:"lines"`
}

// SupplierGroup holds one supplier's suggestions split by location
type SupplierGroup struct {
	Supplier  SupplierRef     `json:"supplier"`
	Locations []LocationLines `json:"locations"`
}

// Resolve maps a free-text supplier name onto its group reference
func Resolve(suppliers []domain.Supplier, name string) SupplierRef {
	if rec, ok := domain.MatchSupplier(suppliers, name); ok {
		return SupplierRef{Key: domain.NormalizeSupplierKey(rec.Name), Name: rec.Name, Record: rec}
	}
	return SupplierRef{Key: domain.NormalizeSupplierKey(name), Name: name}
}

// ByLocationThenSupplier groups suggestions by location, then supplier.
// Locations are ordered by ID, suppliers by key; lines keep input order.
func ByLocationThenSupplier(s []domain.Suggestion, suppliers []domain.Supplier) []LocationGroup {
	type bucket struct {
		ref   SupplierRef
		lines []domain.Suggestion
	}
	byLoc := make(map[uint]map[string]*bucket)
	refs := make(map[string]SupplierRef)

	for _, line := range s {
		ref, ok := refs[line.Supplier]
		if !ok {
			ref = Resolve(suppliers, line.Supplier)
			refs[line.Supplier] = ref
		}
		groups, ok := byLoc[line.LocationID]
		if !ok {
			groups = make(map[string]*bucket)
			byLoc[line.LocationID] = groups
		}
		b, ok := groups[ref.Key]
		if !ok {
			b = &bucket{ref: ref}
			groups[ref.Key] = b
		}
		b.lines = append(b.lines, line)
	}

	out := make([]LocationGroup, 0, len(byLoc))
	for _, loc := range sortedUints(byLoc) {
		groups := byLoc[loc]
		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		g := LocationGroup{LocationID: loc}
		for _, k := range keys {
			g.Suppliers = append(g.Suppliers, SupplierLines{Supplier: groups[k].ref, Lines: groups[k].lines})
		}
		out = append(out, g)
	}
	return out
}

// BySupplierThenLocation groups suggestions by supplier, then location
func BySupplierThenLocation(s []domain.Suggestion, suppliers []domain.Supplier) []SupplierGroup {
	byLocation := ByLocationThenSupplier(s, suppliers)

	index := make(map[string]int)
	var out []SupplierGroup
	for _, lg := range byLocation {
		for _, sl := range lg.Suppliers {
			i, ok := index[sl.Supplier.Key]
			if !ok {
				i = len(out)
				index[sl.Supplier.Key] = i
				out = append(out, SupplierGroup{Supplier: sl.Supplier})
			}
			out[i].Locations = append(out[i].Locations, LocationLines{LocationID: lg.LocationID, Lines: sl.Lines})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Supplier.Key < out[j].Supplier.Key })
	return out
}

// MinimumOrderStatus compares a group's tax-inclusive total against the
// supplier's minimum order value. It is informational only.
type MinimumOrderStatus struct {
	Supplier          string          `json:"supplier"`
	NetTotal          decimal.Decimal `json:"net_total"`
	GrossTotal        decimal.Decimal `json:"gross_total"`
	MinimumOrderValue decimal.Decimal `json:"minimum_order_value"`
	Met               bool            `json:"met"`
	Shortfall         decimal.Decimal `json:"shortfall"`
}

// CheckMinimumOrder totals the lines at their reorder quantity. Lines without
// a tax rate use defaultTax. A missing supplier record has no minimum.
func CheckMinimumOrder(lines []domain.Suggestion, supplier *domain.Supplier, defaultTax decimal.Decimal) MinimumOrderStatus {
	status := MinimumOrderStatus{NetTotal: decimal.Zero, GrossTotal: decimal.Zero, MinimumOrderValue: decimal.Zero, Shortfall: decimal.Zero}
	for _, l := range lines {
		qty := decimal.NewFromFloat(l.ReorderQuantity)
		net := l.UnitPrice.Mul(qty)
		status.NetTotal = status.NetTotal.Add(net)
		status.GrossTotal = status.GrossTotal.Add(net.Mul(decimal.NewFromInt(1).Add(l.TaxRateOr(defaultTax))))
		if status.Supplier == "" {
			status.Supplier = l.Supplier
		}
	}

	if supplier != nil {
		status.Supplier = supplier.Name
		status.MinimumOrderValue = supplier.MinimumOrderValue
	}
	status.Met = status.GrossTotal.GreaterThanOrEqual(status.MinimumOrderValue)
	if !status.Met {
		status.Shortfall = status.MinimumOrderValue.Sub(status.GrossTotal)
	}
	return status
}

func sortedUints[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
