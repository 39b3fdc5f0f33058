package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/units"
)

// PricedProduct is a product with its price per kilogram-equivalent
type PricedProduct struct {
	Product      domain.Product  `json:"product"`
	PricePerBase decimal.Decimal `json:"price_per_base"`
}

// RankByBasePrice orders products by normalized price, cheapest first.
// Products whose unit cannot be normalized are left out.
func RankByBasePrice(products []domain.Product) []PricedProduct {
	var out []PricedProduct
	for _, p := range products {
		price, ok := units.PricePerBase(p.UnitPrice, p.Unit, p.Package())
		if !ok {
			continue
		}
		out = append(out, PricedProduct{Product: p, PricePerBase: price})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PricePerBase.LessThan(out[j].PricePerBase) })
	return out
}

// CheapestPerBaseUnit returns the product with the lowest normalized price
func CheapestPerBaseUnit(products []domain.Product) (PricedProduct, bool) {
	ranked := RankByBasePrice(products)
	if len(ranked) == 0 {
		return PricedProduct{}, false
	}
	return ranked[0], true
}

// CompareOffersQuery represents the query to compare interchangeable products
type CompareOffersQuery struct {
	ProductIDs []uint
}

// CompareOffersHandler handles compare offers query
type CompareOffersHandler struct {
	catalog domain.CatalogRepository
}

// NewCompareOffersHandler creates a new compare offers handler
func NewCompareOffersHandler(catalog domain.CatalogRepository) *CompareOffersHandler {
	return &CompareOffersHandler{catalog: catalog}
}

// Handle ranks the requested active products by normalized price
func (h *CompareOffersHandler) Handle(ctx context.Context, q CompareOffersQuery) ([]PricedProduct, error) {
	if len(q.ProductIDs) < 2 {
		return nil, fmt.Errorf("%w: at least two product ids are required", domain.ErrInvalidInput)
	}

	products, err := h.catalog.ListProducts(ctx, domain.ProductFilter{IDs: q.ProductIDs, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return RankByBasePrice(products), nil
}
