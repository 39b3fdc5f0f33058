package domain

import "github.com/shopspring/decimal"

// StockKey identifies one product at one location
type StockKey struct {
	LocationID uint `json:"location_id"`
	ProductID  uint `json:"product_id"`
}

// Phase records which evaluator pass produced a suggestion
type Phase string

const (
	// PhaseDirect covers pairs with a direct stock reading.
	PhaseDirect Phase = "direct"
	// PhaseDerived covers pairs known only through semi-finished contributions.
	PhaseDerived Phase = "derived"
)

// Suggestion is an ephemeral recommendation to reorder a product at a location
type Suggestion struct {
	LocationID        uint                `json:"location_id"`
	ProductID         uint                `json:"product_id"`
	ProductName       string              `json:"product_name"`
	Unit              Unit                `json:"unit"`
	Supplier          string              `json:"supplier"`
	EffectiveQuantity float64             `json:"effective_quantity"`
	CriticalThreshold float64             `json:"critical_threshold"`
	ReorderQuantity   float64             `json:"reorder_quantity"`
	UnitPrice         decimal.Decimal     `json:"unit_price"`
	TaxRate           decimal.NullDecimal `json:"tax_rate"`
	Phase             Phase               `json:"phase"`
}

// Key returns the (location, product) pair of the suggestion
func (s Suggestion) Key() StockKey {
	return StockKey{LocationID: s.LocationID, ProductID: s.ProductID}
}

// TaxRateOr returns the suggestion's tax rate or fallback when absent
func (s Suggestion) TaxRateOr(fallback decimal.Decimal) decimal.Decimal {
	if s.TaxRate.Valid {
		return s.TaxRate.Decimal
	}
	return fallback
}
