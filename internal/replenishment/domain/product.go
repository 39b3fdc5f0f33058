package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit is a measurement unit a product is counted and ordered in
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPackage    Unit = "package"
	UnitBag        Unit = "bag"
)

// PackageSpec describes how one package of a count-based product breaks down
// into grams-equivalent.
type PackageSpec struct {
	UnitsPerPackage float64
	WeightPerUnit   float64
}

// Weight returns the grams-equivalent of one package
func (p PackageSpec) Weight() (float64, bool) {
	if p.UnitsPerPackage <= 0 || p.WeightPerUnit <= 0 {
		return 0, false
	}
	return p.UnitsPerPackage * p.WeightPerUnit, true
}

// Product is a raw material or a recipe-derived item
type Product struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	Name           string `json:"name" gorm:"not null;index"`
	Unit           Unit   `json:"unit" gorm:"not null"`
	IsSemiFinished bool   `json:"is_semi_finished" gorm:"default:false"`

	UnitsPerPackage float64 `json:"units_per_package"`
	WeightPerUnit   float64 `json:"weight_per_unit"`

	CriticalThreshold *float64 `json:"critical_threshold"`
	MinimumQuantity   *float64 `json:"minimum_quantity"`
	ReorderQuantity   *float64 `json:"reorder_quantity"`

	LocationThresholds        map[uint]float64 `json:"location_thresholds" gorm:"serializer:json"`
	LocationReorderQuantities map[uint]float64 `json:"location_reorder_quantities" gorm:"serializer:json"`
	AssignedLocations         []uint           `json:"assigned_locations" gorm:"serializer:json"`
	InUse                     *bool            `json:"in_use"`
	LocationInUse             map[uint]bool    `json:"location_in_use" gorm:"serializer:json"`

	Supplier  string              `json:"supplier" gorm:"index"`
	UnitPrice decimal.Decimal     `json:"unit_price" gorm:"type:numeric(12,4);not null;default:0"`
	TaxRate   decimal.NullDecimal `json:"tax_rate" gorm:"type:numeric(6,4)"`
	Active    bool                `json:"active" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// Package returns the package breakdown of the product
func (p *Product) Package() PackageSpec {
	return PackageSpec{UnitsPerPackage: p.UnitsPerPackage, WeightPerUnit: p.WeightPerUnit}
}

// AssignedTo reports whether the product is stocked at the location.
// An empty assignment set means every location.
func (p *Product) AssignedTo(locationID uint) bool {
	if len(p.AssignedLocations) == 0 {
		return true
	}
	for _, id := range p.AssignedLocations {
		if id == locationID {
			return true
		}
	}
	return false
}

// InUseAt resolves the in-use flag; the location flag wins over the global one
// and an unset global flag means in use.
func (p *Product) InUseAt(locationID uint) bool {
	if v, ok := p.LocationInUse[locationID]; ok {
		return v
	}
	if p.InUse != nil {
		return *p.InUse
	}
	return true
}

// CriticalThresholdAt resolves the threshold: location override, global
// threshold, global minimum quantity, then 0.
func (p *Product) CriticalThresholdAt(locationID uint) float64 {
	if v, ok := p.LocationThresholds[locationID]; ok {
		return v
	}
	if p.CriticalThreshold != nil {
		return *p.CriticalThreshold
	}
	if p.MinimumQuantity != nil {
		return *p.MinimumQuantity
	}
	return 0
}

// ReorderQuantityAt resolves the reorder quantity: location override, global, then 0.
func (p *Product) ReorderQuantityAt(locationID uint) float64 {
	if v, ok := p.LocationReorderQuantities[locationID]; ok {
		return v
	}
	if p.ReorderQuantity != nil {
		return *p.ReorderQuantity
	}
	return 0
}
