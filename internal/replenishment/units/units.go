// Package units converts stock quantities between the measurement units used
// by products and a common grams-equivalent base.
package units

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/replenishment/domain"
)

// Family groups units that can be converted into each other.
//
// Mass and volume share one family: one liter is treated as one kilogram.
// This holds for the water-like ingredients stocked here and must be revisited
// before products with a markedly different density are tracked.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMassVolume
	FamilyPackage
)

// Base is the number of grams-equivalent in one kilogram or liter.
const Base = 1000.0

var factors = map[domain.Unit]float64{
	domain.UnitGram:       1,
	domain.UnitMilliliter: 1,
	domain.UnitKilogram:   Base,
	domain.UnitLiter:      Base,
}

// Parse maps free-text unit labels onto known units
func Parse(raw string) domain.Unit {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "g", "gr", "gram", "grams":
		return domain.UnitGram
	case "kg", "kilo", "kilogram", "kilograms":
		return domain.UnitKilogram
	case "ml", "milliliter", "millilitre":
		return domain.UnitMilliliter
	case "l", "lt", "liter", "litre", "liters", "litres":
		return domain.UnitLiter
	case "package", "packages", "pack", "pkg":
		return domain.UnitPackage
	case "bag", "bags":
		return domain.UnitBag
	}
	return domain.Unit(raw)
}

// FamilyOf reports the conversion family of a unit
func FamilyOf(u domain.Unit) Family {
	if _, ok := factors[u]; ok {
		return FamilyMassVolume
	}
	switch u {
	case domain.UnitPackage, domain.UnitBag:
		return FamilyPackage
	}
	return FamilyUnknown
}

// factor returns the grams-equivalent of one unit
func factor(u domain.Unit, pack domain.PackageSpec) (float64, bool) {
	if f, ok := factors[u]; ok {
		return f, true
	}
	if FamilyOf(u) == FamilyPackage {
		return pack.Weight()
	}
	return 0, false
}

// ToBase converts qty in unit to grams-equivalent. ok is false when the unit
// is unknown or a package unit lacks its breakdown.
func ToBase(qty float64, unit domain.Unit, pack domain.PackageSpec) (float64, bool) {
	f, ok := factor(unit, pack)
	if !ok {
		return 0, false
	}
	return qty * f, true
}

// FromBase converts grams-equivalent back into unit
func FromBase(base float64, unit domain.Unit, pack domain.PackageSpec) (float64, bool) {
	f, ok := factor(unit, pack)
	if !ok {
		return 0, false
	}
	return base / f, true
}

// Convert converts between two units through the base
func Convert(qty float64, from domain.Unit, fromPack domain.PackageSpec, to domain.Unit, toPack domain.PackageSpec) (float64, bool) {
	base, ok := ToBase(qty, from, fromPack)
	if !ok {
		return 0, false
	}
	return FromBase(base, to, toPack)
}

// PricePerBase returns the price of one kilogram-equivalent for a price quoted
// per unit. ok is false when the unit cannot be normalized; callers must treat
// that as absent, never as zero.
func PricePerBase(price decimal.Decimal, unit domain.Unit, pack domain.PackageSpec) (decimal.Decimal, bool) {
	f, ok := factor(unit, pack)
	if !ok || f == 0 {
		return decimal.Zero, false
	}
	return price.Div(decimal.NewFromFloat(f)).Mul(decimal.NewFromFloat(Base)), true
}
