package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/stock"
)

var now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func aggregate(products []domain.Product, rules []domain.CompositionRule, ingredients []domain.RecipeIngredient, readings []domain.InventoryReading) *stock.Aggregation {
	snap := stock.NewSnapshot(readings, products)
	contributions, _ := stock.NewCompositionResolver(products, rules, ingredients).Resolve(context.Background(), snap)
	return stock.Aggregate(snap, contributions)
}

func reading(loc, product uint, qty float64) domain.InventoryReading {
	return domain.InventoryReading{LocationID: loc, ProductID: product, Quantity: qty, Unit: domain.UnitKilogram, CountedAt: now}
}

func TestSimpleReorder(t *testing.T) {
	products := []domain.Product{{
		ID: 1, Name: "Sugar", Unit: domain.UnitKilogram, Active: true, Supplier: "Sweet Co",
		CriticalThreshold: ptr(5.0), ReorderQuantity: ptr(10.0),
		UnitPrice: decimal.RequireFromString("2.50"),
	}}

	got := New(products).Evaluate(aggregate(products, nil, nil, []domain.InventoryReading{reading(1, 1, 3)}))
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].LocationID)
	assert.Equal(t, 10.0, got[0].ReorderQuantity)
	assert.Equal(t, 3.0, got[0].EffectiveQuantity)
	assert.Equal(t, "Sweet Co", got[0].Supplier)
	assert.Equal(t, domain.PhaseDirect, got[0].Phase)

	got = New(products).Evaluate(aggregate(products, nil, nil, []domain.InventoryReading{reading(1, 1, 6)}))
	assert.Empty(t, got)
}

func TestSemiFinishedRollup(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Name: "Flour", Unit: domain.UnitKilogram, Active: true, CriticalThreshold: ptr(3.0), ReorderQuantity: ptr(25.0)},
		{ID: 2, Name: "Dough", Unit: domain.UnitKilogram, IsSemiFinished: true, Active: true},
	}
	rules := []domain.CompositionRule{
		{ID: 1, SourceName: "Dough", TargetProductID: 1, RateIngredientID: 1, YieldQuantity: 1, YieldUnit: domain.UnitKilogram, Active: true},
	}
	ingredients := []domain.RecipeIngredient{{ID: 1, ProductID: 1, Quantity: 0.6, Unit: domain.UnitKilogram}}
	readings := []domain.InventoryReading{
		{LocationID: 1, ProductName: "Dough", Quantity: 4, Unit: domain.UnitKilogram, CountedAt: now},
	}

	got := New(products).Evaluate(aggregate(products, rules, ingredients, readings))
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ProductID)
	assert.Equal(t, 25.0, got[0].ReorderQuantity)
	assert.InDelta(t, 2.4, got[0].EffectiveQuantity, 1e-9)
	assert.Equal(t, domain.PhaseDerived, got[0].Phase)
}

func TestThresholdMonotonicity(t *testing.T) {
	products := []domain.Product{{
		ID: 1, Name: "Milk", Unit: domain.UnitLiter, Active: true,
		LocationThresholds:        map[uint]float64{1: 4},
		LocationReorderQuantities: map[uint]float64{1: 12},
	}}

	for _, qty := range []float64{0, 1, 3.99, 4, 4.01, 8, 100} {
		got := New(products).Evaluate(aggregate(products, nil, nil, []domain.InventoryReading{reading(1, 1, qty)}))
		if qty <= 4 {
			assert.Len(t, got, 1, "qty %v", qty)
		} else {
			assert.Empty(t, got, "qty %v", qty)
		}
	}
}

func TestNoDoubleCountingAcrossPasses(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Name: "Flour", Unit: domain.UnitKilogram, Active: true, CriticalThreshold: ptr(10.0), ReorderQuantity: ptr(25.0)},
		{ID: 2, Name: "Dough", Unit: domain.UnitKilogram, IsSemiFinished: true, Active: true},
	}
	rules := []domain.CompositionRule{
		{ID: 1, SourceName: "Dough", TargetProductID: 1, RateIngredientID: 1, YieldQuantity: 1, Active: true},
	}
	ingredients := []domain.RecipeIngredient{{ID: 1, ProductID: 1, Quantity: 0.5, Unit: domain.UnitKilogram}}
	readings := []domain.InventoryReading{
		reading(1, 1, 2),
		{LocationID: 1, ProductName: "Dough", Quantity: 4, Unit: domain.UnitKilogram, CountedAt: now},
	}

	got := New(products).Evaluate(aggregate(products, rules, ingredients, readings))
	require.Len(t, got, 1)
	assert.Equal(t, domain.PhaseDirect, got[0].Phase)
	assert.InDelta(t, 4.0, got[0].EffectiveQuantity, 1e-9)
}

func TestSkipsIneligibleProducts(t *testing.T) {
	base := domain.Product{Unit: domain.UnitKilogram, Active: true, CriticalThreshold: ptr(5.0), ReorderQuantity: ptr(10.0)}

	inactive := base
	inactive.ID, inactive.Active = 1, false

	unassigned := base
	unassigned.ID, unassigned.AssignedLocations = 2, []uint{2}

	notInUseHere := base
	notInUseHere.ID, notInUseHere.InUse, notInUseHere.LocationInUse = 3, ptr(true), map[uint]bool{1: false}

	inUseHereOnly := base
	inUseHereOnly.ID, inUseHereOnly.InUse, inUseHereOnly.LocationInUse = 4, ptr(false), map[uint]bool{1: true}

	noReorder := base
	noReorder.ID, noReorder.ReorderQuantity = 5, nil

	fallbackMinimum := base
	fallbackMinimum.ID, fallbackMinimum.CriticalThreshold, fallbackMinimum.MinimumQuantity = 6, nil, ptr(2.0)

	products := []domain.Product{inactive, unassigned, notInUseHere, inUseHereOnly, noReorder, fallbackMinimum}
	readings := []domain.InventoryReading{
		reading(1, 1, 1), reading(1, 2, 1), reading(1, 3, 1), reading(1, 4, 1), reading(1, 5, 1), reading(1, 6, 1),
		reading(1, 99, 0),
	}

	got := New(products).Evaluate(aggregate(products, nil, nil, readings))

	var ids []uint
	for _, s := range got {
		ids = append(ids, s.ProductID)
	}
	assert.Equal(t, []uint{4, 6}, ids)
}

func TestReadingInSmallerUnitTriggersReorder(t *testing.T) {
	products := []domain.Product{{
		ID: 1, Name: "Flour", Unit: domain.UnitKilogram, Active: true,
		CriticalThreshold: ptr(5.0), ReorderQuantity: ptr(10.0),
	}}
	grams := domain.InventoryReading{LocationID: 1, ProductID: 1, Quantity: 3000, Unit: domain.UnitGram, CountedAt: now}

	got := New(products).Evaluate(aggregate(products, nil, nil, []domain.InventoryReading{grams}))
	require.Len(t, got, 1)
	assert.InDelta(t, 3.0, got[0].EffectiveQuantity, 1e-9)
	assert.Equal(t, 10.0, got[0].ReorderQuantity)

	grams.Quantity = 6000
	assert.Empty(t, New(products).Evaluate(aggregate(products, nil, nil, []domain.InventoryReading{grams})))
}
