package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func ptr[T any](v T) *T { return &v }

func TestProduct_CriticalThresholdFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    float64
	}{
		{"location override", Product{LocationThresholds: map[uint]float64{1: 2}, CriticalThreshold: ptr(5.0)}, 2},
		{"global threshold", Product{CriticalThreshold: ptr(5.0), MinimumQuantity: ptr(7.0)}, 5},
		{"minimum quantity", Product{MinimumQuantity: ptr(7.0)}, 7},
		{"nothing set", Product{}, 0},
		{"override for other location", Product{LocationThresholds: map[uint]float64{9: 2}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.CriticalThresholdAt(1))
		})
	}
}

func TestProduct_ReorderQuantityFallbacks(t *testing.T) {
	p := Product{ReorderQuantity: ptr(10.0), LocationReorderQuantities: map[uint]float64{2: 4}}
	assert.Equal(t, 4.0, p.ReorderQuantityAt(2))
	assert.Equal(t, 10.0, p.ReorderQuantityAt(1))
	assert.Equal(t, 0.0, (&Product{}).ReorderQuantityAt(1))
}

func TestProduct_InUseAt(t *testing.T) {
	p := Product{InUse: ptr(false), LocationInUse: map[uint]bool{3: true}}
	assert.True(t, p.InUseAt(3))
	assert.False(t, p.InUseAt(1))
	assert.True(t, (&Product{}).InUseAt(1))
}

func TestProduct_AssignedTo(t *testing.T) {
	assert.True(t, (&Product{}).AssignedTo(5))
	p := Product{AssignedLocations: []uint{1, 2}}
	assert.True(t, p.AssignedTo(2))
	assert.False(t, p.AssignedTo(3))
}

func TestMatchSupplier(t *testing.T) {
	suppliers := []Supplier{
		{ID: 1, Name: "Mill & Sons GmbH"},
		{ID: 2, Name: "Mill"},
		{ID: 3, Name: "Dairy  Farm"},
	}

	s, ok := MatchSupplier(suppliers, "mill")
	assert.True(t, ok)
	assert.Equal(t, uint(2), s.ID, "exact key wins over substring")

	s, ok = MatchSupplier(suppliers, "Mill & Sons")
	assert.True(t, ok)
	assert.Equal(t, uint(1), s.ID)

	s, ok = MatchSupplier(suppliers, "the dairy farm co")
	assert.True(t, ok)
	assert.Equal(t, uint(3), s.ID, "record name contained in free text")

	_, ok = MatchSupplier(suppliers, "  ")
	assert.False(t, ok)
	_, ok = MatchSupplier(suppliers, "Butcher")
	assert.False(t, ok)
}

func TestSupplierNamesMatch(t *testing.T) {
	assert.True(t, SupplierNamesMatch("ACME", "acme foods"))
	assert.True(t, SupplierNamesMatch("acme foods", "ACME"))
	assert.False(t, SupplierNamesMatch("", "acme"))
	assert.False(t, SupplierNamesMatch("acme", "globex"))
}

func TestActiveFlagsHaveNoColumnDefault(t *testing.T) {
	models := []interface{}{&Product{}, &CompositionRule{}, &Supplier{}, &Location{}}
	for _, m := range models {
		s, err := schema.Parse(m, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)

		field := s.LookUpField("Active")
		require.NotNil(t, field, s.Name)
		// A column default would turn an explicit false into true on create.
		assert.False(t, field.HasDefaultValue, s.Name)
		assert.True(t, field.NotNull, s.Name)
	}
}
