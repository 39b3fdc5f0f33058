package grouping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/replenishment/internal/replenishment/domain"
)

var suppliers = []domain.Supplier{
	{ID: 1, Name: "Molino Rossi", ContactEmail: "orders@rossi.example", MinimumOrderValue: decimal.RequireFromString("100")},
	{ID: 2, Name: "Dairy Fresh", ContactEmail: "sales@dairy.example"},
}

func line(loc, product uint, supplier string, price string, qty float64) domain.Suggestion {
	return domain.Suggestion{
		LocationID: loc, ProductID: product, Supplier: supplier,
		UnitPrice: decimal.RequireFromString(price), ReorderQuantity: qty,
	}
}

func sampleSuggestions() []domain.Suggestion {
	return []domain.Suggestion{
		line(2, 1, "molino rossi srl", "1.00", 25),
		line(1, 2, "Dairy Fresh", "0.90", 12),
		line(1, 1, "Molino Rossi", "1.00", 25),
		line(1, 3, "Corner Market", "3.00", 2),
		line(2, 4, "Dairy  fresh", "2.00", 4),
	}
}

func TestByLocationThenSupplier(t *testing.T) {
	got := ByLocationThenSupplier(sampleSuggestions(), suppliers)

	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].LocationID)
	require.Len(t, got[0].Suppliers, 3)
	assert.Equal(t, "corner market", got[0].Suppliers[0].Supplier.Key)
	assert.Nil(t, got[0].Suppliers[0].Supplier.Record)
	assert.Equal(t, "Corner Market", got[0].Suppliers[0].Supplier.Name)
	assert.Equal(t, "Dairy Fresh", got[0].Suppliers[1].Supplier.Name)
	assert.Equal(t, "Molino Rossi", got[0].Suppliers[2].Supplier.Name)

	assert.Equal(t, uint(2), got[1].LocationID)
	require.Len(t, got[1].Suppliers, 2)
	assert.Equal(t, uint(4), got[1].Suppliers[0].Lines[0].ProductID)
	require.NotNil(t, got[1].Suppliers[1].Supplier.Record)
	assert.Equal(t, uint(1), got[1].Suppliers[1].Supplier.Record.ID)
}

func TestBySupplierThenLocation(t *testing.T) {
	got := BySupplierThenLocation(sampleSuggestions(), suppliers)

	require.Len(t, got, 3)
	assert.Equal(t, "corner market", got[0].Supplier.Key)
	assert.Equal(t, "dairy fresh", got[1].Supplier.Key)
	require.Len(t, got[1].Locations, 2)
	assert.Equal(t, uint(1), got[1].Locations[0].LocationID)
	assert.Equal(t, uint(2), got[1].Locations[1].LocationID)
	assert.Equal(t, "molino rossi", got[2].Supplier.Key)
}

func TestGroupingsKeepEveryLine(t *testing.T) {
	s := sampleSuggestions()

	count := 0
	for _, lg := range ByLocationThenSupplier(s, suppliers) {
		for _, sl := range lg.Suppliers {
			count += len(sl.Lines)
		}
	}
	assert.Equal(t, len(s), count)

	count = 0
	for _, sg := range BySupplierThenLocation(s, suppliers) {
		for _, ll := range sg.Locations {
			count += len(ll.Lines)
		}
	}
	assert.Equal(t, len(s), count)
}

func TestCheckMinimumOrder(t *testing.T) {
	lines := []domain.Suggestion{line(1, 1, "Molino Rossi", "1.00", 25), line(1, 5, "Molino Rossi", "10.00", 5)}
	lines[1].TaxRate = decimal.NewNullDecimal(decimal.RequireFromString("0.20"))

	status := CheckMinimumOrder(lines, &suppliers[0], decimal.RequireFromString("0.10"))
	// 25 * 1.00 * 1.10 + 5 * 10.00 * 1.20 = 27.5 + 60
	assert.True(t, status.NetTotal.Equal(decimal.RequireFromString("75")), status.NetTotal.String())
	assert.True(t, status.GrossTotal.Equal(decimal.RequireFromString("87.5")), status.GrossTotal.String())
	assert.False(t, status.Met)
	assert.True(t, status.Shortfall.Equal(decimal.RequireFromString("12.5")), status.Shortfall.String())

	lines = append(lines, line(1, 6, "Molino Rossi", "20.00", 1))
	status = CheckMinimumOrder(lines, &suppliers[0], decimal.RequireFromString("0.10"))
	assert.True(t, status.Met)
	assert.True(t, status.Shortfall.IsZero())
}

func TestCheckMinimumOrderWithoutSupplierRecord(t *testing.T) {
	status := CheckMinimumOrder([]domain.Suggestion{line(1, 3, "Corner Market", "3.00", 2)}, nil, decimal.Zero)
	assert.True(t, status.Met)
	assert.Equal(t, "Corner Market", status.Supplier)
}
