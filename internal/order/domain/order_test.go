package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleLines() []OrderLine {
	return []OrderLine{
		{ProductID: 1, UnitPrice: dec("2.50"), OrderedQty: 4, ReceivedQty: 3, TaxRate: decimal.NewNullDecimal(dec("0.10"))},
		{ProductID: 2, UnitPrice: dec("1.20"), OrderedQty: 10, ReceivedQty: 10},
		{ProductID: 3, UnitPrice: dec("7.00"), OrderedQty: 0, ReceivedQty: 0},
	}
}

func TestTotalsFollowStatus(t *testing.T) {
	defaultTax := dec("0.07")

	sent := &Order{Status: StatusSent, Lines: sampleLines()}
	sent.Recompute(defaultTax, nil)
	// 4*2.50 + 10*1.20 = 22; 10*1.10 + 12*1.07 = 23.84
	assert.True(t, sent.NetTotal.Equal(dec("22")), sent.NetTotal.String())
	assert.True(t, sent.GrossTotal.Equal(dec("23.84")), sent.GrossTotal.String())

	completed := &Order{Status: StatusCompleted, Lines: sampleLines()}
	completed.Recompute(defaultTax, nil)
	// 3*2.50 + 10*1.20 = 19.5; 7.5*1.10 + 12*1.07 = 21.09
	assert.True(t, completed.NetTotal.Equal(dec("19.5")), completed.NetTotal.String())
	assert.True(t, completed.GrossTotal.Equal(dec("21.09")), completed.GrossTotal.String())
}

func TestTotalsMatchLineSum(t *testing.T) {
	defaultTax := dec("0.07")
	for _, status := range []Status{StatusSent, StatusCompleted} {
		o := &Order{Status: status, Lines: sampleLines()}
		o.Recompute(defaultTax, nil)

		want := decimal.Zero
		qty := QuantityFor(status)
		for _, l := range o.Lines {
			want = want.Add(l.UnitPrice.Mul(decimal.NewFromInt(1).Add(LineTaxRate(l, defaultTax, nil))).Mul(decimal.NewFromFloat(qty(l))))
		}
		assert.True(t, o.GrossTotal.Equal(want), "status %s: %s != %s", status, o.GrossTotal, want)
	}
}

func TestLineTaxRatePrefersLiveRate(t *testing.T) {
	l := OrderLine{ProductID: 1, TaxRate: decimal.NewNullDecimal(dec("0.10"))}
	live := func(id uint) (decimal.Decimal, bool) {
		if id == 1 {
			return dec("0.21"), true
		}
		return decimal.Zero, false
	}

	assert.True(t, LineTaxRate(l, dec("0.07"), live).Equal(dec("0.21")))
	assert.True(t, LineTaxRate(l, dec("0.07"), nil).Equal(dec("0.10")))
	assert.True(t, LineTaxRate(OrderLine{ProductID: 9}, dec("0.07"), live).Equal(dec("0.07")))
}

func TestOrderLineHelpers(t *testing.T) {
	o := &Order{Lines: sampleLines()}
	o.Lines[1].Confirmed = true

	assert.Len(t, Orderable(o.Lines), 2)
	unconfirmed := o.Unconfirmed()
	if assert.Len(t, unconfirmed, 1) {
		assert.Equal(t, uint(1), unconfirmed[0].ProductID)
	}
	variance := o.VarianceLines()
	if assert.Len(t, variance, 1) {
		assert.Equal(t, uint(1), variance[0].ProductID)
	}
	assert.True(t, o.Contains(2))
	assert.False(t, o.Contains(3))
}

func TestNewReference(t *testing.T) {
	ref := NewReference(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^ORD-20260302-[0-9a-f]{8}$`), ref)
	assert.NotEqual(t, ref, NewReference(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))
}
