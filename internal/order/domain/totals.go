package domain

import "github.com/shopspring/decimal"

// TaxLookup returns the live tax rate of a product; ok is false when the
// product is gone or carries no explicit rate.
type TaxLookup func(productID uint) (decimal.Decimal, bool)

// Quantity selects which quantity of a line is priced
type Quantity func(OrderLine) float64

// OrderedQty prices what was ordered
func OrderedQty(l OrderLine) float64 { return l.OrderedQty }

// ReceivedQty prices what was delivered
func ReceivedQty(l OrderLine) float64 { return l.ReceivedQty }

// QuantityFor returns the quantity that drives totals in a status
func QuantityFor(s Status) Quantity {
	if s == StatusCompleted {
		return ReceivedQty
	}
	return OrderedQty
}

// LineTaxRate resolves a line's rate: the live product rate when a lookup is
// given and knows the product, then the snapshotted rate, then defaultTax.
func LineTaxRate(l OrderLine, defaultTax decimal.Decimal, live TaxLookup) decimal.Decimal {
	if live != nil {
		if rate, ok := live(l.ProductID); ok {
			return rate
		}
	}
	if l.TaxRate.Valid {
		return l.TaxRate.Decimal
	}
	return defaultTax
}

// Totals computes net = sum(price * qty) and gross = sum(price * (1+tax) * qty)
func Totals(lines []OrderLine, qty Quantity, defaultTax decimal.Decimal, live TaxLookup) (net, gross decimal.Decimal) {
	net, gross = decimal.Zero, decimal.Zero
	one := decimal.NewFromInt(1)
	for _, l := range lines {
		lineNet := l.UnitPrice.Mul(decimal.NewFromFloat(qty(l)))
		net = net.Add(lineNet)
		gross = gross.Add(lineNet.Mul(one.Add(LineTaxRate(l, defaultTax, live))))
	}
	return net, gross
}

// Recompute refreshes the order totals from its lines for its current status
func (o *Order) Recompute(defaultTax decimal.Decimal, live TaxLookup) {
	o.NetTotal, o.GrossTotal = Totals(o.Lines, QuantityFor(o.Status), defaultTax, live)
}
