package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/stock"
)

var suggestionsEmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "replenishment_suggestions_emitted",
		Help: "Number of reorder suggestions emitted per evaluation pass",
	},
	[]string{"phase"},
)

// Evaluator decides which (location, product) pairs need reordering
type Evaluator struct {
	products map[uint]domain.Product
}

// New creates an evaluator over the product catalog
func New(products []domain.Product) *Evaluator {
	byID := make(map[uint]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Evaluator{products: byID}
}

// Evaluate runs two passes over disjoint key sets: pairs with a direct
// reading, then pairs known only through semi-finished contributions.
func (e *Evaluator) Evaluate(agg *stock.Aggregation) []domain.Suggestion {
	var out []domain.Suggestion
	out = e.pass(agg, agg.DirectKeys(), domain.PhaseDirect, out)
	out = e.pass(agg, agg.DerivedOnlyKeys(), domain.PhaseDerived, out)
	return out
}

func (e *Evaluator) pass(agg *stock.Aggregation, keys []domain.StockKey, phase domain.Phase, out []domain.Suggestion) []domain.Suggestion {
	emitted := 0
	for _, key := range keys {
		qty, ok := agg.Effective(key)
		if !ok {
			continue
		}
		s, ok := e.check(key, qty, phase)
		if !ok {
			continue
		}
		out = append(out, s)
		emitted++
	}
	suggestionsEmitted.WithLabelValues(string(phase)).Add(float64(emitted))
	return out
}

// check applies the reorder rule to one pair
func (e *Evaluator) check(key domain.StockKey, effective float64, phase domain.Phase) (domain.Suggestion, bool) {
	p, ok := e.products[key.ProductID]
	if !ok || !p.Active || !p.AssignedTo(key.LocationID) || !p.InUseAt(key.LocationID) {
		return domain.Suggestion{}, false
	}

	threshold := p.CriticalThresholdAt(key.LocationID)
	reorder := p.ReorderQuantityAt(key.LocationID)
	if effective > threshold || reorder <= 0 {
		return domain.Suggestion{}, false
	}

	return domain.Suggestion{
		LocationID:        key.LocationID,
		ProductID:         p.ID,
		ProductName:       p.Name,
		Unit:              p.Unit,
		Supplier:          p.Supplier,
		EffectiveQuantity: effective,
		CriticalThreshold: threshold,
		ReorderQuantity:   reorder,
		UnitPrice:         p.UnitPrice,
		TaxRate:           p.TaxRate,
		Phase:             phase,
	}, true
}
