package stock

import "github.com/tair/replenishment/internal/replenishment/domain"

// Aggregation is the effective quantity per (location, product): the direct
// reading plus every semi-finished contribution targeting the same pair.
type Aggregation struct {
	direct    map[domain.StockKey]float64
	effective map[domain.StockKey]float64
}

// Aggregate merges direct readings with contributions
func Aggregate(snap *Snapshot, contributions []Contribution) *Aggregation {
	a := &Aggregation{
		direct:    make(map[domain.StockKey]float64, len(snap.byProduct)),
		effective: make(map[domain.StockKey]float64, len(snap.byProduct)),
	}
	for key, r := range snap.byProduct {
		a.direct[key] = r.Quantity
		a.effective[key] = r.Quantity
	}
	for _, c := range contributions {
		a.effective[c.Key] += c.Quantity
	}
	return a
}

// Effective returns the effective quantity of key
func (a *Aggregation) Effective(key domain.StockKey) (float64, bool) {
	v, ok := a.effective[key]
	return v, ok
}

// Direct returns the directly counted quantity of key
func (a *Aggregation) Direct(key domain.StockKey) (float64, bool) {
	v, ok := a.direct[key]
	return v, ok
}

// HasDirect reports whether key has a direct reading
func (a *Aggregation) HasDirect(key domain.StockKey) bool {
	_, ok := a.direct[key]
	return ok
}

// DirectKeys returns the pairs with a direct reading, ordered
func (a *Aggregation) DirectKeys() []domain.StockKey {
	keys := make([]domain.StockKey, 0, len(a.direct))
	for k := range a.direct {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// DerivedOnlyKeys returns the pairs known only through contributions, ordered.
// It is disjoint from DirectKeys.
func (a *Aggregation) DerivedOnlyKeys() []domain.StockKey {
	var keys []domain.StockKey
	for k := range a.effective {
		if _, ok := a.direct[k]; !ok {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

// Len returns the number of pairs with a known effective quantity
func (a *Aggregation) Len() int {
	return len(a.effective)
}
