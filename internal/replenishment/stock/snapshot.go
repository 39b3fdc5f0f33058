package stock

import (
	"sort"
	"strings"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/units"
)

// nameKey indexes name-keyed readings per location
type nameKey struct {
	LocationID uint
	Name       string
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Latest returns the most recent reading of a product at a location. Readings
// carrying a product ID are matched by ID; legacy readings that only carry a
// name are matched by case-insensitive name. Ties keep the reading seen last.
func Latest(readings []domain.InventoryReading, locationID, productID uint, productName string) (domain.InventoryReading, bool) {
	var (
		best  domain.InventoryReading
		found bool
	)
	for _, r := range readings {
		if r.LocationID != locationID || !matchesProduct(r, productID, productName) {
			continue
		}
		if !found || !r.CountedAt.Before(best.CountedAt) {
			best = r
			found = true
		}
	}
	return best, found
}

func matchesProduct(r domain.InventoryReading, productID uint, productName string) bool {
	if r.ProductID != 0 && productID != 0 {
		return r.ProductID == productID
	}
	name := normalizeName(productName)
	return name != "" && normalizeName(r.ProductName) == name
}

// Snapshot holds the authoritative reading per (location, product), built once
// per evaluation cycle.
type Snapshot struct {
	byProduct map[domain.StockKey]domain.InventoryReading
	byName    map[nameKey]domain.InventoryReading
	skipped   []Skipped
}

// NewSnapshot keeps the latest reading per key. Name-only readings are
// attributed to the catalog product of the same name when one exists, and
// every reading is also indexed by name for composition lookups.
//
// Keyed readings are expressed in the product's own unit. A latest reading
// whose unit cannot be converted is dropped from the keyed view and reported
// through Skipped; it never contributes its raw number.
func NewSnapshot(readings []domain.InventoryReading, products []domain.Product) *Snapshot {
	byID := make(map[uint]domain.Product, len(products))
	byName := make(map[string]uint, len(products))
	for _, p := range products {
		byID[p.ID] = p
		if n := normalizeName(p.Name); n != "" {
			if _, taken := byName[n]; !taken {
				byName[n] = p.ID
			}
		}
	}

	s := &Snapshot{
		byProduct: make(map[domain.StockKey]domain.InventoryReading),
		byName:    make(map[nameKey]domain.InventoryReading),
	}

	for _, r := range readings {
		productID := r.ProductID
		name := normalizeName(r.ProductName)
		if productID == 0 && name != "" {
			productID = byName[name]
		}
		if name == "" && productID != 0 {
			name = normalizeName(byID[productID].Name)
		}

		if productID != 0 {
			key := domain.StockKey{LocationID: r.LocationID, ProductID: productID}
			if cur, ok := s.byProduct[key]; !ok || !r.CountedAt.Before(cur.CountedAt) {
				r.ProductID = productID
				s.byProduct[key] = r
			}
		}
		if name != "" {
			key := nameKey{LocationID: r.LocationID, Name: name}
			if cur, ok := s.byName[key]; !ok || !r.CountedAt.Before(cur.CountedAt) {
				s.byName[key] = r
			}
		}
	}

	for _, key := range s.Keys() {
		p, ok := byID[key.ProductID]
		if !ok {
			continue
		}
		r := s.byProduct[key]
		qty, ok := toProductUnit(r, p)
		if !ok {
			delete(s.byProduct, key)
			s.skipped = append(s.skipped, Skipped{
				ProductID:  key.ProductID,
				SourceName: p.Name,
				LocationID: key.LocationID,
				Reason:     SkipUnresolvableUnit,
			})
			continue
		}
		r.Quantity = qty
		r.Unit = p.Unit
		s.byProduct[key] = r
	}

	return s
}

// toProductUnit converts a reading into the unit its product is counted in.
// Readings without a unit are taken as already in that unit.
func toProductUnit(r domain.InventoryReading, p domain.Product) (float64, bool) {
	if r.Unit == "" || r.Unit == p.Unit {
		return r.Quantity, true
	}
	pack := p.Package()
	return units.Convert(r.Quantity, r.Unit, pack, p.Unit, pack)
}

// Skipped returns the keyed readings left out because their unit could not be
// converted into the product's unit.
func (s *Snapshot) Skipped() []Skipped {
	return s.skipped
}

// Reading returns the latest reading for key
func (s *Snapshot) Reading(key domain.StockKey) (domain.InventoryReading, bool) {
	r, ok := s.byProduct[key]
	return r, ok
}

// ReadingByName returns the latest reading for a product name at a location
func (s *Snapshot) ReadingByName(locationID uint, name string) (domain.InventoryReading, bool) {
	r, ok := s.byName[nameKey{LocationID: locationID, Name: normalizeName(name)}]
	return r, ok
}

// Keys returns every (location, product) pair with a reading, ordered
func (s *Snapshot) Keys() []domain.StockKey {
	keys := make([]domain.StockKey, 0, len(s.byProduct))
	for k := range s.byProduct {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// NamedReadings returns the latest reading per (location, name), ordered by
// location and name.
func (s *Snapshot) NamedReadings() []domain.InventoryReading {
	keys := make([]nameKey, 0, len(s.byName))
	for k := range s.byName {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LocationID != keys[j].LocationID {
			return keys[i].LocationID < keys[j].LocationID
		}
		return keys[i].Name < keys[j].Name
	})

	out := make([]domain.InventoryReading, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.byName[k])
	}
	return out
}

func sortKeys(keys []domain.StockKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LocationID != keys[j].LocationID {
			return keys[i].LocationID < keys[j].LocationID
		}
		return keys[i].ProductID < keys[j].ProductID
	})
}
