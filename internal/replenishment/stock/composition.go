package stock

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/units"
	"github.com/tair/replenishment/pkg/logger"
)

var contributionsSkipped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "replenishment_contributions_skipped_total",
		Help: "Semi-finished contributions skipped because a reference or unit could not be resolved",
	},
	[]string{"reason"},
)

// SkipReason explains why a composition contribution was not applied
type SkipReason string

const (
	SkipMissingTarget         SkipReason = "missing_target"
	SkipMissingRateIngredient SkipReason = "missing_rate_ingredient"
	SkipMissingYield          SkipReason = "missing_yield"
	SkipUnresolvableUnit      SkipReason = "unresolvable_unit"
)

// Contribution is the raw-material equivalent of one semi-finished reading
// under one rule, expressed in the target product's unit.
type Contribution struct {
	Key          domain.StockKey `json:"key"`
	RuleID       uint            `json:"rule_id"`
	SourceName   string          `json:"source_name"`
	Quantity     float64         `json:"quantity"`
	BaseQuantity float64         `json:"base_quantity"`
}

// Skipped records a rule that could not be applied to a reading, or a direct
// reading (RuleID 0, ProductID set) whose unit could not be converted.
type Skipped struct {
	RuleID     uint       `json:"rule_id"`
	ProductID  uint       `json:"product_id,omitempty"`
	SourceName string     `json:"source_name"`
	LocationID uint       `json:"location_id"`
	Reason     SkipReason `json:"reason"`
}

// CompositionResolver turns semi-finished readings into raw-material equivalents
type CompositionResolver struct {
	products      map[uint]domain.Product
	productByName map[string]domain.Product
	rulesBySource map[string][]domain.CompositionRule
	ingredients   map[uint]domain.RecipeIngredient
}

// NewCompositionResolver indexes the catalog once for a resolution pass.
// Inactive rules are ignored.
func NewCompositionResolver(products []domain.Product, rules []domain.CompositionRule, ingredients []domain.RecipeIngredient) *CompositionResolver {
	r := &CompositionResolver{
		products:      make(map[uint]domain.Product, len(products)),
		productByName: make(map[string]domain.Product, len(products)),
		rulesBySource: make(map[string][]domain.CompositionRule),
		ingredients:   make(map[uint]domain.RecipeIngredient, len(ingredients)),
	}
	for _, p := range products {
		r.products[p.ID] = p
		if n := normalizeName(p.Name); n != "" {
			if _, taken := r.productByName[n]; !taken {
				r.productByName[n] = p
			}
		}
	}
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		n := normalizeName(rule.SourceName)
		r.rulesBySource[n] = append(r.rulesBySource[n], rule)
	}
	for n := range r.rulesBySource {
		rs := r.rulesBySource[n]
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	}
	for _, ing := range ingredients {
		r.ingredients[ing.ID] = ing
	}
	return r
}

// Resolve computes every contribution for the latest semi-finished readings in
// snap. Rules that cannot be applied are skipped and reported; they never
// affect other contributions.
func (r *CompositionResolver) Resolve(ctx context.Context, snap *Snapshot) ([]Contribution, []Skipped) {
	var (
		contributions []Contribution
		skipped       []Skipped
	)

	for _, reading := range snap.NamedReadings() {
		if !r.semiFinished(reading) {
			continue
		}
		name := reading.ProductName
		if name == "" {
			if p, ok := r.products[reading.ProductID]; ok {
				name = p.Name
			}
		}
		for _, rule := range r.rulesBySource[normalizeName(name)] {
			c, reason := r.apply(rule, reading)
			if reason != "" {
				skipped = append(skipped, Skipped{
					RuleID:     rule.ID,
					SourceName: rule.SourceName,
					LocationID: reading.LocationID,
					Reason:     reason,
				})
				contributionsSkipped.WithLabelValues(string(reason)).Inc()
				logger.Warn(ctx).
					Uint("rule_id", rule.ID).
					Str("source", rule.SourceName).
					Uint("location_id", reading.LocationID).
					Str("reason", string(reason)).
					Msg("Composition contribution skipped")
				continue
			}
			contributions = append(contributions, c)
		}
	}

	return contributions, skipped
}

// semiFinished reports whether a reading may feed composition rules: its
// catalog product is flagged semi-finished, or it names no catalog product at
// all (legacy free-text counts).
func (r *CompositionResolver) semiFinished(reading domain.InventoryReading) bool {
	if p, ok := r.products[reading.ProductID]; ok {
		return p.IsSemiFinished
	}
	if p, ok := r.productByName[normalizeName(reading.ProductName)]; ok {
		return p.IsSemiFinished
	}
	return true
}

func (r *CompositionResolver) apply(rule domain.CompositionRule, reading domain.InventoryReading) (Contribution, SkipReason) {
	target, ok := r.products[rule.TargetProductID]
	if !ok {
		return Contribution{}, SkipMissingTarget
	}
	ingredient, ok := r.ingredients[rule.RateIngredientID]
	if !ok || rule.RateIngredientID == 0 {
		return Contribution{}, SkipMissingRateIngredient
	}
	if rule.YieldQuantity <= 0 {
		return Contribution{}, SkipMissingYield
	}

	source := r.productByName[normalizeName(rule.SourceName)]
	sourceUnit := reading.Unit
	if sourceUnit == "" {
		sourceUnit = source.Unit
	}
	yieldUnit := rule.YieldUnit
	if yieldUnit == "" {
		yieldUnit = sourceUnit
	}

	readingBase, ok := units.ToBase(reading.Quantity, sourceUnit, source.Package())
	if !ok {
		return Contribution{}, SkipUnresolvableUnit
	}
	rateBase, ok := units.ToBase(ingredient.Quantity, ingredient.Unit, ingredient.Package())
	if !ok {
		return Contribution{}, SkipUnresolvableUnit
	}
	yieldBase, ok := units.ToBase(rule.YieldQuantity, yieldUnit, source.Package())
	if !ok {
		return Contribution{}, SkipUnresolvableUnit
	}
	if yieldBase <= 0 {
		return Contribution{}, SkipMissingYield
	}

	rawBase := readingBase * (rateBase / yieldBase)
	qty, ok := units.FromBase(rawBase, target.Unit, target.Package())
	if !ok {
		return Contribution{}, SkipUnresolvableUnit
	}

	return Contribution{
		Key:          domain.StockKey{LocationID: reading.LocationID, ProductID: target.ID},
		RuleID:       rule.ID,
		SourceName:   rule.SourceName,
		Quantity:     qty,
		BaseQuantity: rawBase,
	}, ""
}
