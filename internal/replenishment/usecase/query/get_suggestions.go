package query

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tair/replenishment/internal/replenishment/cache"
	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/evaluator"
	"github.com/tair/replenishment/internal/replenishment/stock"
	"github.com/tair/replenishment/pkg/logger"
)

var evaluationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "replenishment_evaluation_duration_seconds",
		Help:    "Time spent loading data and evaluating suggestions",
		Buckets: prometheus.DefBuckets,
	},
)

// Cache is the optional store for evaluated reports
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
}

// GetSuggestionsQuery represents the query to evaluate reorder suggestions
type GetSuggestionsQuery struct {
	// LocationID limits the evaluation to one location; 0 means all.
	LocationID uint
	// Supplier keeps suggestions whose supplier matches by name.
	Supplier string
}

// Report is the outcome of one evaluation cycle
type Report struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Skipped     []stock.Skipped     `json:"skipped"`
	// EffectiveKeys counts the (location, product) pairs with a known quantity.
	EffectiveKeys int       `json:"effective_keys"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
	DurationMS    float64   `json:"duration_ms"`
}

// GetSuggestionsHandler handles get suggestions query
type GetSuggestionsHandler struct {
	catalog  domain.CatalogRepository
	readings domain.ReadingRepository
	cache    Cache
	now      func() time.Time
}

// NewGetSuggestionsHandler creates a new get suggestions handler. reportCache may be nil.
func NewGetSuggestionsHandler(catalog domain.CatalogRepository, readings domain.ReadingRepository, reportCache Cache) *GetSuggestionsHandler {
	return &GetSuggestionsHandler{catalog: catalog, readings: readings, cache: reportCache, now: time.Now}
}

// Handle loads every input once and evaluates it in memory
func (h *GetSuggestionsHandler) Handle(ctx context.Context, q GetSuggestionsQuery) (*Report, error) {
	key := cache.Key("suggestions", strconv.FormatUint(uint64(q.LocationID), 10), domain.NormalizeSupplierKey(q.Supplier))
	if h.cache != nil {
		var cached Report
		if h.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	start := h.now()
	timer := prometheus.NewTimer(evaluationDuration)
	defer timer.ObserveDuration()

	products, err := h.catalog.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	rules, err := h.catalog.ListCompositionRules(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list composition rules: %w", err)
	}
	ingredients, err := h.catalog.ListRecipeIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}
	readings, err := h.readings.ListReadings(ctx, domain.ReadingFilter{LocationID: q.LocationID})
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	snap := stock.NewSnapshot(readings, products)
	for _, sk := range snap.Skipped() {
		logger.Warn(ctx).
			Uint("product_id", sk.ProductID).
			Uint("location_id", sk.LocationID).
			Str("reason", string(sk.Reason)).
			Msg("Reading skipped: unit does not convert to the product unit")
	}
	contributions, skipped := stock.NewCompositionResolver(products, rules, ingredients).Resolve(ctx, snap)
	skipped = append(snap.Skipped(), skipped...)
	agg := stock.Aggregate(snap, contributions)
	suggestions := evaluator.New(products).Evaluate(agg)

	if q.Supplier != "" {
		filtered := suggestions[:0]
		for _, s := range suggestions {
			if domain.SupplierNamesMatch(s.Supplier, q.Supplier) {
				filtered = append(filtered, s)
			}
		}
		suggestions = filtered
	}

	report := &Report{
		Suggestions:   suggestions,
		Skipped:       skipped,
		EffectiveKeys: agg.Len(),
		EvaluatedAt:   start,
		DurationMS:    float64(h.now().Sub(start).Microseconds()) / 1000,
	}

	logger.Info(ctx).
		Uint("location_id", q.LocationID).
		Int("readings", len(readings)).
		Int("suggestions", len(report.Suggestions)).
		Int("skipped", len(report.Skipped)).
		Msg("Suggestions evaluated")

	if h.cache != nil {
		h.cache.Set(ctx, key, report)
	}
	return report, nil
}
