package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/replenishment/internal/replenishment/domain"
)

var tracer = otel.Tracer("replenishment-repository")

// Store is the full data access surface of the replenishment context
type Store interface {
	domain.CatalogRepository
	domain.ReadingRepository
}

// RepositoryWithTracing wraps a Store with one span per call
type RepositoryWithTracing struct {
	next Store
}

// NewRepositoryWithTracing creates a new repository with tracing
func NewRepositoryWithTracing(next Store) *RepositoryWithTracing {
	return &RepositoryWithTracing{next: next}
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// ListProducts with tracing
func (r *RepositoryWithTracing) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.ListProducts",
		trace.WithAttributes(
			attribute.String("filter.supplier", filter.Supplier),
			attribute.Bool("filter.active_only", filter.ActiveOnly),
			attribute.Int("filter.ids", len(filter.IDs)),
		),
	)
	defer span.End()

	products, err := r.next.ListProducts(ctx, filter)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(products)))
	return products, nil
}

// FindProduct with tracing
func (r *RepositoryWithTracing) FindProduct(ctx context.Context, id uint) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindProduct",
		trace.WithAttributes(attribute.Int("product.id", int(id))),
	)
	defer span.End()

	product, err := r.next.FindProduct(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.String("product.supplier", product.Supplier),
	)
	return product, nil
}

// ListCompositionRules with tracing
func (r *RepositoryWithTracing) ListCompositionRules(ctx context.Context, activeOnly bool) ([]domain.CompositionRule, error) {
	ctx, span := tracer.Start(ctx, "repository.ListCompositionRules",
		trace.WithAttributes(attribute.Bool("filter.active_only", activeOnly)),
	)
	defer span.End()

	rules, err := r.next.ListCompositionRules(ctx, activeOnly)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(rules)))
	return rules, nil
}

// ListRecipeIngredients with tracing
func (r *RepositoryWithTracing) ListRecipeIngredients(ctx context.Context) ([]domain.RecipeIngredient, error) {
	ctx, span := tracer.Start(ctx, "repository.ListRecipeIngredients")
	defer span.End()

	ingredients, err := r.next.ListRecipeIngredients(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(ingredients)))
	return ingredients, nil
}

// ListSuppliers with tracing
func (r *RepositoryWithTracing) ListSuppliers(ctx context.Context, activeOnly bool) ([]domain.Supplier, error) {
	ctx, span := tracer.Start(ctx, "repository.ListSuppliers",
		trace.WithAttributes(attribute.Bool("filter.active_only", activeOnly)),
	)
	defer span.End()

	suppliers, err := r.next.ListSuppliers(ctx, activeOnly)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(suppliers)))
	return suppliers, nil
}

// ListLocations with tracing
func (r *RepositoryWithTracing) ListLocations(ctx context.Context) ([]domain.Location, error) {
	ctx, span := tracer.Start(ctx, "repository.ListLocations")
	defer span.End()

	locations, err := r.next.ListLocations(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(locations)))
	return locations, nil
}

// ListReadings with tracing
func (r *RepositoryWithTracing) ListReadings(ctx context.Context, filter domain.ReadingFilter) ([]domain.InventoryReading, error) {
	ctx, span := tracer.Start(ctx, "repository.ListReadings",
		trace.WithAttributes(
			attribute.Int("filter.location_id", int(filter.LocationID)),
			attribute.Int("filter.product_id", int(filter.ProductID)),
		),
	)
	defer span.End()

	readings, err := r.next.ListReadings(ctx, filter)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(readings)))
	return readings, nil
}

// CreateReading with tracing
func (r *RepositoryWithTracing) CreateReading(ctx context.Context, reading *domain.InventoryReading) error {
	ctx, span := tracer.Start(ctx, "repository.CreateReading",
		trace.WithAttributes(
			attribute.Int("reading.location_id", int(reading.LocationID)),
			attribute.Int("reading.product_id", int(reading.ProductID)),
			attribute.Float64("reading.quantity", reading.Quantity),
		),
	)
	defer span.End()

	if err := r.next.CreateReading(ctx, reading); err != nil {
		recordError(span, err)
		return err
	}

	span.SetAttributes(attribute.Int("reading.id", int(reading.ID)))
	return nil
}
