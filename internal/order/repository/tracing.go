package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/replenishment/internal/order/domain"
)

var tracer = otel.Tracer("order-repository")

// OrderRepositoryWithTracing wraps an order repository with tracing
type OrderRepositoryWithTracing struct {
	next domain.OrderRepository
}

// NewOrderRepositoryWithTracing creates a new repository with tracing
func NewOrderRepositoryWithTracing(next domain.OrderRepository) *OrderRepositoryWithTracing {
	return &OrderRepositoryWithTracing{next: next}
}

func orderAttributes(order *domain.Order) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("order.id", int(order.ID)),
		attribute.String("order.reference", order.Reference),
		attribute.String("order.status", string(order.Status)),
		attribute.Int("order.location_id", int(order.LocationID)),
		attribute.String("order.supplier", order.SupplierName),
		attribute.Int("order.lines", len(order.Lines)),
	}
}

// Create with tracing
func (r *OrderRepositoryWithTracing) Create(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "repository.Create", trace.WithAttributes(orderAttributes(order)...))
	defer span.End()

	if err := r.next.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("order.id", int(order.ID)))
	return nil
}

// FindByID with tracing
func (r *OrderRepositoryWithTracing) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.Int("order.id", int(id))),
	)
	defer span.End()

	order, err := r.next.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(orderAttributes(order)...)
	return order, nil
}

// List with tracing
func (r *OrderRepositoryWithTracing) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.List",
		trace.WithAttributes(
			attribute.Int("filter.location_id", int(filter.LocationID)),
			attribute.String("filter.supplier", filter.SupplierName),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		),
	)
	defer span.End()

	orders, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(orders)))
	return orders, nil
}

// Update with tracing
func (r *OrderRepositoryWithTracing) Update(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "repository.Update", trace.WithAttributes(orderAttributes(order)...))
	defer span.End()

	if err := r.next.Update(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Delete with tracing
func (r *OrderRepositoryWithTracing) Delete(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(attribute.Int("order.id", int(id))),
	)
	defer span.End()

	if err := r.next.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
