package domain

import (
	"context"
	"time"
)

// OrderFilter narrows List; zero values do not filter
type OrderFilter struct {
	LocationID   uint
	SupplierName string
	Statuses     []Status
	// CompletedSince keeps completed orders completed at or after it.
	CompletedSince time.Time
	Limit          int
	Offset         int
}

// OrderRepository defines the contract for order persistence. Update replaces
// the whole record including its lines.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id uint) error
}
