package domain

import (
	"context"
	"time"
)

// ProductFilter narrows ListProducts
type ProductFilter struct {
	// Supplier matches the free-text supplier field with SupplierNamesMatch.
	Supplier   string
	ActiveOnly bool
	IDs        []uint
}

// ReadingFilter narrows ListReadings; zero values do not filter
type ReadingFilter struct {
	LocationID uint
	ProductID  uint
	Since      time.Time
}

// CatalogRepository defines the contract for reference data access
type CatalogRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	FindProduct(ctx context.Context, id uint) (*Product, error)
	ListCompositionRules(ctx context.Context, activeOnly bool) ([]CompositionRule, error)
	ListRecipeIngredients(ctx context.Context) ([]RecipeIngredient, error)
	ListSuppliers(ctx context.Context, activeOnly bool) ([]Supplier, error)
	ListLocations(ctx context.Context) ([]Location, error)
}

// ReadingRepository defines the contract for stock count access
type ReadingRepository interface {
	ListReadings(ctx context.Context, filter ReadingFilter) ([]InventoryReading, error)
	CreateReading(ctx context.Context, reading *InventoryReading) error
}
