package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/replenishment/internal/replenishment/domain"
)

// ErrNotFound is returned when a catalog record does not exist
var ErrNotFound = errors.New("record not found")

// GormRepository serves catalog and reading data from postgres
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&domain.Product{},
		&domain.CompositionRule{},
		&domain.RecipeIngredient{},
		&domain.Supplier{},
		&domain.Location{},
		&domain.InventoryReading{},
	)
}

func (r *GormRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}

	var products []domain.Product
	if err := q.Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	if filter.Supplier == "" {
		return products, nil
	}

	// Supplier names are free text; substring matching in both directions
	// cannot be expressed as one indexed predicate.
	matched := products[:0]
	for _, p := range products {
		if domain.SupplierNamesMatch(p.Supplier, filter.Supplier) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *GormRepository) FindProduct(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepository) ListCompositionRules(ctx context.Context, activeOnly bool) ([]domain.CompositionRule, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var rules []domain.CompositionRule
	err := q.Order("id").Find(&rules).Error
	return rules, err
}

func (r *GormRepository) ListRecipeIngredients(ctx context.Context) ([]domain.RecipeIngredient, error) {
	var ingredients []domain.RecipeIngredient
	err := r.db.WithContext(ctx).Order("id").Find(&ingredients).Error
	return ingredients, err
}

func (r *GormRepository) ListSuppliers(ctx context.Context, activeOnly bool) ([]domain.Supplier, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var suppliers []domain.Supplier
	err := q.Order("name").Find(&suppliers).Error
	return suppliers, err
}

func (r *GormRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location
	err := r.db.WithContext(ctx).Order("id").Find(&locations).Error
	return locations, err
}

func (r *GormRepository) ListReadings(ctx context.Context, filter domain.ReadingFilter) ([]domain.InventoryReading, error) {
	q := r.db.WithContext(ctx)
	if filter.LocationID != 0 {
		q = q.Where("location_id = ?", filter.LocationID)
	}
	if filter.ProductID != 0 {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("counted_at >= ?", filter.Since)
	}
	var readings []domain.InventoryReading
	err := q.Order("counted_at").Find(&readings).Error
	return readings, err
}

func (r *GormRepository) CreateReading(ctx context.Context, reading *domain.InventoryReading) error {
	return r.db.WithContext(ctx).Create(reading).Error
}
