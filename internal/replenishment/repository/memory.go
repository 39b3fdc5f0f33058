package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/tair/replenishment/internal/replenishment/domain"
)

// MemoryRepository provides in-memory catalog and reading storage
type MemoryRepository struct {
	mu          sync.RWMutex
	products    []domain.Product
	rules       []domain.CompositionRule
	ingredients []domain.RecipeIngredient
	suppliers   []domain.Supplier
	locations   []domain.Location
	readings    []domain.InventoryReading
	nextReading uint
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextReading: 1}
}

// Verify interface compliance
var _ Store = (*MemoryRepository)(nil)

// Seed loads reference data into the repository
func (r *MemoryRepository) Seed(products []domain.Product, rules []domain.CompositionRule, ingredients []domain.RecipeIngredient, suppliers []domain.Supplier, locations []domain.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, products...)
	r.rules = append(r.rules, rules...)
	r.ingredients = append(r.ingredients, ingredients...)
	r.suppliers = append(r.suppliers, suppliers...)
	r.locations = append(r.locations, locations...)
}

func (r *MemoryRepository) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[uint]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}

	var out []domain.Product
	for _, p := range r.products {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if len(ids) > 0 && !ids[p.ID] {
			continue
		}
		if filter.Supplier != "" && !domain.SupplierNamesMatch(p.Supplier, filter.Supplier) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryRepository) FindProduct(_ context.Context, id uint) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.products {
		if r.products[i].ID == id {
			p := r.products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
}

func (r *MemoryRepository) ListCompositionRules(_ context.Context, activeOnly bool) ([]domain.CompositionRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.CompositionRule
	for _, rule := range r.rules {
		if activeOnly && !rule.Active {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

func (r *MemoryRepository) ListRecipeIngredients(_ context.Context) ([]domain.RecipeIngredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.RecipeIngredient(nil), r.ingredients...), nil
}

func (r *MemoryRepository) ListSuppliers(_ context.Context, activeOnly bool) ([]domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Supplier
	for _, s := range r.suppliers {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *MemoryRepository) ListLocations(_ context.Context) ([]domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Location(nil), r.locations...), nil
}

func (r *MemoryRepository) ListReadings(_ context.Context, filter domain.ReadingFilter) ([]domain.InventoryReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.InventoryReading
	for _, rd := range r.readings {
		if filter.LocationID != 0 && rd.LocationID != filter.LocationID {
			continue
		}
		if filter.ProductID != 0 && rd.ProductID != filter.ProductID {
			continue
		}
		if !filter.Since.IsZero() && rd.CountedAt.Before(filter.Since) {
			continue
		}
		out = append(out, rd)
	}
	return out, nil
}

func (r *MemoryRepository) CreateReading(_ context.Context, reading *domain.InventoryReading) error {
	if reading.LocationID == 0 {
		return fmt.Errorf("location_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reading.ID = r.nextReading
	r.nextReading++
	r.readings = append(r.readings, *reading)
	return nil
}
