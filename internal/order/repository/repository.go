package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/replenishment/internal/order/domain"
)

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Order{}, &domain.OrderLine{})
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	q := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	if filter.LocationID != 0 {
		q = q.Where("location_id = ?", filter.LocationID)
	}
	if filter.SupplierName != "" {
		q = q.Where("LOWER(supplier_name) = LOWER(?)", filter.SupplierName)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if !filter.CompletedSince.IsZero() {
		q = q.Where("status <> ? OR completed_at >= ?", domain.StatusCompleted, filter.CompletedSince)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var orders []domain.Order
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Update replaces the order row and its full line set in one transaction
func (r *GormOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.OrderLine{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Lines").Save(order).Error; err != nil {
			return err
		}
		if len(order.Lines) == 0 {
			return nil
		}
		for i := range order.Lines {
			order.Lines[i].ID = 0
			order.Lines[i].OrderID = order.ID
		}
		return tx.Create(&order.Lines).Error
	})
}

func (r *GormOrderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
		}
		return nil
	})
}
