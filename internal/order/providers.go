package order

import (
	"gorm.io/gorm"

	"github.com/tair/replenishment/internal/order/delivery/http"
	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/internal/order/repository"
	"github.com/tair/replenishment/pkg/config"
)

// ProvideOrderRepository provides the traced order repository
func ProvideOrderRepository(db *gorm.DB) domain.OrderRepository {
	return repository.NewOrderRepositoryWithTracing(repository.NewGormOrderRepository(db))
}

// ProvideSettings provides the order defaults from configuration
func ProvideSettings(cfg *config.Config) http.Settings {
	return http.Settings{
		DefaultTax: cfg.DefaultTaxRate,
		FromName:   cfg.Email.FromName,
	}
}
