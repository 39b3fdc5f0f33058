package replenishment

import (
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/replenishment/internal/replenishment/cache"
	"github.com/tair/replenishment/internal/replenishment/repository"
	"github.com/tair/replenishment/pkg/config"
)

// ProvideStore provides the traced catalog and reading store
func ProvideStore(db *gorm.DB) repository.Store {
	return repository.NewRepositoryWithTracing(repository.NewGormRepository(db))
}

// ProvideSuggestionCache provides the report cache; a nil client disables it
func ProvideSuggestionCache(client *redis.Client, cfg *config.Config) *cache.SuggestionCache {
	return cache.NewSuggestionCache(client, cfg.Redis.TTL)
}

// ProvideDefaultTax provides the tax rate used when a product has none
func ProvideDefaultTax(cfg *config.Config) decimal.Decimal {
	return cfg.DefaultTaxRate
}
