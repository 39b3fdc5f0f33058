//go:build wireinject
// +build wireinject

package replenishment

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/replenishment/internal/replenishment/cache"
	"github.com/tair/replenishment/internal/replenishment/delivery/http"
	"github.com/tair/replenishment/internal/replenishment/usecase/query"
	"github.com/tair/replenishment/pkg/config"
	"github.com/tair/replenishment/pkg/middleware"
)

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideStore,
)

var CacheSet = wire.NewSet(
	ProvideSuggestionCache,
	wire.Bind(new(http.SuggestionCache), new(*cache.SuggestionCache)),
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, client *redis.Client, orders query.OrderLister, cfg *config.Config, metrics *middleware.Metrics) (*http.ReplenishmentHandler, error) {
	wire.Build(
		RepositorySet,
		CacheSet,
		ProvideDefaultTax,
		http.NewReplenishmentHandler,
	)
	return nil, nil
}
