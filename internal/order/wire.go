//go:build wireinject
// +build wireinject

package order

import (
	"github.com/google/wire"

	"github.com/tair/replenishment/internal/order/delivery/http"
	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/internal/order/usecase/command"
	"github.com/tair/replenishment/pkg/config"
	"github.com/tair/replenishment/pkg/email"
	"github.com/tair/replenishment/pkg/middleware"
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(
	repo domain.OrderRepository,
	products command.ProductCatalog,
	gateway email.Gateway,
	publisher command.EventPublisher,
	cfg *config.Config,
	metrics *middleware.Metrics,
) (*http.OrderHandler, error) {
	wire.Build(
		ProvideSettings,
		http.NewOrderHandler,
	)
	return nil, nil
}
