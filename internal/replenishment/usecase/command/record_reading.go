package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/units"
	"github.com/tair/replenishment/pkg/logger"
)

// Invalidator drops cached evaluation results
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// RecordReadingCommand represents the command to record a stock count
type RecordReadingCommand struct {
	LocationID  uint
	ProductID   uint
	ProductName string
	Quantity    float64
	Unit        string
	CountedAt   time.Time
}

// RecordReadingHandler handles record reading command
type RecordReadingHandler struct {
	repo  domain.ReadingRepository
	cache Invalidator
	now   func() time.Time
}

// NewRecordReadingHandler creates a new record reading handler
func NewRecordReadingHandler(repo domain.ReadingRepository, cache Invalidator) *RecordReadingHandler {
	return &RecordReadingHandler{repo: repo, cache: cache, now: time.Now}
}

// Handle executes the record reading command
func (h *RecordReadingHandler) Handle(ctx context.Context, cmd RecordReadingCommand) (*domain.InventoryReading, error) {
	if cmd.LocationID == 0 {
		return nil, fmt.Errorf("%w: location_id is required", domain.ErrInvalidInput)
	}
	if cmd.ProductID == 0 && cmd.ProductName == "" {
		return nil, fmt.Errorf("%w: product_id or product_name is required", domain.ErrInvalidInput)
	}
	if cmd.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", domain.ErrInvalidInput)
	}
	if cmd.CountedAt.IsZero() {
		cmd.CountedAt = h.now()
	}

	reading := &domain.InventoryReading{
		LocationID:  cmd.LocationID,
		ProductID:   cmd.ProductID,
		ProductName: cmd.ProductName,
		Quantity:    cmd.Quantity,
		CountedAt:   cmd.CountedAt,
	}
	if cmd.Unit != "" {
		reading.Unit = units.Parse(cmd.Unit)
	}

	if err := h.repo.CreateReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to record reading: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to invalidate suggestion cache")
		}
	}
	return reading, nil
}
