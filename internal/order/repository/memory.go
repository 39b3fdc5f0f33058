package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/tair/replenishment/internal/order/domain"
)

// MemoryOrderRepository provides in-memory order storage
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[uint]domain.Order
	nextID   uint
	nextLine uint
}

// NewMemoryOrderRepository creates a new in-memory order repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[uint]domain.Order), nextID: 1, nextLine: 1}
}

// Verify interface compliance
var _ domain.OrderRepository = (*MemoryOrderRepository)(nil)

// clone copies the order so callers never share line or photo slices with the store
func clone(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	o.DeliveryNotePhotos = append(pq.StringArray(nil), o.DeliveryNotePhotos...)
	return o
}

func (r *MemoryOrderRepository) assignLineIDs(order *domain.Order) {
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if order.Lines[i].ID == 0 {
			order.Lines[i].ID = r.nextLine
			r.nextLine++
		}
	}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	r.assignLineIDs(order)
	r.orders[order.ID] = clone(*order)
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id uint) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	c := clone(o)
	return &c, nil
}

func (r *MemoryOrderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Order
	for _, o := range r.orders {
		if filter.LocationID != 0 && o.LocationID != filter.LocationID {
			continue
		}
		if filter.SupplierName != "" && !strings.EqualFold(o.SupplierName, filter.SupplierName) {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, o.Status) {
			continue
		}
		if !filter.CompletedSince.IsZero() && o.Status == domain.StatusCompleted &&
			(o.CompletedAt == nil || o.CompletedAt.Before(filter.CompletedSince)) {
			continue
		}
		out = append(out, clone(o))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[filter.Offset:end]
	}
	return out, nil
}

func hasStatus(statuses []domain.Status, s domain.Status) bool {
	for _, want := range statuses {
		if want == s {
			return true
		}
	}
	return false
}

func (r *MemoryOrderRepository) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrOrderNotFound)
	}
	r.assignLineIDs(order)
	r.orders[order.ID] = clone(*order)
	return nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	delete(r.orders, id)
	return nil
}
