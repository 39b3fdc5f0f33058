package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/repository"
)

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func TestRecordReading(t *testing.T) {
	store := repository.NewMemoryRepository()
	inv := &countingInvalidator{}
	h := NewRecordReadingHandler(store, inv)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	reading, err := h.Handle(context.Background(), RecordReadingCommand{LocationID: 1, ProductName: "Dough", Quantity: 4, Unit: "Kilogram"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), reading.ID)
	assert.Equal(t, domain.UnitKilogram, reading.Unit)
	assert.Equal(t, fixed, reading.CountedAt)
	assert.Equal(t, 1, inv.calls)

	stored, err := store.ListReadings(context.Background(), domain.ReadingFilter{LocationID: 1})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecordReadingValidation(t *testing.T) {
	h := NewRecordReadingHandler(repository.NewMemoryRepository(), nil)

	tests := []struct {
		name string
		cmd  RecordReadingCommand
	}{
		{"missing location", RecordReadingCommand{ProductID: 1, Quantity: 1}},
		{"missing product", RecordReadingCommand{LocationID: 1, Quantity: 1}},
		{"negative quantity", RecordReadingCommand{LocationID: 1, ProductID: 1, Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRecordReadingSurvivesCacheFailure(t *testing.T) {
	inv := &countingInvalidator{err: errors.New("redis down")}
	h := NewRecordReadingHandler(repository.NewMemoryRepository(), inv)

	_, err := h.Handle(context.Background(), RecordReadingCommand{LocationID: 1, ProductID: 3, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
}
