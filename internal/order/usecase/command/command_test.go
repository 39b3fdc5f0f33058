package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/internal/order/repository"
	catalog "github.com/tair/replenishment/internal/replenishment/domain"
	catalogrepo "github.com/tair/replenishment/internal/replenishment/repository"
	"github.com/tair/replenishment/kafka"
)

var (
	fixedNow   = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	defaultTax = decimal.RequireFromString("0.07")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// MockGateway is a mock implementation of the notification gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Send(ctx context.Context, toEmail, subject, htmlBody, fromName string) error {
	args := m.Called(ctx, toEmail, subject, htmlBody, fromName)
	return args.Error(0)
}

// MockPublisher is a mock implementation of the event publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, event kafka.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e kafka.OrderEvent) bool { return e.EventType == eventType })
}

func productCatalog() *catalogrepo.MemoryRepository {
	store := catalogrepo.NewMemoryRepository()
	store.Seed([]catalog.Product{
		{ID: 1, Name: "Flour", Unit: catalog.UnitKilogram, Supplier: "Molino Rossi", UnitPrice: dec("1.00"), Active: true},
		{ID: 2, Name: "Semolina", Unit: catalog.UnitKilogram, Supplier: "Molino Rossi srl", UnitPrice: dec("1.50"), TaxRate: decimal.NewNullDecimal(dec("0.04")), Active: true},
		{ID: 3, Name: "Milk", Unit: catalog.UnitLiter, Supplier: "Dairy Fresh", UnitPrice: dec("0.90"), Active: true},
		{ID: 4, Name: "Rye", Unit: catalog.UnitKilogram, Supplier: "Molino Rossi", UnitPrice: dec("2.00"), Active: false},
	}, nil, nil, nil, nil)
	return store
}

func createCommand() CreateOrderCommand {
	return CreateOrderCommand{
		LocationID:    1,
		LocationName:  "Centro",
		SupplierName:  "Molino Rossi",
		SupplierEmail: "orders@rossi.example",
		Lines: []LineInput{
			{ProductID: 1, ProductName: "Flour", Quantity: 5, Unit: "kg", UnitPrice: dec("1.00"), TaxRate: decimal.NewNullDecimal(dec("0.10"))},
			{ProductID: 2, ProductName: "Semolina", Quantity: 0, Unit: "kg", UnitPrice: dec("1.50")},
		},
	}
}

func newCreateHandler(repo domain.OrderRepository, pub EventPublisher) *CreateOrderHandler {
	h := NewCreateOrderHandler(repo, pub, defaultTax)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	order, err := newCreateHandler(repo, pub).Handle(ctx, createCommand())
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, uint(1), order.Lines[0].ProductID)
	assert.Equal(t, domain.StatusSent, order.Status)
	assert.Equal(t, fixedNow, *order.SentAt)
	assert.True(t, order.GrossTotal.Equal(dec("5.5")), order.GrossTotal.String())
	assert.Regexp(t, `^ORD-20260302-`, order.Reference)

	complete := NewCompleteOrderHandler(repo, productCatalog(), pub, defaultTax)
	complete.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }

	done, err := complete.Handle(ctx, CompleteOrderCommand{
		OrderID: order.ID,
		Received: []ReceivedLine{
			{ProductID: 1, Quantity: 5, Confirmed: true},
			{ProductID: 2, Quantity: 0, Confirmed: true},
		},
		CompletedBy: "maria",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, "maria", done.CompletedBy)
	assert.False(t, done.HasVariance)
	// Flour has no live rate, so the snapshotted 10% still applies.
	assert.True(t, done.NetTotal.Equal(dec("5")), done.NetTotal.String())
	assert.True(t, done.GrossTotal.Equal(dec("5.5")), done.GrossTotal.String())

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)

	pub.AssertCalled(t, "PublishOrderEvent", mock.Anything, eventOfType(kafka.EventTypeOrderSent))
	pub.AssertCalled(t, "PublishOrderEvent", mock.Anything, eventOfType(kafka.EventTypeOrderCompleted))
}

func TestCreateOrderValidation(t *testing.T) {
	h := newCreateHandler(repository.NewMemoryOrderRepository(), nil)

	cmd := createCommand()
	cmd.Lines[1].Quantity = -1
	_, err := h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	cmd = createCommand()
	cmd.Lines[0].Quantity = 0
	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrNoOrderableLines)

	cmd = createCommand()
	cmd.SupplierName = " "
	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSendOrderPersistsOnlyAfterGatewaySuccess(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()

	gateway := new(MockGateway)
	gateway.On("Send", mock.Anything, "orders@rossi.example", mock.AnythingOfType("string"), mock.AnythingOfType("string"), "Centro Kitchen").
		Return(errors.New("smtp timeout")).Once()

	h := NewSendOrderHandler(repo, gateway, nil, defaultTax, "Centro Kitchen")
	h.now = func() time.Time { return fixedNow }

	_, err := h.Handle(ctx, SendOrderCommand{CreateOrderCommand: createCommand()})
	assert.ErrorIs(t, err, domain.ErrGatewayFailed)

	orders, err := repo.List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	gateway.On("Send", mock.Anything, "orders@rossi.example", mock.AnythingOfType("string"), mock.AnythingOfType("string"), "Centro Kitchen").
		Return(nil).Once()

	order, err := h.Handle(ctx, SendOrderCommand{CreateOrderCommand: createCommand()})
	require.NoError(t, err)
	assert.NotZero(t, order.ID)

	orders, err = repo.List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	gateway.AssertExpectations(t)
}

func TestSendOrderRequiresEmail(t *testing.T) {
	gateway := new(MockGateway)
	h := NewSendOrderHandler(repository.NewMemoryOrderRepository(), gateway, nil, defaultTax, "Centro Kitchen")

	cmd := createCommand()
	cmd.SupplierEmail = ""
	_, err := h.Handle(context.Background(), SendOrderCommand{CreateOrderCommand: cmd})
	assert.ErrorIs(t, err, domain.ErrValidation)
	gateway.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderOrderEmail(t *testing.T) {
	order := &domain.Order{
		Reference:    "ORD-20260302-0a0b0c0d",
		LocationName: "Centro",
		Note:         "Back door <before 9>",
		Lines:        []domain.OrderLine{{ProductName: "Flour", OrderedQty: 2.5, Unit: "kg"}},
	}

	subject, body, err := RenderOrderEmail(order, "Luca", "Centro Kitchen")
	require.NoError(t, err)
	assert.Equal(t, "Order ORD-20260302-0a0b0c0d – Centro", subject)
	assert.Contains(t, body, "Hello Luca")
	assert.Contains(t, body, "<td>Flour</td><td align=\"right\">2.5</td><td>kg</td>")
	assert.Contains(t, body, "Back door &lt;before 9&gt;")
	assert.Contains(t, body, "Centro Kitchen")
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	order, err := newCreateHandler(repo, nil).Handle(ctx, createCommand())
	require.NoError(t, err)

	h := NewUpdateOrderHandler(repo, productCatalog(), nil, defaultTax)

	_, err = h.Handle(ctx, UpdateOrderCommand{OrderID: order.ID, Add: []LineQuantity{{ProductID: 3, Quantity: 6}}})
	assert.ErrorIs(t, err, domain.ErrForeignProduct)
	_, err = h.Handle(ctx, UpdateOrderCommand{OrderID: order.ID, Add: []LineQuantity{{ProductID: 4, Quantity: 6}}})
	assert.ErrorIs(t, err, domain.ErrForeignProduct)
	_, err = h.Handle(ctx, UpdateOrderCommand{OrderID: order.ID, Add: []LineQuantity{{ProductID: 2, Quantity: 0}}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	note := "call before delivery"
	updated, err := h.Handle(ctx, UpdateOrderCommand{
		OrderID: order.ID,
		Adjust:  []LineQuantity{{ProductID: 1, Quantity: 8}},
		Add:     []LineQuantity{{ProductID: 2, Quantity: 10}},
		Note:    &note,
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, domain.OriginManual, updated.Lines[1].Origin)
	// 8*1.00*1.10 + 10*1.50*1.04
	assert.True(t, updated.NetTotal.Equal(dec("23")), updated.NetTotal.String())
	assert.True(t, updated.GrossTotal.Equal(dec("24.4")), updated.GrossTotal.String())
	assert.Equal(t, note, updated.Note)

	updated, err = h.Handle(ctx, UpdateOrderCommand{OrderID: order.ID, Adjust: []LineQuantity{{ProductID: 1, Quantity: 0}}})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, uint(2), updated.Lines[0].ProductID)

	_, err = h.Handle(ctx, UpdateOrderCommand{OrderID: order.ID, Remove: []uint{2}})
	assert.ErrorIs(t, err, domain.ErrNoOrderableLines)

	stored, _ := repo.FindByID(ctx, order.ID)
	assert.Len(t, stored.Lines, 1)
}

func TestCompleteOrderGating(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	cmd := createCommand()
	cmd.Lines[1].Quantity = 10
	order, err := newCreateHandler(repo, nil).Handle(ctx, cmd)
	require.NoError(t, err)

	h := NewCompleteOrderHandler(repo, productCatalog(), nil, defaultTax)
	h.now = func() time.Time { return fixedNow }

	_, err = h.Handle(ctx, CompleteOrderCommand{OrderID: order.ID, Received: []ReceivedLine{
		{ProductID: 1, Quantity: 5, Confirmed: true},
		{ProductID: 2, Quantity: 10},
	}})
	assert.ErrorIs(t, err, domain.ErrUnconfirmedLines)
	stored, _ := repo.FindByID(ctx, order.ID)
	assert.Equal(t, domain.StatusSent, stored.Status)

	_, err = h.Handle(ctx, CompleteOrderCommand{OrderID: order.ID, Received: []ReceivedLine{{ProductID: 9, Quantity: 1, Confirmed: true}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	done, err := h.Handle(ctx, CompleteOrderCommand{OrderID: order.ID, Received: []ReceivedLine{
		{ProductID: 1, Quantity: 4, Confirmed: true},
		{ProductID: 2, Quantity: 10, Confirmed: true},
	}})
	require.NoError(t, err)
	assert.True(t, done.HasVariance)
	assert.Len(t, done.VarianceLines(), 1)
	// 4*1.00*1.10 + 10*1.50*1.04 (live Semolina rate replaces the default)
	assert.True(t, done.GrossTotal.Equal(dec("20")), done.GrossTotal.String())

	_, err = h.Handle(ctx, CompleteOrderCommand{OrderID: order.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = NewUpdateOrderHandler(repo, productCatalog(), nil, defaultTax).Handle(ctx, UpdateOrderCommand{OrderID: order.ID, Adjust: []LineQuantity{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	ack := NewAcknowledgeVarianceHandler(repo, nil)
	acked, err := ack.Handle(ctx, AcknowledgeVarianceCommand{OrderID: order.ID})
	require.NoError(t, err)
	assert.True(t, acked.VarianceAcknowledged)
}

func TestAcknowledgeVarianceRequiresVariance(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	order, err := newCreateHandler(repo, nil).Handle(ctx, createCommand())
	require.NoError(t, err)

	_, err = NewAcknowledgeVarianceHandler(repo, nil).Handle(ctx, AcknowledgeVarianceCommand{OrderID: order.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAttachDeliveryNote(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	order, err := newCreateHandler(repo, nil).Handle(ctx, createCommand())
	require.NoError(t, err)

	h := NewAttachDeliveryNoteHandler(repo, nil)
	_, err = h.Handle(ctx, AttachDeliveryNoteCommand{OrderID: order.ID, PhotoURLs: []string{" "}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := h.Handle(ctx, AttachDeliveryNoteCommand{OrderID: order.ID, PhotoURLs: []string{"https://files.example/a.jpg", "https://files.example/a.jpg", "https://files.example/b.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://files.example/a.jpg", "https://files.example/b.jpg"}, []string(updated.DeliveryNotePhotos))

	stored, _ := repo.FindByID(ctx, order.ID)
	assert.Len(t, stored.DeliveryNotePhotos, 2)
}

func TestDeleteOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()
	pub := new(MockPublisher)
	pub.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	order, err := newCreateHandler(repo, pub).Handle(ctx, createCommand())
	require.NoError(t, err)

	h := NewDeleteOrderHandler(repo, pub)
	require.NoError(t, h.Handle(ctx, DeleteOrderCommand{OrderID: order.ID}))

	_, err = repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.ErrorIs(t, h.Handle(ctx, DeleteOrderCommand{OrderID: order.ID}), domain.ErrOrderNotFound)
	assert.ErrorIs(t, h.Handle(ctx, DeleteOrderCommand{}), domain.ErrValidation)
	pub.AssertCalled(t, "PublishOrderEvent", mock.Anything, eventOfType(kafka.EventTypeOrderDeleted))
}

func TestCreateOrderMergesRepeatedProducts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryOrderRepository()

	cmd := createCommand()
	cmd.Lines = append(cmd.Lines, LineInput{ProductID: 1, ProductName: "Flour", Quantity: 3, Unit: "kg", UnitPrice: dec("1.00"), Manual: true})
	order, err := newCreateHandler(repo, nil).Handle(ctx, cmd)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 8.0, order.Lines[0].OrderedQty)
	assert.Equal(t, domain.OriginSuggestion, order.Lines[0].Origin)

	complete := NewCompleteOrderHandler(repo, productCatalog(), nil, defaultTax)
	done, err := complete.Handle(ctx, CompleteOrderCommand{
		OrderID:  order.ID,
		Received: []ReceivedLine{{ProductID: 1, Quantity: 8, Confirmed: true}},
	})
	require.NoError(t, err)
	require.Len(t, done.Lines, 1)
	assert.Equal(t, 8.0, done.Lines[0].ReceivedQty)
	assert.False(t, done.HasVariance)
	assert.True(t, done.NetTotal.Equal(dec("8")), done.NetTotal.String())

	cmd = createCommand()
	cmd.Lines = append(cmd.Lines, LineInput{ProductID: 1, ProductName: "Flour", Quantity: 500, Unit: "g", UnitPrice: dec("1.00")})
	_, err = newCreateHandler(repo, nil).Handle(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
