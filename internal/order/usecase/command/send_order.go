package command

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/kafka"
	"github.com/tair/replenishment/pkg/email"
	"github.com/tair/replenishment/pkg/logger"
)

var orderEmail = template.Must(template.New("order").Funcs(template.FuncMap{
	"qty": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).Parse(`<html><body>
<p>Hello{{if .ContactName}} {{.ContactName}}{{end}},</p>
<p>please deliver the following to <strong>{{.Order.LocationName}}</strong> (order {{.Order.Reference}}):</p>
<table>
<tr><th align="left">Product</th><th align="right">Quantity</th><th align="left">Unit</th></tr>
{{range .Order.Lines}}<tr><td>{{.ProductName}}</td><td align="right">{{qty .OrderedQty}}</td><td>{{.Unit}}</td></tr>
{{end}}</table>
{{if .Order.Note}}<p>{{.Order.Note}}</p>
{{end}}<p>Thank you,<br>{{.FromName}}</p>
</body></html>`))

// RenderOrderEmail returns the subject and HTML body sent to the supplier
func RenderOrderEmail(order *domain.Order, contactName, fromName string) (string, string, error) {
	location := order.LocationName
	if location == "" {
		location = fmt.Sprintf("location %d", order.LocationID)
	}
	subject := fmt.Sprintf("Order %s – %s", order.Reference, location)

	var body bytes.Buffer
	err := orderEmail.Execute(&body, struct {
		Order       *domain.Order
		ContactName string
		FromName    string
	}{order, contactName, fromName})
	if err != nil {
		return "", "", fmt.Errorf("failed to render order email: %w", err)
	}
	return subject, body.String(), nil
}

// SendOrderCommand represents the command to email an order to the supplier
// and record it as sent
type SendOrderCommand struct {
	CreateOrderCommand
	ContactName string
	// FromName overrides the configured sender name.
	FromName string
}

// SendOrderHandler handles send order command
type SendOrderHandler struct {
	repo       domain.OrderRepository
	gateway    email.Gateway
	publisher  EventPublisher
	defaultTax decimal.Decimal
	fromName   string
	now        func() time.Time
}

// NewSendOrderHandler creates a new send order handler
func NewSendOrderHandler(repo domain.OrderRepository, gateway email.Gateway, publisher EventPublisher, defaultTax decimal.Decimal, fromName string) *SendOrderHandler {
	return &SendOrderHandler{
		repo:       repo,
		gateway:    gateway,
		publisher:  publisher,
		defaultTax: defaultTax,
		fromName:   fromName,
		now:        time.Now,
	}
}

// Handle executes the send order command. The order is persisted only after
// the gateway accepted the email.
func (h *SendOrderHandler) Handle(ctx context.Context, cmd SendOrderCommand) (*domain.Order, error) {
	order, err := buildSentOrder(cmd.CreateOrderCommand, h.now(), h.defaultTax)
	if err != nil {
		return nil, err
	}
	if order.SupplierEmail == "" {
		return nil, fmt.Errorf("%w: supplier_email is required to send an order", domain.ErrValidation)
	}

	fromName := cmd.FromName
	if fromName == "" {
		fromName = h.fromName
	}
	subject, body, err := RenderOrderEmail(order, cmd.ContactName, fromName)
	if err != nil {
		return nil, err
	}

	if err := h.gateway.Send(ctx, order.SupplierEmail, subject, body, fromName); err != nil {
		orderTransitions.WithLabelValues("send_failed").Inc()
		logger.Error(ctx).
			Err(err).
			Str("reference", order.Reference).
			Str("supplier", order.SupplierName).
			Msg("Order email failed, order not recorded")
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayFailed, err)
	}

	if err := h.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderTransitions.WithLabelValues("send").Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("reference", order.Reference).
		Str("supplier", order.SupplierName).
		Str("to", order.SupplierEmail).
		Msg("Order emailed and recorded as sent")

	publish(ctx, h.publisher, kafka.EventTypeOrderSent, order)
	return order, nil
}
