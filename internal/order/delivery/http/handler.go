package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/order/domain"
	"github.com/tair/replenishment/internal/order/usecase/command"
	"github.com/tair/replenishment/internal/order/usecase/query"
	"github.com/tair/replenishment/pkg/email"
	"github.com/tair/replenishment/pkg/logger"
	"github.com/tair/replenishment/pkg/middleware"
)

// Settings carries the order defaults the handlers need
type Settings struct {
	DefaultTax decimal.Decimal
	FromName   string
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	// Command handlers
	createHandler      *command.CreateOrderHandler
	sendHandler        *command.SendOrderHandler
	updateHandler      *command.UpdateOrderHandler
	completeHandler    *command.CompleteOrderHandler
	acknowledgeHandler *command.AcknowledgeVarianceHandler
	attachHandler      *command.AttachDeliveryNoteHandler
	deleteHandler      *command.DeleteOrderHandler

	// Query handlers
	getHandler  *query.GetOrderHandler
	listHandler *query.ListOrdersHandler

	metrics *middleware.Metrics
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	repo domain.OrderRepository,
	products command.ProductCatalog,
	gateway email.Gateway,
	publisher command.EventPublisher,
	settings Settings,
	metrics *middleware.Metrics,
) *OrderHandler {
	return &OrderHandler{
		createHandler:      command.NewCreateOrderHandler(repo, publisher, settings.DefaultTax),
		sendHandler:        command.NewSendOrderHandler(repo, gateway, publisher, settings.DefaultTax, settings.FromName),
		updateHandler:      command.NewUpdateOrderHandler(repo, products, publisher, settings.DefaultTax),
		completeHandler:    command.NewCompleteOrderHandler(repo, products, publisher, settings.DefaultTax),
		acknowledgeHandler: command.NewAcknowledgeVarianceHandler(repo, publisher),
		attachHandler:      command.NewAttachDeliveryNoteHandler(repo, publisher),
		deleteHandler:      command.NewDeleteOrderHandler(repo, publisher),
		getHandler:         query.NewGetOrderHandler(repo),
		listHandler:        query.NewListOrdersHandler(repo),
		metrics:            metrics,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type lineRequest struct {
	ProductID   uint                `json:"product_id"`
	ProductName string              `json:"product_name"`
	Quantity    float64             `json:"quantity"`
	Unit        string              `json:"unit"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	TaxRate     decimal.NullDecimal `json:"tax_rate"`
	Manual      bool                `json:"manual"`
}

type createRequest struct {
	LocationID    uint          `json:"location_id"`
	LocationName  string        `json:"location_name"`
	SupplierName  string        `json:"supplier_name"`
	SupplierEmail string        `json:"supplier_email"`
	Note          string        `json:"note"`
	Lines         []lineRequest `json:"lines"`
}

func (req createRequest) command() command.CreateOrderCommand {
	cmd := command.CreateOrderCommand{
		LocationID:    req.LocationID,
		LocationName:  req.LocationName,
		SupplierName:  req.SupplierName,
		SupplierEmail: req.SupplierEmail,
		Note:          req.Note,
	}
	for _, l := range req.Lines {
		cmd.Lines = append(cmd.Lines, command.LineInput{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			Manual:      l.Manual,
		})
	}
	return cmd
}

type quantityRequest struct {
	ProductID uint    `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

func toLineQuantities(in []quantityRequest) []command.LineQuantity {
	out := make([]command.LineQuantity, 0, len(in))
	for _, q := range in {
		out = append(out, command.LineQuantity{ProductID: q.ProductID, Quantity: q.Quantity})
	}
	return out
}

// CreateOrder handles POST /api/orders (mark as sent)
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.createHandler.Handle(r.Context(), req.command())
	if err != nil {
		h.handleError(w, r, err, "Failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Order marked as sent",
		Data:    order,
	})
}

// SendOrder handles POST /api/orders/send
func (h *OrderHandler) SendOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		createRequest
		ContactName string `json:"contact_name"`
		FromName    string `json:"from_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.sendHandler.Handle(r.Context(), command.SendOrderCommand{
		CreateOrderCommand: req.command(),
		ContactName:        req.ContactName,
		FromName:           req.FromName,
	})
	if err != nil {
		h.handleError(w, r, err, "Failed to send order")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Order sent to supplier",
		Data:    order,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.getHandler.Handle(r.Context(), query.GetOrderQuery{ID: id})
	if err != nil {
		h.handleError(w, r, err, "Failed to get order")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: order})
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit, _ := strconv.Atoi(params.Get("limit"))
	offset, _ := strconv.Atoi(params.Get("offset"))
	locationID, _ := strconv.ParseUint(params.Get("location_id"), 10, 32)

	var statuses []domain.Status
	if raw := params.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.Status(strings.TrimSpace(s)))
		}
	}

	orders, err := h.listHandler.Handle(r.Context(), query.ListOrdersQuery{
		LocationID:   uint(locationID),
		SupplierName: params.Get("supplier"),
		Statuses:     statuses,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.handleError(w, r, err, "Failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: orders})
}

// UpdateOrder handles PATCH /api/orders/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req struct {
		Adjust []quantityRequest `json:"adjust"`
		Add    []quantityRequest `json:"add"`
		Remove []uint            `json:"remove"`
		Note   *string           `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.updateHandler.Handle(r.Context(), command.UpdateOrderCommand{
		OrderID: id,
		Adjust:  toLineQuantities(req.Adjust),
		Add:     toLineQuantities(req.Add),
		Remove:  req.Remove,
		Note:    req.Note,
	})
	if err != nil {
		h.handleError(w, r, err, "Failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order updated successfully",
		Data:    order,
	})
}

// CompleteOrder handles POST /api/orders/{id}/complete
func (h *OrderHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req struct {
		Received []struct {
			ProductID uint    `json:"product_id"`
			Quantity  float64 `json:"quantity"`
			Confirmed bool    `json:"confirmed"`
		} `json:"received"`
		CompletedBy string `json:"completed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := command.CompleteOrderCommand{OrderID: id, CompletedBy: req.CompletedBy}
	for _, rec := range req.Received {
		cmd.Received = append(cmd.Received, command.ReceivedLine{
			ProductID: rec.ProductID,
			Quantity:  rec.Quantity,
			Confirmed: rec.Confirmed,
		})
	}

	order, err := h.completeHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.handleError(w, r, err, "Failed to complete order")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order completed",
		Data:    order,
	})
}

// AcknowledgeVariance handles POST /api/orders/{id}/variance/acknowledge
func (h *OrderHandler) AcknowledgeVariance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.acknowledgeHandler.Handle(r.Context(), command.AcknowledgeVarianceCommand{OrderID: id})
	if err != nil {
		h.handleError(w, r, err, "Failed to acknowledge variance")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: order})
}

// AttachDeliveryNote handles POST /api/orders/{id}/delivery-notes
func (h *OrderHandler) AttachDeliveryNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req struct {
		PhotoURLs []string `json:"photo_urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.attachHandler.Handle(r.Context(), command.AttachDeliveryNoteCommand{OrderID: id, PhotoURLs: req.PhotoURLs})
	if err != nil {
		h.handleError(w, r, err, "Failed to attach delivery note")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: order})
}

// DeleteOrder handles DELETE /api/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.deleteHandler.Handle(r.Context(), command.DeleteOrderCommand{OrderID: id}); err != nil {
		h.handleError(w, r, err, "Failed to delete order")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order deleted successfully",
	})
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/orders", h.metrics.Wrap("list_orders", h.ListOrders)).Methods("GET")
	router.HandleFunc("/api/orders", h.metrics.Wrap("create_order", h.CreateOrder)).Methods("POST")
	router.HandleFunc("/api/orders/send", h.metrics.Wrap("send_order", h.SendOrder)).Methods("POST")
	router.HandleFunc("/api/orders/{id:[0-9]+}", h.metrics.Wrap("get_order", h.GetOrder)).Methods("GET")
	router.HandleFunc("/api/orders/{id:[0-9]+}", h.metrics.Wrap("update_order", h.UpdateOrder)).Methods("PATCH")
	router.HandleFunc("/api/orders/{id:[0-9]+}", h.metrics.Wrap("delete_order", h.DeleteOrder)).Methods("DELETE")
	router.HandleFunc("/api/orders/{id:[0-9]+}/complete", h.metrics.Wrap("complete_order", h.CompleteOrder)).Methods("POST")
	router.HandleFunc("/api/orders/{id:[0-9]+}/variance/acknowledge", h.metrics.Wrap("acknowledge_variance", h.AcknowledgeVariance)).Methods("POST")
	router.HandleFunc("/api/orders/{id:[0-9]+}/delivery-notes", h.metrics.Wrap("attach_delivery_note", h.AttachDeliveryNote)).Methods("POST")
}

func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid order ID")
		return 0, false
	}
	return uint(id), true
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrUnconfirmedLines):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGatewayFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrForeignProduct),
		errors.Is(err, domain.ErrNoOrderableLines):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrderHandler) handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Msg(msg)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, msg)
			return
		}
	}
	h.respondError(w, status, err.Error())
}

func (h *OrderHandler) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
