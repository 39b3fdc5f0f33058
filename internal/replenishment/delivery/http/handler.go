package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/replenishment/internal/replenishment/domain"
	"github.com/tair/replenishment/internal/replenishment/repository"
	"github.com/tair/replenishment/internal/replenishment/usecase/command"
	"github.com/tair/replenishment/internal/replenishment/usecase/query"
	"github.com/tair/replenishment/pkg/logger"
	"github.com/tair/replenishment/pkg/middleware"
)

// SuggestionCache caches evaluation reports and drops them when stock changes
type SuggestionCache interface {
	query.Cache
	command.Invalidator
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ReplenishmentHandler handles HTTP requests for suggestions and stock counts
type ReplenishmentHandler struct {
	// Command handlers
	recordHandler *command.RecordReadingHandler

	// Query handlers
	suggestionsHandler   *query.GetSuggestionsHandler
	groupHandler         *query.GroupSuggestionsHandler
	orderableHandler     *query.OrderableSuggestionsHandler
	minimumOrderHandler  *query.CheckMinimumOrdersHandler
	compareOffersHandler *query.CompareOffersHandler

	metrics *middleware.Metrics
}

// NewReplenishmentHandler creates a new replenishment handler
func NewReplenishmentHandler(
	store repository.Store,
	orders query.OrderLister,
	cache SuggestionCache,
	defaultTax decimal.Decimal,
	metrics *middleware.Metrics,
) *ReplenishmentHandler {
	suggestions := query.NewGetSuggestionsHandler(store, store, cache)
	orderable := query.NewOrderableSuggestionsHandler(suggestions, store, orders)

	return &ReplenishmentHandler{
		recordHandler:        command.NewRecordReadingHandler(store, cache),
		suggestionsHandler:   suggestions,
		groupHandler:         query.NewGroupSuggestionsHandler(suggestions, store),
		orderableHandler:     orderable,
		minimumOrderHandler:  query.NewCheckMinimumOrdersHandler(orderable, defaultTax),
		compareOffersHandler: query.NewCompareOffersHandler(store),
		metrics:              metrics,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func locationParam(r *http.Request) (uint, bool) {
	raw := r.URL.Query().Get("location_id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// GetSuggestions handles GET /api/suggestions
func (h *ReplenishmentHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	locationID, ok := locationParam(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	report, err := h.suggestionsHandler.Handle(r.Context(), query.GetSuggestionsQuery{
		LocationID: locationID,
		Supplier:   r.URL.Query().Get("supplier"),
	})
	if err != nil {
		h.handleError(w, r, err, "Failed to evaluate suggestions")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: report})
}

// GroupSuggestions handles GET /api/suggestions/grouped
func (h *ReplenishmentHandler) GroupSuggestions(w http.ResponseWriter, r *http.Request) {
	locationID, ok := locationParam(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	grouped, err := h.groupHandler.Handle(r.Context(), query.GroupSuggestionsQuery{
		LocationID: locationID,
		View:       query.View(r.URL.Query().Get("view")),
	})
	if err != nil {
		h.handleError(w, r, err, "Failed to group suggestions")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: grouped})
}

// OrderableSuggestions handles GET /api/suggestions/orderable
func (h *ReplenishmentHandler) OrderableSuggestions(w http.ResponseWriter, r *http.Request) {
	locationID, ok := locationParam(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	groups, err := h.orderableHandler.Handle(r.Context(), query.OrderableSuggestionsQuery{
		LocationID: locationID,
		Supplier:   r.URL.Query().Get("supplier"),
	})
	if err != nil {
		h.handleError(w, r, err, "Failed to list orderable suggestions")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: groups})
}

// MinimumOrders handles GET /api/suggestions/minimum-orders
func (h *ReplenishmentHandler) MinimumOrders(w http.ResponseWriter, r *http.Request) {
	locationID, ok := locationParam(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	groups, err := h.minimumOrderHandler.Handle(r.Context(), query.CheckMinimumOrdersQuery{LocationID: locationID})
	if err != nil {
		h.handleError(w, r, err, "Failed to check minimum orders")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: groups})
}

// CompareOffers handles GET /api/products/compare?ids=1,2
func (h *ReplenishmentHandler) CompareOffers(w http.ResponseWriter, r *http.Request) {
	var ids []uint
	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}
		ids = append(ids, uint(id))
	}

	ranked, err := h.compareOffersHandler.Handle(r.Context(), query.CompareOffersQuery{ProductIDs: ids})
	if err != nil {
		h.handleError(w, r, err, "Failed to compare offers")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: ranked})
}

// RecordReading handles POST /api/readings
func (h *ReplenishmentHandler) RecordReading(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocationID  uint       `json:"location_id"`
		ProductID   uint       `json:"product_id"`
		ProductName string     `json:"product_name"`
		Quantity    float64    `json:"quantity"`
		Unit        string     `json:"unit"`
		CountedAt   *time.Time `json:"counted_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := command.RecordReadingCommand{
		LocationID:  req.LocationID,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
	}
	if req.CountedAt != nil {
		cmd.CountedAt = *req.CountedAt
	}

	reading, err := h.recordHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.handleError(w, r, err, "Failed to record reading")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Reading recorded",
		Data:    reading,
	})
}

// RegisterRoutes registers all replenishment routes
func (h *ReplenishmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/suggestions", h.metrics.Wrap("suggestions", h.GetSuggestions)).Methods("GET")
	router.HandleFunc("/api/suggestions/grouped", h.metrics.Wrap("suggestions_grouped", h.GroupSuggestions)).Methods("GET")
	router.HandleFunc("/api/suggestions/orderable", h.metrics.Wrap("suggestions_orderable", h.OrderableSuggestions)).Methods("GET")
	router.HandleFunc("/api/suggestions/minimum-orders", h.metrics.Wrap("minimum_orders", h.MinimumOrders)).Methods("GET")
	router.HandleFunc("/api/products/compare", h.metrics.Wrap("compare_offers", h.CompareOffers)).Methods("GET")
	router.HandleFunc("/api/readings", h.metrics.Wrap("record_reading", h.RecordReading)).Methods("POST")
}

// RegisterHealthCheck registers health check endpoint
func (h *ReplenishmentHandler) RegisterHealthCheck(router *mux.Router, db Pinger) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Replenishment service is healthy",
		})
	}).Methods("GET")
}

func (h *ReplenishmentHandler) handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error(r.Context()).Err(err).Msg(msg)
		h.respondError(w, http.StatusInternalServerError, msg)
	}
}

func (h *ReplenishmentHandler) respondError(w http.ResponseWriter, status int, message string) {
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
