package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/model"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/validation"
)

// OrderHandler handles HTTP requests for order endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// execution to the orderService.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler with the provided service dependency.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// OrderResponse is the outcome of an order request. Warning is set when the
// order was executed but could not yet be written to storage.
type OrderResponse struct {
	model.ExecutionResult
	Warning string `json:"warning,omitempty"`
}

// PlaceOrder handles POST requests to execute a buy or sell order at the live price.
// Rejected orders (incomplete input, not enough cash or shares) are returned
// with success=false and the unchanged account state.
//
// Endpoint: POST /api/order/{username}
// Request Body: PlaceOrderRequest (symbol, action, shares)
// Response: 200 OK with OrderResponse
// Error: 400 Bad Request if the body is malformed or validation fails
// Error: 502 Bad Gateway if the live price could not be fetched
// Error: 500 Internal Server Error if execution fails
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	req, err := parseJSON[request.PlaceOrderRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePlaceOrder(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.orderService.PlaceOrder(r.Context(), username, req.Symbol, req.Action, req.Shares)
	var persistErr *apperrors.PersistenceError
	switch {
	case err == nil:
		response.RespondJSON(w, http.StatusOK, OrderResponse{ExecutionResult: result})
	case errors.As(err, &persistErr):
		response.RespondJSON(w, http.StatusOK, OrderResponse{
			ExecutionResult: result,
			Warning:         apperrors.ErrOrderNotDurable.Error(),
		})
	case errors.Is(err, apperrors.ErrPriceSource):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrFailedToPlaceOrder.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidUsername):
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToPlaceOrder.Error(), err.Error())
	}
}

// Orders handles GET requests to retrieve a user's executed orders in the order they were placed.
// The optional symbol query parameter restricts the list to one symbol.
//
// Endpoint: GET /api/order/{username}?symbol={symbol}
// Response: 200 OK with array of OrderRecord
// Error: 400 Bad Request if the username is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *OrderHandler) Orders(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	orders, err := h.orderService.Orders(username)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveOrders.Error(), err.Error())
		return
	}

	if symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol"))); symbol != "" {
		filtered := make([]model.OrderRecord, 0, len(orders))
		for _, o := range orders {
			if o.Symbol == symbol {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	if orders == nil {
		orders = []model.OrderRecord{}
	}

	response.RespondJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET requests to retrieve a single executed order by ID.
//
// Endpoint: GET /api/order/{username}/{uuid}
// Response: 200 OK with OrderRecord
// Error: 400 Bad Request if the username or order ID is invalid (validated by middleware)
// Error: 404 Not Found if the user has no order with that ID
// Error: 500 Internal Server Error if retrieval fails
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	orderID := chi.URLParam(r, "uuid")

	order, err := h.orderService.Order(username, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrOrderNotFound.Error(), orderID)
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveOrders.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, order)
}
