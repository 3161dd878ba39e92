package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vendora/order-service/internal/entities"
	"github.com/vendora/order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// buyerHeader is set by the upstream gateway after authentication.
const buyerHeader = "X-Buyer-ID"

type OrderService interface {
	CreateOrder(ctx context.Context, buyerID string, input entities.CreateOrderInput) (entities.OrderSummary, error)
	GetOrder(ctx context.Context, orderID, requesterID string) (entities.Order, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus entities.OrderStatus, adminNotes string) error
	CancelOrder(ctx context.Context, orderID, reason string) error
	Stats(ctx context.Context, filter entities.StatsFilter) (entities.OrderStats, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/stats", h.GetStats)
	r.Get("/orders/{order_id}", h.GetOrder)
	r.Patch("/orders/{order_id}/status", h.UpdateStatus)
	r.Post("/orders/{order_id}/cancel", h.CancelOrder)
}

// CreateOrder creates an order from cart items.
// @Summary      Create order
// @Description  Atomically reserves inventory, persists the order with snapshotted line items and clears the buyer's cart
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Buyer-ID  header    string              true  "Authenticated buyer id"
// @Param        request     body      CreateOrderRequest  true  "Order to create"
// @Success      201  {object}  OrderSummary
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      404  {object}  utils.ErrorResponse "Product not found"
// @Failure      409  {object}  utils.ErrorResponse "Insufficient inventory"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	buyerID := r.Header.Get(buyerHeader)
	if buyerID == "" {
		utils.WriteError(w, "missing buyer id", http.StatusBadRequest)
		return
	}

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	start := time.Now()
	summary, err := h.svc.CreateOrder(ctx, buyerID, CreateOrderJSONToInput(req))
	orderCreateDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		h.writeOrderError(ctx, w, err, "", buyerID)
		return
	}

	ordersCreated.Inc()
	utils.WriteJSON(w, SummaryEntityToJSON(summary), http.StatusCreated)
}

// GetOrder returns an order with its line items.
// @Summary      Get order by id
// @Tags         orders
// @Produce      json
// @Param        order_id    path      string  true   "Order id"
// @Param        X-Buyer-ID  header    string  false  "Requester id; must match the order's buyer when set"
// @Success      200  {object}  Order
// @Failure      403  {object}  utils.ErrorResponse "Order belongs to another buyer"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")
	requesterID := r.Header.Get(buyerHeader)

	order, err := h.svc.GetOrder(ctx, orderID, requesterID)
	if err != nil {
		h.writeOrderError(ctx, w, err, orderID, requesterID)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateStatus applies one status transition.
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id  path      string               true  "Order id"
// @Param        request   body      UpdateStatusRequest  true  "Target status"
// @Success      204  "Status updated"
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      409  {object}  utils.ErrorResponse "Invalid status transition"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{order_id}/status [patch]
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	err := h.svc.UpdateStatus(ctx, orderID, entities.OrderStatus(req.Status), req.AdminNotes)
	if err != nil {
		h.writeOrderError(ctx, w, err, orderID, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CancelOrder cancels an order and restores its inventory.
// @Summary      Cancel order
// @Description  Compensating transaction: restores every line item's reservation and marks the order cancelled
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id  path      string              true  "Order id"
// @Param        request   body      CancelOrderRequest  true  "Cancellation reason"
// @Success      204  "Order cancelled"
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      409  {object}  utils.ErrorResponse "Order can no longer be cancelled"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{order_id}/cancel [post]
func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req CancelOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	if err := h.svc.CancelOrder(ctx, orderID, req.Reason); err != nil {
		h.writeOrderError(ctx, w, err, orderID, "")
		return
	}

	ordersCancelled.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns order statistics, optionally windowed by creation date.
// @Summary      Order statistics
// @Tags         orders
// @Produce      json
// @Param        from  query     string  false  "Window start (RFC 3339)"
// @Param        to    query     string  false  "Window end (RFC 3339)"
// @Success      200  {object}  OrderStats
// @Failure      400  {object}  utils.ErrorResponse "Invalid time window"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/stats [get]
func (h *HTTPHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter entities.StatsFilter
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			utils.WriteError(w, "invalid 'from' timestamp", http.StatusBadRequest)
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			utils.WriteError(w, "invalid 'to' timestamp", http.StatusBadRequest)
			return
		}
		filter.To = t
	}

	stats, err := h.svc.Stats(ctx, filter)
	if err != nil {
		h.writeOrderError(ctx, w, err, "", "")
		return
	}

	utils.WriteJSON(w, StatsEntityToJSON(stats), http.StatusOK)
}

// writeOrderError maps domain errors to HTTP responses. Conflicts carry
// structured detail; anything unexpected is logged and returned as a generic
// failure so no internal detail leaks across the boundary.
func (h *HTTPHandler) writeOrderError(ctx context.Context, w http.ResponseWriter, err error, orderID, buyerID string) {
	var insufficientErr *entities.InsufficientInventoryError
	var transitionErr *entities.InvalidTransitionError
	var cancelErr *entities.CannotCancelError

	switch {
	case errors.Is(err, entities.ErrNoItems),
		errors.Is(err, entities.ErrNoAddress),
		errors.Is(err, entities.ErrInvalidOrder):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)

	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, entities.ErrUnauthorized):
		utils.WriteError(w, "order belongs to another buyer", http.StatusForbidden)

	case errors.As(err, &insufficientErr):
		ordersRejectedStock.Inc()
		utils.WriteConflict(w, "insufficient inventory", map[string]any{
			"product_id":   insufficientErr.ProductID,
			"product_name": insufficientErr.ProductName,
			"available":    insufficientErr.Available,
			"requested":    insufficientErr.Requested,
		})

	case errors.As(err, &transitionErr):
		utils.WriteConflict(w, "invalid status transition", map[string]any{
			"current_status":   string(transitionErr.From),
			"requested_status": string(transitionErr.To),
		})

	case errors.As(err, &cancelErr):
		utils.WriteConflict(w, "order can no longer be cancelled", map[string]any{
			"current_status": string(cancelErr.Status),
		})

	case errors.Is(err, entities.ErrStaleOrder):
		utils.WriteConflict(w, "order was modified concurrently, retry", nil)

	default:
		h.logger.ErrorContext(ctx, "order operation failed",
			slog.Any("error", err),
			slog.String("order_id", orderID),
			slog.String("buyer_id", buyerID),
		)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
