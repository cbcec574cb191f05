package handlers

import (
	"net/http"

	"storyfront-backend/application/services"
	"storyfront-backend/domain"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler handles order HTTP requests
type OrderHandler struct {
	orders *services.OrderService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		errors: errorHandler,
		logger: logger,
	}
}

// CheckoutRequest represents the request body for placing an order from
// the caller's cart
type CheckoutRequest struct {
	AddressID string `json:"addressId" validate:"required"`
}

// UpdateOrderStatusRequest represents the request body for advancing an
// order through its lifecycle
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

// Checkout handles POST /orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), actorFrom(r.Context()), req.AddressID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByID(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /orders. Admins may pass ?user= to read another
// user's history; everyone else gets their own.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = actor.UserID()
	}

	page := common.ExtractPaginationParams(r)
	result, err := h.orders.ListByUser(r.Context(), actor, userID, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, result.Orders, listMeta(r, page, result.Total, false))
}

// UpdateStatus handles PUT /orders/{orderID}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"), domain.OrderStatus(req.Status))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, order)
}

// CancelOrder handles POST /orders/{orderID}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Cancel(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, order)
}
