package handlers

import (
	"net/http"

	"storyfront-backend/application/services"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartHandler handles shopping cart HTTP requests
type CartHandler struct {
	carts  *services.CartService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *services.CartService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		errors: errorHandler,
		logger: logger,
	}
}

// AddCartItemRequest represents the request body for adding to the cart
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// SetCartItemRequest represents the request body for setting a line
// quantity. Zero removes the line.
type SetCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), actorFrom(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cart)
}

// SetItemQuantity handles PUT /cart/items/{productID}
func (h *CartHandler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetCartItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cart, err := h.carts.SetItemQuantity(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveItem(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "productID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), actorFrom(r.Context())); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
