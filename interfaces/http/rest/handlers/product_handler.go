package handlers

import (
	"net/http"
	"strconv"

	"storyfront-backend/application/ports"
	"storyfront-backend/application/services"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	products *services.ProductService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *services.ProductService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		errors:   errorHandler,
		logger:   logger,
	}
}

// CreateProductRequest represents the request body for adding a product
type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	PriceCents  int64    `json:"priceCents" validate:"required,gt=0"`
	Currency    string   `json:"currency" validate:"required,len=3"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Active      bool     `json:"active"`
}

// UpdateProductRequest represents the request body for editing a product
type UpdateProductRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	PriceCents  *int64    `json:"priceCents,omitempty" validate:"omitempty,gt=0"`
	Currency    *string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Stock       *int      `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Images      *[]string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Active      *bool     `json:"active,omitempty"`
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	product, err := h.products.Create(r.Context(), actorFrom(r.Context()), services.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
		Images:      req.Images,
		Category:    req.Category,
		Active:      req.Active,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /products/{slug}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySlug(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, product)
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := common.ExtractPaginationParams(r)
	filter := ports.ProductFilter{
		Category:     r.URL.Query().Get("category"),
		ActiveOnly:   r.URL.Query().Get("include_inactive") != "true",
		MinPriceCent: queryInt64(r, "min_price"),
		MaxPriceCent: queryInt64(r, "max_price"),
	}

	result, err := h.products.List(r.Context(), actorFrom(r.Context()), filter, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, result.Products, listMeta(r, page, result.Total, result.Cached))
}

// UpdateProduct handles PUT /products/{slug}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	product, err := h.products.GetBySlug(r.Context(), actor, chi.URLParam(r, "slug"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	updated, err := h.products.Update(r.Context(), actor, product.ID, services.UpdateProductInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
		Images:      req.Images,
		Category:    req.Category,
		Active:      req.Active,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteProduct handles DELETE /products/{slug}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	product, err := h.products.GetBySlug(r.Context(), actor, chi.URLParam(r, "slug"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.products.Delete(r.Context(), actor, product.ID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func queryInt64(r *http.Request, name string) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
