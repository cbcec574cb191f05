package handlers

import (
	"net/http"

	"storyfront-backend/application/services"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TaxonomyHandler handles category and tag HTTP requests
type TaxonomyHandler struct {
	taxonomy *services.TaxonomyService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(taxonomy *services.TaxonomyService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomy: taxonomy,
		errors:   errorHandler,
		logger:   logger,
	}
}

// CategoryRequest represents the request body for creating or renaming a
// category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// TagRequest represents the request body for creating a tag
type TagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// ListCategories handles GET /categories
func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.taxonomy.ListCategories(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /categories
func (h *TaxonomyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	category, err := h.taxonomy.CreateCategory(r.Context(), actorFrom(r.Context()), req.Name, req.Description)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /categories/{categoryID}
func (h *TaxonomyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	category, err := h.taxonomy.UpdateCategory(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "categoryID"), req.Name, req.Description)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /categories/{categoryID}
func (h *TaxonomyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.taxonomy.DeleteCategory(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "categoryID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListTags handles GET /tags
func (h *TaxonomyHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.taxonomy.ListTags(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, tags)
}

// CreateTag handles POST /tags
func (h *TaxonomyHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	tag, err := h.taxonomy.CreateTag(r.Context(), actorFrom(r.Context()), req.Name)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, tag)
}

// DeleteTag handles DELETE /tags/{tagID}
func (h *TaxonomyHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.taxonomy.DeleteTag(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "tagID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "tag deleted"})
}
