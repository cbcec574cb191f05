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

// defaultStripLimit bounds the latest/related/home strips when the client
// does not ask for a size.
const defaultStripLimit = 6

// BlogHandler handles blog-related HTTP requests
type BlogHandler struct {
	blogs  *services.BlogService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(blogs *services.BlogService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{
		blogs:  blogs,
		errors: errorHandler,
		logger: logger,
	}
}

// CreateBlogRequest represents the request body for publishing a post
type CreateBlogRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required"`
	Excerpt  string   `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Category string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=50"`
	Private  bool     `json:"private,omitempty"`
}

// UpdateBlogRequest represents the request body for editing a post
type UpdateBlogRequest struct {
	Title    *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content  *string   `json:"content,omitempty"`
	Excerpt  *string   `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Category *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags     *[]string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=50"`
	Private  *bool     `json:"private,omitempty"`
}

// SearchRequest represents the request body for full-text search
type SearchRequest struct {
	Query string `json:"query" validate:"required,min=1,max=200"`
}

// CreateBlog handles POST /blogs
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var req CreateBlogRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	view, err := h.blogs.Create(r.Context(), actorFrom(r.Context()), services.CreateBlogInput{
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Category: req.Category,
		Tags:     req.Tags,
		Private:  req.Private,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, view)
}

// GetBlog handles GET /blogs/blog/{blogID}
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	view, err := h.blogs.GetByID(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// GetBlogBySlug handles GET /blogs/slug/{slug}
func (h *BlogHandler) GetBlogBySlug(w http.ResponseWriter, r *http.Request) {
	view, err := h.blogs.GetBySlug(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// ListBlogs handles GET /blogs
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	page := common.ExtractPaginationParams(r)
	filter := ports.BlogFilter{
		Category:       r.URL.Query().Get("category"),
		Tag:            r.URL.Query().Get("tag"),
		AuthorID:       r.URL.Query().Get("author"),
		IncludePrivate: r.URL.Query().Get("include_private") == "true",
	}

	result, err := h.blogs.List(r.Context(), actorFrom(r.Context()), filter, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, result.Blogs, listMeta(r, page, result.Total, result.Cached))
}

// ListLatest handles GET /blogs/latest
func (h *BlogHandler) ListLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.blogs.ListLatest(r.Context(), actorFrom(r.Context()), stripLimit(r))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, http.StatusOK, result.Blogs, readMeta(r, result.Cached))
}

// Home handles GET /home
func (h *BlogHandler) Home(w http.ResponseWriter, r *http.Request) {
	result, err := h.blogs.Home(r.Context(), actorFrom(r.Context()), stripLimit(r))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, http.StatusOK, result.Blogs, readMeta(r, result.Cached))
}

// ListRelated handles GET /blogs/related/{blogID}
func (h *BlogHandler) ListRelated(w http.ResponseWriter, r *http.Request) {
	result, err := h.blogs.ListRelated(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID"), stripLimit(r))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, http.StatusOK, result.Blogs, readMeta(r, result.Cached))
}

// Search handles POST /search
func (h *BlogHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	page := common.ExtractPaginationParams(r)
	result, err := h.blogs.Search(r.Context(), actorFrom(r.Context()), req.Query, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, result.Blogs, listMeta(r, page, result.Total, result.Cached))
}

// UpdateBlog handles PUT /blogs/{blogID}
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlogRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	view, err := h.blogs.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID"), services.UpdateBlogInput{
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Category: req.Category,
		Tags:     req.Tags,
		Private:  req.Private,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, view)
}

// DeleteBlog handles DELETE /blogs/{blogID}
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	if err := h.blogs.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "blog deleted"})
}

// ToggleLike handles POST /blogs/{blogID}/like
func (h *BlogHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	view, err := h.blogs.ToggleLike(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

func stripLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			return n
		}
	}
	return defaultStripLimit
}
