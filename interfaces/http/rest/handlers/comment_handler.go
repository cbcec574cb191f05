package handlers

import (
	"net/http"

	"storyfront-backend/application/services"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	comments *services.CommentService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		errors:   errorHandler,
		logger:   logger,
	}
}

// CreateCommentRequest represents the request body for posting a comment.
// ParentID turns the comment into a reply to another comment on the same
// post.
type CreateCommentRequest struct {
	Body     string `json:"body" validate:"required,min=1,max=5000"`
	ParentID string `json:"parentId,omitempty"`
}

// UpdateCommentRequest represents the request body for editing a comment
type UpdateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

// CreateComment handles POST /blogs/{blogID}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID"), req.ParentID, req.Body)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /blogs/{blogID}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	thread, err := h.comments.ListByBlog(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "blogID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, http.StatusOK, thread.Comments, readMeta(r, thread.Cached))
}

// UpdateComment handles PUT /comments/{commentID}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "commentID"), req.Body)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, comment)
}

// DeleteComment handles DELETE /comments/{commentID}. Deleting a comment
// removes its replies as well.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "commentID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
