package handlers

import (
	"net/http"

	"storyfront-backend/application/services"
	"storyfront-backend/domain"
	"storyfront-backend/pkg/auth"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler handles profile and address HTTP requests
type UserHandler struct {
	users  *services.UserService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		errors: errorHandler,
		logger: logger,
	}
}

// UpdateProfileRequest represents the request body for editing a profile
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Bio  *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

// SetRoleRequest represents the request body for changing a user's role
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// AddressRequest represents the request body for saving an address.
// Sending an existing ID overwrites that address.
type AddressRequest struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label" validate:"required,max=50"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region,omitempty" validate:"omitempty,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsDefault  bool   `json:"isDefault"`
}

// GetMe handles GET /users/me. The profile is created on first contact
// and refreshed when the token's email or name has drifted.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError(""))
		return
	}

	user, err := h.users.EnsureProfile(r.Context(), userCtx.UserID, userCtx.Email, userCtx.Name)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	user, err := h.users.UpdateProfile(r.Context(), actor, actor.UserID(), services.UpdateProfileInput{
		Name: req.Name,
		Bio:  req.Bio,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}

// GetUser handles GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := common.ExtractPaginationParams(r)
	result, err := h.users.List(r.Context(), actorFrom(r.Context()), page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, http.StatusOK, result.Users, listMeta(r, page, result.Total, result.Cached))
}

// SetRole handles PUT /users/{userID}/role
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.users.SetRole(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userID"), domain.Role(req.Role))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{userID}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ListAddresses handles GET /users/me/addresses
func (h *UserHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	addresses, err := h.users.ListAddresses(r.Context(), actor, actor.UserID())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, addresses)
}

// PutAddress handles POST /users/me/addresses
func (h *UserHandler) PutAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	address, err := h.users.PutAddress(r.Context(), actorFrom(r.Context()), &domain.Address{
		ID:         req.ID,
		Label:      req.Label,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, address)
}

// DeleteAddress handles DELETE /users/me/addresses/{addressID}
func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAddress(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "addressID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "address deleted"})
}
