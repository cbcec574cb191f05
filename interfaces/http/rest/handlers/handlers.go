// Package handlers contains the HTTP request handlers for the REST API.
// Handlers decode and validate request bodies, resolve the caller from the
// request context, and delegate to the application services. Authorization
// decisions live in the services, not here.
package handlers

import (
	"context"
	"net/http"

	"storyfront-backend/application/services"
	"storyfront-backend/pkg/auth"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"
	"storyfront-backend/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies. Blog content is the largest payload.
const maxBodyBytes = 1 << 20

// actorFrom resolves the caller from the request context. Anonymous
// requests yield a nil actor.
func actorFrom(ctx context.Context) *services.Actor {
	user := auth.UserOrNil(ctx)
	if user == nil {
		return nil
	}
	return &services.Actor{
		ID:    user.UserID,
		Name:  user.Name,
		Admin: user.IsAdmin(),
	}
}

// decodeAndValidate parses the JSON body into v and runs struct validation.
func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	if err := utils.ValidateStruct(v); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// readMeta builds response metadata for a single cached read.
func readMeta(r *http.Request, cached bool) *common.MetaInfo {
	return &common.MetaInfo{
		RequestID: middleware.GetReqID(r.Context()),
		Cached:    cached,
	}
}

// listMeta builds response metadata for a paginated list.
func listMeta(r *http.Request, page common.PaginationParams, total int, cached bool) *common.MetaInfo {
	return &common.MetaInfo{
		RequestID:  middleware.GetReqID(r.Context()),
		Cached:     cached,
		Pagination: common.BuildPaginationMeta(page.Page, page.PageSize, total),
	}
}
