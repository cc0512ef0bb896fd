// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

// Handler implements the HTTP layer for the customer profile.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// RegisterRoutes attaches GET and PATCH "/" to router. Both pass through
// guard, which must reject anonymous requests.
func (handler *Handler) RegisterRoutes(router chi.Router, guard ...func(http.Handler) http.Handler) {
	router.With(guard...).Get("/", handler.getMe)
	router.With(guard...).Patch("/", handler.updateMe)
}

// # User Profile Endpoints

/*
GET /user/

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: Profile
  - 403: Authentication required
  - 404: User not found
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), identity.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Phone     *string `json:"phone"`
	Language  *string `json:"language"`
}

/*
PATCH /user/

Description: Applies partial updates to the authenticated user's profile.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: Message
  - 400: No fields, or invalid values
  - 403: Authentication required
  - 404: User not found
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.UpdateProfile(request.Context(), identity.Email, UpdateProfileInput{
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Phone:     input.Phone,
		Language:  input.Language,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, http.StatusOK, MsgProfileUpdated)
}
