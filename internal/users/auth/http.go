// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
	"github.com/taibuivan/storefront/internal/platform/validate"
)

// # Definitions & Constructors

// Guards are the token middlewares the routes need.
type Guards struct {
	Access       func(http.Handler) http.Handler
	Refresh      func(http.Handler) http.Handler
	Verification func(http.Handler) http.Handler
}

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Registration, login, verification and the refresh token lifecycle. The same
// routes are mounted under /user and /authentication.
type Handler struct {
	authService *Service

	// exposeToken returns issued verification tokens in responses (tests, demos).
	exposeToken bool
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, exposeVerificationToken bool) *Handler {
	return &Handler{authService: service, exposeToken: exposeVerificationToken}
}

// RegisterRoutes attaches the authentication routes to a router.
//
// # Endpoints
//   - POST|PUT   /register
//   - POST|GET   /login                 [access, soft]
//   - POST|PATCH /verify                [verification]
//   - POST       /retry-verification[/{email}]
//   - GET        /token                 [refresh]
//   - DELETE     /logout                [refresh]
func (handler *Handler) RegisterRoutes(router chi.Router, guards Guards) {
	router.Post("/register", handler.register)
	router.Put("/register", handler.register)

	router.With(guards.Access).Post("/login", handler.login)
	router.With(guards.Access).Get("/login", handler.login)

	router.With(guards.Verification).Post("/verify", handler.verify)
	router.With(guards.Verification).Patch("/verify", handler.verify)

	router.Post("/retry-verification", handler.retryVerification)
	router.Post("/retry-verification/{email}", handler.retryVerification)

	router.With(guards.Refresh).Get("/token", handler.token)
	router.With(guards.Refresh).Delete("/logout", handler.logout)
}

// # Request Payloads

type registerRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type retryRequest struct {
	Email string `json:"email"`
}

/*
Register handles the creation of a new user account.

POST /user/register

Request:
  - Body: registerRequest (Firstname, Lastname, Email, Password)

Response:
  - 201: Message, plus verificationToken when exposure is enabled
  - 400: Missing or malformed fields
  - 409: Email already in use
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	// An undecodable body is reported the same way as a missing field
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, apperr.BadInput(MsgMissingRegisterData))
		return
	}

	presence := &validate.Validator{}
	presence.Required(FieldFirstname, input.Firstname).
		Required(FieldLastname, input.Lastname).
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if presence.HasErrors() {
		respond.Error(writer, request, apperr.BadInput(MsgMissingRegisterData))
		return
	}

	registration, err := handler.authService.Register(request.Context(), RegisterInput{
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.created(writer, MsgUserCreated, registration.VerificationToken)
}

/*
Login authenticates a user and issues tokens.

POST /user/login

Description: With credentials, returns access and refresh tokens. Without
credentials but with a valid access token, returns a renewed access token.

Response:
  - 200: {accessToken, refreshToken, user} or {accessToken}
  - 400: Missing input
  - 403: Bad credentials or unverified email
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	}, requestutil.Identity(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if session.RefreshToken == "" {
		respond.OK(writer, map[string]any{FieldAccessToken: session.AccessToken})
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldUser:         session.User,
	})
}

/*
Verify confirms the email of the account named by the verification token.

POST /user/verify

Response:
  - 201: Verification successful
  - 403: Unknown user or superseded token
  - 409: Already verified
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.ConfirmVerification(request.Context(), requestutil.Identity(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, http.StatusCreated, MsgVerified)
}

/*
RetryVerification issues a new verification link.

POST /user/retry-verification/{email}

Description: The email may come from the path or from a {"email"} body.

Response:
  - 201: New link sent
  - 400: No email given
  - 403: Unknown user
  - 409: Already verified
*/
func (handler *Handler) retryVerification(writer http.ResponseWriter, request *http.Request) {
	email := requestutil.Param(request, FieldEmail)
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}

	if email == "" {
		var input retryRequest
		if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		email = input.Email
	}

	if strings.TrimSpace(email) == "" {
		respond.Error(writer, request, apperr.BadInput(MsgMissingEmailParam))
		return
	}

	token, err := handler.authService.RequestVerification(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.created(writer, MsgVerificationResent, token)
}

/*
Token issues a new access token for a live refresh token.

GET /user/token

Response:
  - 200: {accessToken}
*/
func (handler *Handler) token(writer http.ResponseWriter, request *http.Request) {
	accessToken, err := handler.authService.RefreshAccessToken(request.Context(), requestutil.Identity(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldAccessToken: accessToken})
}

/*
Logout revokes every refresh token of the caller.

DELETE /user/logout

Response:
  - 200: Logout successful
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), requestutil.Identity(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, http.StatusOK, MsgLogout)
}

func (handler *Handler) created(writer http.ResponseWriter, message, token string) {
	if !handler.exposeToken || token == "" {
		respond.Message(writer, http.StatusCreated, message)
		return
	}

	respond.Created(writer, map[string]string{
		constants.FieldMessage: message,
		FieldVerificationToken: token,
	})
}
