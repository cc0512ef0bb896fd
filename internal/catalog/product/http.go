// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/all", handler.all)
	router.Get("/single/{productId}", handler.single)
	router.Get("/reviews/{productId}", handler.reviews)
	router.Post("/checkout", handler.checkout)
}

func (handler *Handler) all(writer http.ResponseWriter, request *http.Request) {
	products, err := handler.service.All(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{FieldProducts: products})
}

func (handler *Handler) single(writer http.ResponseWriter, request *http.Request) {
	view := View(request.URL.Query().Get(QueryView))

	detail, err := handler.service.Single(request.Context(), requestutil.Param(request, ParamProductID), view)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) reviews(writer http.ResponseWriter, request *http.Request) {
	reviews, err := handler.service.Reviews(request.Context(), requestutil.Param(request, ParamProductID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{FieldReviews: reviews})
}

type checkoutRequest struct {
	Items []string `json:"items"`
}

func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	var input checkoutRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	checkout, err := handler.service.Checkout(request.Context(), input.Items)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, checkout)
}
