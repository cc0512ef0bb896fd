// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/internal/platform/validate"
	"github.com/taibuivan/storefront/pkg/slice"
)

// MsgMissingItems is returned for a checkout without items.
const MsgMissingItems = "Malformed body - Missing items in request body."

type Service struct {
	repository Repository
}

func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// All lists the catalog, newest first.
func (service *Service) All(context context.Context) ([]Summary, error) {
	products, err := service.repository.List(context)
	if err != nil {
		return nil, dberr.Wrap(err, "product_service_all_failed")
	}

	return slice.Map(products, func(product Product) Summary {
		return Summary{
			ID:        product.ID,
			Title:     product.Title,
			Thumbnail: product.ImageLarge,
			Rating:    product.Rating,
			Price:     product.Price,
			Tags:      nonNil(product.Tags),
		}
	}), nil
}

/*
Single returns one product in the requested view.

Description: The detail view adds description and shipment and uses the large
thumbnail; the tile view uses the full-size image. An empty view means detail.

Returns:
  - *Detail
  - error: ValidationError for an unknown view, NotFound for an unknown id
*/
func (service *Service) Single(context context.Context, id string, view View) (*Detail, error) {
	if view == "" {
		view = ViewDetail
	}

	validator := &validate.Validator{}
	validator.OneOf(QueryView, string(view), string(ViewDetail), string(ViewTile))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	product, err := service.find(context, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		ID:     product.ID,
		Title:  product.Title,
		Image:  product.ImageFull,
		Rating: product.Rating,
		Price:  product.Price,
		Tags:   nonNil(product.Tags),
	}
	if view == ViewDetail {
		detail.Image = product.ImageLarge
		detail.Description = product.Description
		detail.Shipment = product.Shipment
	}

	return detail, nil
}

// Reviews lists the reviews of a product. An unknown product has none.
func (service *Service) Reviews(context context.Context, id string) ([]Review, error) {
	reviews, err := service.repository.Reviews(context, id)
	if err != nil {
		return nil, dberr.Wrap(err, "product_service_reviews_failed")
	}
	return nonNil(reviews), nil
}

/*
Checkout prices a basket of product ids.

Description: Every id is resolved; repeated ids count once per occurrence. No
order is stored and no payment is taken.

Returns:
  - *Checkout: Lines in request order and the total rounded to cents
  - error: BadInput without items, NotFound for the first unknown id
*/
func (service *Service) Checkout(context context.Context, items []string) (*Checkout, error) {
	if len(items) == 0 {
		return nil, apperr.BadInput(MsgMissingItems)
	}

	checkout := &Checkout{Items: make([]CheckoutItem, 0, len(items))}
	for _, id := range items {
		product, err := service.find(context, strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}

		checkout.Items = append(checkout.Items, CheckoutItem{ID: product.ID, Title: product.Title, Price: product.Price})
	}

	total := slice.Reduce(checkout.Items, 0.0, func(sum float64, item CheckoutItem) float64 { return sum + item.Price })
	checkout.Total = math.Round(total*100) / 100

	return checkout, nil
}

func (service *Service) find(context context.Context, id string) (*Product, error) {
	notFound := apperr.NotFound(fmt.Sprintf("Product with id '%s' not found.", id))
	if id == "" {
		return nil, notFound
	}

	product, err := service.repository.FindByID(context, id)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return nil, notFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "product_service_find_failed")
	}
	return product, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
