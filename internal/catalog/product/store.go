// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package product

import "context"

// Repository reads the catalog tables.
type Repository interface {
	// List returns every product, newest first.
	List(context context.Context) ([]Product, error)

	// FindByID returns the product whose id field matches, or recordstore.ErrNoRecord.
	FindByID(context context.Context, id string) (*Product, error)

	// Reviews returns the reviews linked to a product, oldest first.
	Reviews(context context.Context, productID string) ([]Review, error)
}
