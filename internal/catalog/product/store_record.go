// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/pkg/slice"
)

var (
	listFields   = []string{ColumnID, ColumnTitle, ColumnRating, ColumnPrice, ColumnTagNames, ColumnImage}
	detailFields = append(append([]string{}, listFields...), ColumnDescription, ColumnShipment)
	reviewFields = []string{ColumnID, ColumnProductTitle, ColumnText, ColumnCreated, ColumnUserEmail, ColumnUserFirstname, ColumnUserLastname}
)

// RecordRepository implements [Repository] on the record store.
type RecordRepository struct {
	products recordstore.Table
	reviews  recordstore.Table
}

func NewRepository(base recordstore.Base) *RecordRepository {
	return &RecordRepository{
		products: base.Table(constants.TableProducts),
		reviews:  base.Table(constants.TableProductReviews),
	}
}

func (repository *RecordRepository) List(context context.Context) ([]Product, error) {
	records, err := repository.products.Select(context, recordstore.Query{
		View:   constants.ViewSortByCreated,
		Fields: listFields,
	})
	if err != nil {
		return nil, fmt.Errorf("record_product_repo_list_failed: %w", err)
	}

	return slice.Map(records, productFromRecord), nil
}

func (repository *RecordRepository) FindByID(context context.Context, id string) (*Product, error) {
	record, err := recordstore.First(context, repository.products, recordstore.Query{
		View:   constants.ViewDefault,
		Fields: detailFields,
		Filter: recordstore.Eq(ColumnID, id),
	})
	if err != nil {
		return nil, fmt.Errorf("record_product_repo_find_failed: %w", err)
	}

	product := productFromRecord(record)
	return &product, nil
}

func (repository *RecordRepository) Reviews(context context.Context, productID string) ([]Review, error) {
	records, err := repository.reviews.Select(context, recordstore.Query{
		View:   constants.ViewDefault,
		Fields: reviewFields,
		Filter: recordstore.Eq(ColumnProduct, productID),
	})
	if err != nil {
		return nil, fmt.Errorf("record_product_repo_reviews_failed: %w", err)
	}

	return slice.Map(records, reviewFromRecord), nil
}

func productFromRecord(record recordstore.Record) Product {
	id, _ := record.Fields.Text(ColumnID)

	return Product{
		ID:          id,
		Title:       record.Fields.String(ColumnTitle),
		Rating:      record.Fields.Float(ColumnRating),
		Price:       record.Fields.Float(ColumnPrice),
		Tags:        record.Fields.Strings(ColumnTagNames),
		Description: record.Fields.String(ColumnDescription),
		Shipment:    record.Fields.String(ColumnShipment),
		ImageLarge:  record.Fields.AttachmentURL(ColumnImage, "large"),
		ImageFull:   record.Fields.AttachmentURL(ColumnImage, "full"),
	}
}

func reviewFromRecord(record recordstore.Record) Review {
	id, _ := record.Fields.Text(ColumnID)
	created, _ := record.Fields.Text(ColumnCreated)

	name := strings.TrimSpace(record.Fields.Lookup(ColumnUserFirstname) + " " + record.Fields.Lookup(ColumnUserLastname))

	return Review{
		ID:           id,
		Text:         record.Fields.String(ColumnText),
		Created:      created,
		ProductTitle: record.Fields.Lookup(ColumnProductTitle),
		UserName:     name,
		UserEmail:    record.Fields.Lookup(ColumnUserEmail),
	}
}
