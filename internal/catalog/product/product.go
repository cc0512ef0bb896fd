// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package product serves the read-only catalog: listings, product pages, reviews
and the checkout summary.
*/
package product

// Product is a catalog entry with both image variants resolved.
type Product struct {
	ID          string
	Title       string
	Rating      float64
	Price       float64
	Tags        []string
	Description string
	Shipment    string
	ImageLarge  string
	ImageFull   string
}

// Summary is a product as listed on the catalog page.
type Summary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Rating    float64  `json:"rating"`
	Price     float64  `json:"price"`
	Tags      []string `json:"tags"`
}

// Detail is a single product. Description and shipment are only set for the detail view.
type Detail struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Image       string   `json:"image"`
	Rating      float64  `json:"rating"`
	Price       float64  `json:"price"`
	Description string   `json:"description,omitempty"`
	Shipment    string   `json:"shipment,omitempty"`
	Tags        []string `json:"tags"`
}

// Review is a customer review with its product and author flattened in.
type Review struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Created      string `json:"created"`
	ProductTitle string `json:"productTitle"`
	UserName     string `json:"userName"`
	UserEmail    string `json:"userEmail"`
}

// CheckoutItem is one resolved line of a checkout.
type CheckoutItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// Checkout is the priced summary of a basket.
type Checkout struct {
	Items []CheckoutItem `json:"items"`
	Total float64        `json:"total"`
}

// View selects how much of a product the single endpoint returns.
type View string

const (
	ViewDetail View = "detail"
	ViewTile   View = "tile"
)

// Record field names of the products and product-reviews tables.
const (
	ColumnID          = "id"
	ColumnTitle       = "title"
	ColumnRating      = "rating"
	ColumnPrice       = "price"
	ColumnTagNames    = "name (from tags)"
	ColumnImage       = "image"
	ColumnDescription = "description"
	ColumnShipment    = "shipment"

	ColumnProduct       = "product"
	ColumnText          = "text"
	ColumnCreated       = "created"
	ColumnProductTitle  = "title (from product)"
	ColumnUserEmail     = "email (from user)"
	ColumnUserFirstname = "firstname (from user)"
	ColumnUserLastname  = "lastname (from user)"
)

// # JSON Field Identifiers

const (
	FieldProducts  = "products"
	FieldReviews   = "reviews"
	ParamProductID = "productId"
	QueryView      = "type"
)
