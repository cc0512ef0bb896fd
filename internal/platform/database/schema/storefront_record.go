// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the physical tables and columns of the PostgreSQL database.
package schema

// StorefrontRecordTable represents the 'storefront.record' table
type StorefrontRecordTable struct {
	Table     string
	ID        string
	TableName string
	Fields    string
	CreatedAt string
	UpdatedAt string
}

// StorefrontRecord is the schema definition for storefront.record
var StorefrontRecord = StorefrontRecordTable{
	Table:     "storefront.record",
	ID:        "id",
	TableName: "tablename",
	Fields:    "fields",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t StorefrontRecordTable) Columns() []string {
	return []string{
		t.ID, t.TableName, t.Fields, t.CreatedAt, t.UpdatedAt,
	}
}

// Returning is the projection every record statement reads back.
func (t StorefrontRecordTable) Returning() string {
	return t.ID + "::text, " + t.CreatedAt + ", " + t.Fields
}
