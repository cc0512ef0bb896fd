// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package recordstore defines the tabular record store the storefront reads and writes.

Tables are addressed by name and hold schemaless records. The API is
deliberately small: equality-filtered select, create, partial update and
destroy. Three backends implement it:

  - postgres: a single JSONB table in PostgreSQL.
  - airtable: the hosted Airtable REST API.
  - memory: an in-process map used in development and tests.

Domain packages depend on [Base] and [Table] only, never on a backend.
*/
package recordstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// # Sentinel Errors

var (
	// ErrNoRecord is returned when a lookup matched nothing.
	ErrNoRecord = errors.New("recordstore: no record")

	// ErrDuplicate is returned when a write would violate a uniqueness constraint.
	ErrDuplicate = errors.New("recordstore: duplicate record")

	// ErrInvalidQuery is returned when the backend rejected the request itself.
	ErrInvalidQuery = errors.New("recordstore: invalid query")

	// ErrUnavailable is returned while the backend refuses traffic (e.g. an open circuit).
	ErrUnavailable = errors.New("recordstore: backend unavailable")
)

// # Data Types

// Fields is the schemaless content of a record.
type Fields map[string]any

// Record is one row of a table.
type Record struct {
	ID          string
	CreatedTime time.Time
	Fields      Fields
}

// Filter is an equality match on a single field. Values are always bound,
// never interpolated into a query string.
type Filter struct {
	Field string
	Value string
}

// Eq builds an equality [Filter].
func Eq(field, value string) *Filter {
	return &Filter{Field: field, Value: value}
}

// Query selects records from a table.
type Query struct {
	// View names an ordering. Unknown views fall back to oldest first.
	View string
	// Fields projects the returned records. Empty returns every field.
	Fields []string
	// Filter restricts the result to records whose field equals the value.
	Filter *Filter
	// MaxRecords caps the result. Zero means unlimited.
	MaxRecords int
}

// # Contracts

// Table is a named collection of records.
type Table interface {

	/*
		Select returns the records matching the query.

		Parameters:
		  - context: context.Context
		  - query: Query

		Returns:
		  - []Record: Matching records in view order (empty, never nil on success)
		  - error: Backend failures
	*/
	Select(context context.Context, query Query) ([]Record, error)

	/*
		Create persists a new record.

		Parameters:
		  - context: context.Context
		  - fields: Fields

		Returns:
		  - Record: The stored record with its generated ID
		  - error: ErrDuplicate or backend failures
	*/
	Create(context context.Context, fields Fields) (Record, error)

	/*
		Update merges fields into an existing record. Keys not present are left unchanged.

		Parameters:
		  - context: context.Context
		  - id: string
		  - fields: Fields

		Returns:
		  - Record: The record after the merge
		  - error: ErrNoRecord, ErrDuplicate or backend failures
	*/
	Update(context context.Context, id string, fields Fields) (Record, error)

	/*
		Destroy deletes the records with the given IDs.

		Parameters:
		  - context: context.Context
		  - ids: ...string

		Returns:
		  - error: Backend failures
	*/
	Destroy(context context.Context, ids ...string) error
}

// Base is a record store connection.
type Base interface {
	// Table returns a handle on the named table. It performs no I/O.
	Table(name string) Table

	// Ping checks that the backend is reachable.
	Ping(context context.Context) error

	// Name identifies the backend in logs and readiness checks.
	Name() string
}

// # Helpers

// First selects at most one record, returning [ErrNoRecord] when nothing matched.
func First(context context.Context, table Table, query Query) (Record, error) {
	query.MaxRecords = 1

	records, err := table.Select(context, query)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, ErrNoRecord
	}

	return records[0], nil
}

// UniqueField names the field of table whose values must be unique ignoring case.
// Backends without native constraints enforce it themselves.
func UniqueField(table string) (string, bool) {
	switch table {
	case "users":
		return "email", true
	}
	return "", false
}

// SameKey compares two unique-field values the way the constraint does.
func SameKey(left, right string) bool {
	return strings.EqualFold(left, right)
}

// IDs returns the IDs of records, in order.
func IDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}
