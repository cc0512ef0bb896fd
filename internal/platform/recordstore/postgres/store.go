// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package postgres implements [recordstore.Base] on a single PostgreSQL table.

Every record of every table lives in storefront.record:

	id         uuid         primary key
	tablename  text         logical table ("users", "products", ...)
	fields     jsonb        record content
	createdat  timestamptz
	updatedat  timestamptz

Equality filters compile to fields->>$field = $value with both operands bound.
Partial updates merge JSONB objects (fields || $patch). A unique index on
lower(fields->>'email') for users rows makes registration race-free.
*/
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/database/schema"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/pkg/slice"
	"github.com/taibuivan/storefront/pkg/uuid"
)

// DBTX is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store is a PostgreSQL-backed record store.
type Store struct {
	db DBTX
}

// New wraps a pool or any [DBTX].
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Name implements [recordstore.Base].
func (store *Store) Name() string { return "postgres" }

// Ping implements [recordstore.Base].
func (store *Store) Ping(ctx context.Context) error {
	if err := store.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

// Table implements [recordstore.Base].
func (store *Store) Table(name string) recordstore.Table {
	return &table{db: store.db, name: name}
}

// # Table

type table struct {
	db   DBTX
	name string
}

// Select implements [recordstore.Table].
func (table *table) Select(ctx context.Context, query recordstore.Query) ([]recordstore.Record, error) {
	sql, args := buildSelect(table.name, query)

	rows, err := table.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", table.name, dberr.Classify(err))
	}
	defer rows.Close()

	records := make([]recordstore.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", table.name, err)
		}
		record.Fields = record.Fields.Project(query.Fields)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", table.name, dberr.Classify(err))
	}

	return records, nil
}

// Create implements [recordstore.Table].
func (table *table) Create(ctx context.Context, fields recordstore.Fields) (recordstore.Record, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("postgres: encode %s fields: %w", table.name, err)
	}

	id := uuid.New()
	row := table.db.QueryRow(ctx, insertSQL, id, table.name, raw)

	record, err := scanRecord(row)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("postgres: insert %s: %w", table.name, dberr.Classify(err))
	}
	return record, nil
}

// Update implements [recordstore.Table].
func (table *table) Update(ctx context.Context, id string, fields recordstore.Fields) (recordstore.Record, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("postgres: encode %s patch: %w", table.name, err)
	}

	// A malformed id can never match a row
	if !uuid.Valid(id) {
		return recordstore.Record{}, fmt.Errorf("postgres: update %s/%s: %w", table.name, id, recordstore.ErrNoRecord)
	}

	row := table.db.QueryRow(ctx, updateSQL, table.name, id, raw)

	record, err := scanRecord(row)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("postgres: update %s/%s: %w", table.name, id, dberr.Classify(err))
	}
	return record, nil
}

// Destroy implements [recordstore.Table]. It reports ErrNoRecord when fewer
// rows than ids were deleted.
func (table *table) Destroy(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	valid := slice.Filter(ids, uuid.Valid)
	if len(valid) == 0 {
		return fmt.Errorf("postgres: delete %s: 0 of %d ids: %w", table.name, len(ids), recordstore.ErrNoRecord)
	}

	tag, err := table.db.Exec(ctx, deleteSQL, table.name, valid)
	if err != nil {
		return fmt.Errorf("postgres: delete %s: %w", table.name, dberr.Classify(err))
	}

	if tag.RowsAffected() < int64(len(ids)) {
		return fmt.Errorf("postgres: delete %s: %d of %d ids: %w", table.name, tag.RowsAffected(), len(ids), recordstore.ErrNoRecord)
	}
	return nil
}

// # SQL

var (
	recordTable = schema.StorefrontRecord

	insertSQL = fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, $3::jsonb)
		RETURNING %s`,
		recordTable.Table, recordTable.ID, recordTable.TableName, recordTable.Fields, recordTable.Returning())

	updateSQL = fmt.Sprintf(`
		UPDATE %s
		SET %s = %s || $3::jsonb, %s = now()
		WHERE %s = $1 AND %s = $2
		RETURNING %s`,
		recordTable.Table, recordTable.Fields, recordTable.Fields, recordTable.UpdatedAt, recordTable.TableName, recordTable.ID, recordTable.Returning())

	deleteSQL = fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s = $1 AND %s = ANY($2::uuid[])`,
		recordTable.Table, recordTable.TableName, recordTable.ID)
)

// buildSelect renders the select statement. Only placeholders are appended,
// never caller values.
func buildSelect(tableName string, query recordstore.Query) (string, []any) {
	var builder strings.Builder
	args := []any{tableName}

	fmt.Fprintf(&builder, "SELECT %s FROM %s WHERE %s = $1", recordTable.Returning(), recordTable.Table, recordTable.TableName)

	if query.Filter != nil {
		args = append(args, query.Filter.Field, query.Filter.Value)
		fmt.Fprintf(&builder, " AND %s->>$2 = $3", recordTable.Fields)
	}

	if query.View == constants.ViewSortByCreated {
		fmt.Fprintf(&builder, " ORDER BY %s DESC, %s DESC", recordTable.CreatedAt, recordTable.ID)
	} else {
		fmt.Fprintf(&builder, " ORDER BY %s ASC, %s ASC", recordTable.CreatedAt, recordTable.ID)
	}

	if query.MaxRecords > 0 {
		args = append(args, query.MaxRecords)
		builder.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	return builder.String(), args
}

func scanRecord(row pgx.Row) (recordstore.Record, error) {
	var (
		id        string
		createdAt time.Time
		raw       []byte
	)

	if err := row.Scan(&id, &createdAt, &raw); err != nil {
		return recordstore.Record{}, err
	}

	fields := recordstore.Fields{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return recordstore.Record{}, fmt.Errorf("decode fields: %w", err)
		}
	}

	return recordstore.Record{ID: id, CreatedTime: createdAt, Fields: fields}, nil
}
