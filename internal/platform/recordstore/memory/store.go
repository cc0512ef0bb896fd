// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package memory provides an in-process [recordstore.Base].
//
// It backs local development (RECORD_STORE_DRIVER=memory) and the service
// and handler tests. Values are normalized through JSON on write so reads
// look exactly like records decoded from a remote backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/pkg/uuid"
)

// Store is a mutex-guarded map of tables.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]recordstore.Record
	now    func() time.Time
	last   time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tables: make(map[string]map[string]recordstore.Record),
		now:    time.Now,
	}
}

// Name implements [recordstore.Base].
func (store *Store) Name() string { return "memory" }

// Ping implements [recordstore.Base]. The store is always reachable.
func (store *Store) Ping(context.Context) error { return nil }

// Table implements [recordstore.Base].
func (store *Store) Table(name string) recordstore.Table {
	return &table{store: store, name: name}
}

// Seed inserts a record without uniqueness checks.
// Intended for fixtures of read-only tables such as products.
func (store *Store) Seed(tableName string, fields recordstore.Fields) (recordstore.Record, error) {
	normalized, err := recordstore.Normalize(fields)
	if err != nil {
		return recordstore.Record{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	record := recordstore.Record{ID: uuid.New(), CreatedTime: store.tick(), Fields: normalized}
	store.rows(tableName)[record.ID] = record
	return cloneRecord(record), nil
}

// Len returns the number of records in a table.
func (store *Store) Len(tableName string) int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.tables[tableName])
}

// tick returns a strictly increasing creation time so that ordering is stable
// even when the clock does not advance between writes. Callers hold the write lock.
func (store *Store) tick() time.Time {
	current := store.now().UTC()
	if !current.After(store.last) {
		current = store.last.Add(time.Microsecond)
	}
	store.last = current
	return current
}

func (store *Store) rows(tableName string) map[string]recordstore.Record {
	rows, ok := store.tables[tableName]
	if !ok {
		rows = make(map[string]recordstore.Record)
		store.tables[tableName] = rows
	}
	return rows
}

// # Table

type table struct {
	store *Store
	name  string
}

// Select implements [recordstore.Table].
func (table *table) Select(_ context.Context, query recordstore.Query) ([]recordstore.Record, error) {
	table.store.mu.RLock()
	defer table.store.mu.RUnlock()

	matched := make([]recordstore.Record, 0)
	for _, record := range table.store.tables[table.name] {
		if !matches(record.Fields, query.Filter) {
			continue
		}
		matched = append(matched, record)
	}

	newestFirst := query.View == constants.ViewSortByCreated
	sort.Slice(matched, func(i, j int) bool {
		if newestFirst {
			return matched[i].CreatedTime.After(matched[j].CreatedTime)
		}
		return matched[i].CreatedTime.Before(matched[j].CreatedTime)
	})

	if query.MaxRecords > 0 && len(matched) > query.MaxRecords {
		matched = matched[:query.MaxRecords]
	}

	for index, record := range matched {
		record.Fields = record.Fields.Project(query.Fields)
		matched[index] = record
	}

	return matched, nil
}

// Create implements [recordstore.Table].
func (table *table) Create(_ context.Context, fields recordstore.Fields) (recordstore.Record, error) {
	normalized, err := recordstore.Normalize(fields)
	if err != nil {
		return recordstore.Record{}, err
	}

	table.store.mu.Lock()
	defer table.store.mu.Unlock()

	if err := table.checkUnique("", normalized); err != nil {
		return recordstore.Record{}, err
	}

	record := recordstore.Record{ID: uuid.New(), CreatedTime: table.store.tick(), Fields: normalized}
	table.store.rows(table.name)[record.ID] = record

	return cloneRecord(record), nil
}

// Update implements [recordstore.Table].
func (table *table) Update(_ context.Context, id string, fields recordstore.Fields) (recordstore.Record, error) {
	patch, err := recordstore.Normalize(fields)
	if err != nil {
		return recordstore.Record{}, err
	}

	table.store.mu.Lock()
	defer table.store.mu.Unlock()

	rows := table.store.rows(table.name)
	record, ok := rows[id]
	if !ok {
		return recordstore.Record{}, fmt.Errorf("memory: update %s/%s: %w", table.name, id, recordstore.ErrNoRecord)
	}

	merged := record.Fields.Clone()
	for key, value := range patch {
		merged[key] = value
	}

	if err := table.checkUnique(id, merged); err != nil {
		return recordstore.Record{}, err
	}

	record.Fields = merged
	rows[id] = record

	return cloneRecord(record), nil
}

// Destroy implements [recordstore.Table]. Unknown IDs are an error, and no
// record is removed when any ID is unknown.
func (table *table) Destroy(_ context.Context, ids ...string) error {
	table.store.mu.Lock()
	defer table.store.mu.Unlock()

	rows := table.store.rows(table.name)
	for _, id := range ids {
		if _, ok := rows[id]; !ok {
			return fmt.Errorf("memory: destroy %s/%s: %w", table.name, id, recordstore.ErrNoRecord)
		}
	}

	for _, id := range ids {
		delete(rows, id)
	}
	return nil
}

// checkUnique must be called with the write lock held.
func (table *table) checkUnique(selfID string, fields recordstore.Fields) error {
	field, ok := recordstore.UniqueField(table.name)
	if !ok {
		return nil
	}

	candidate := fields.String(field)
	if candidate == "" {
		return nil
	}

	for id, record := range table.store.tables[table.name] {
		if id == selfID {
			continue
		}
		if recordstore.SameKey(record.Fields.String(field), candidate) {
			return fmt.Errorf("memory: %s.%s: %w", table.name, field, recordstore.ErrDuplicate)
		}
	}
	return nil
}

func matches(fields recordstore.Fields, filter *recordstore.Filter) bool {
	if filter == nil {
		return true
	}
	text, ok := fields.Text(filter.Field)
	return ok && text == filter.Value
}

func cloneRecord(record recordstore.Record) recordstore.Record {
	record.Fields = record.Fields.Clone()
	return record
}
