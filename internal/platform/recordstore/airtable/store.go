// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package airtable implements [recordstore.Base] on the Airtable REST API.

Every call goes through a circuit breaker. Transport failures and 5xx
responses count against it. 4xx responses are the caller's problem and do not.
While the breaker is open, calls fail fast with [recordstore.ErrUnavailable].

Airtable has no uniqueness constraints, so the users email rule is checked
before each create under a process-local lock.
*/
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

const (
	pageSize      = 100
	destroyBatch  = 10
	pingTableName = "products"
)

// Options configures a [Store].
type Options struct {
	APIKey      string
	BaseID      string
	EndpointURL string

	// HTTPClient defaults to a client with a 10 second timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger

	// Breaker thresholds. Zero values take the defaults below.
	BreakerTimeout     time.Duration
	BreakerMinRequests uint32
	BreakerFailRatio   float64

	// OnStateChange observes breaker transitions, e.g. for a metrics gauge.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Store is an Airtable-backed record store.
type Store struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	logger   *slog.Logger
	breaker  *gobreaker.CircuitBreaker[[]byte]
	createMu sync.Mutex
}

// New builds a store. It performs no I/O.
func New(opts Options) *Store {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BreakerTimeout == 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if opts.BreakerMinRequests == 0 {
		opts.BreakerMinRequests = 5
	}
	if opts.BreakerFailRatio == 0 {
		opts.BreakerFailRatio = 0.5
	}

	logger := opts.Logger
	settings := gobreaker.Settings{
		Name:        "airtable",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < opts.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= opts.BreakerFailRatio
		},
		IsSuccessful: func(err error) bool {
			var status *statusError
			return err == nil || (errors.As(err, &status) && status.code < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if opts.OnStateChange != nil {
				opts.OnStateChange(name, from, to)
			}
		},
	}

	return &Store{
		client:  opts.HTTPClient,
		baseURL: strings.TrimRight(opts.EndpointURL, "/") + "/v0/" + url.PathEscape(opts.BaseID),
		apiKey:  opts.APIKey,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Name implements [recordstore.Base].
func (store *Store) Name() string { return "airtable" }

// Ping implements [recordstore.Base] by reading a single product.
func (store *Store) Ping(ctx context.Context) error {
	query := url.Values{"maxRecords": {"1"}}
	if _, err := store.do(ctx, http.MethodGet, pingTableName, query, nil); err != nil {
		return fmt.Errorf("airtable: ping failed: %w", err)
	}
	return nil
}

// BreakerState exposes the circuit state for readiness reporting.
func (store *Store) BreakerState() gobreaker.State {
	return store.breaker.State()
}

// Table implements [recordstore.Base].
func (store *Store) Table(name string) recordstore.Table {
	return &table{store: store, name: name}
}

// # Wire Types

type wireRecord struct {
	ID          string             `json:"id,omitempty"`
	CreatedTime string             `json:"createdTime,omitempty"`
	Fields      recordstore.Fields `json:"fields"`
}

type listResponse struct {
	Records []wireRecord `json:"records"`
	Offset  string       `json:"offset"`
}

type writeRequest struct {
	Records  []wireRecord `json:"records"`
	Typecast bool         `json:"typecast,omitempty"`
}

type deleteResponse struct {
	Records []struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
	} `json:"records"`
}

func (record wireRecord) decode() recordstore.Record {
	created, _ := time.Parse(time.RFC3339, record.CreatedTime)
	fields := record.Fields
	if fields == nil {
		fields = recordstore.Fields{}
	}
	return recordstore.Record{ID: record.ID, CreatedTime: created, Fields: fields}
}

// # Table

type table struct {
	store *Store
	name  string
}

// Select implements [recordstore.Table], following offsets until the result
// is exhausted or MaxRecords is reached.
func (table *table) Select(ctx context.Context, query recordstore.Query) ([]recordstore.Record, error) {
	params := url.Values{"pageSize": {strconv.Itoa(pageSize)}}
	if query.View != "" {
		params.Set("view", query.View)
	}
	if query.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(query.MaxRecords))
	}
	for _, field := range query.Fields {
		params.Add("fields[]", field)
	}
	if query.Filter != nil {
		expression, err := formula(query.Filter)
		if err != nil {
			return nil, err
		}
		params.Set("filterByFormula", expression)
	}

	records := make([]recordstore.Record, 0)
	for {
		body, err := table.store.do(ctx, http.MethodGet, table.name, params, nil)
		if err != nil {
			return nil, fmt.Errorf("airtable: select %s: %w", table.name, err)
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("airtable: decode %s page: %w", table.name, err)
		}

		for _, record := range page.Records {
			records = append(records, record.decode())
		}

		if page.Offset == "" || (query.MaxRecords > 0 && len(records) >= query.MaxRecords) {
			break
		}
		params.Set("offset", page.Offset)
	}

	if query.MaxRecords > 0 && len(records) > query.MaxRecords {
		records = records[:query.MaxRecords]
	}
	return records, nil
}

// Create implements [recordstore.Table].
func (table *table) Create(ctx context.Context, fields recordstore.Fields) (recordstore.Record, error) {
	if field, ok := recordstore.UniqueField(table.name); ok {
		table.store.createMu.Lock()
		defer table.store.createMu.Unlock()

		if value := fields.String(field); value != "" {
			if err := table.ensureUnique(ctx, field, value); err != nil {
				return recordstore.Record{}, err
			}
		}
	}

	record, err := table.write(ctx, http.MethodPost, wireRecord{Fields: fields})
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("airtable: create %s: %w", table.name, err)
	}
	return record, nil
}

// Update implements [recordstore.Table] with a PATCH, which leaves unnamed fields alone.
func (table *table) Update(ctx context.Context, id string, fields recordstore.Fields) (recordstore.Record, error) {
	record, err := table.write(ctx, http.MethodPatch, wireRecord{ID: id, Fields: fields})
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("airtable: update %s/%s: %w", table.name, id, err)
	}
	return record, nil
}

// Destroy implements [recordstore.Table] in batches of ten, the API maximum.
func (table *table) Destroy(ctx context.Context, ids ...string) error {
	for start := 0; start < len(ids); start += destroyBatch {
		end := min(start+destroyBatch, len(ids))

		params := url.Values{}
		for _, id := range ids[start:end] {
			params.Add("records[]", id)
		}

		body, err := table.store.do(ctx, http.MethodDelete, table.name, params, nil)
		if err != nil {
			return fmt.Errorf("airtable: delete %s: %w", table.name, err)
		}

		var deleted deleteResponse
		if err := json.Unmarshal(body, &deleted); err != nil {
			return fmt.Errorf("airtable: decode %s delete: %w", table.name, err)
		}
		if len(deleted.Records) < end-start {
			return fmt.Errorf("airtable: delete %s: %w", table.name, recordstore.ErrNoRecord)
		}
	}
	return nil
}

func (table *table) ensureUnique(ctx context.Context, field, value string) error {
	existing, err := table.Select(ctx, recordstore.Query{
		Fields: []string{field},
		Filter: recordstore.Eq(field, value),
	})
	if err != nil {
		return err
	}
	for _, record := range existing {
		if recordstore.SameKey(record.Fields.String(field), value) {
			return fmt.Errorf("airtable: create %s: %w", table.name, recordstore.ErrDuplicate)
		}
	}
	return nil
}

func (table *table) write(ctx context.Context, method string, record wireRecord) (recordstore.Record, error) {
	payload, err := json.Marshal(writeRequest{Records: []wireRecord{record}, Typecast: true})
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("encode: %w", err)
	}

	body, err := table.store.do(ctx, method, table.name, nil, payload)
	if err != nil {
		return recordstore.Record{}, err
	}

	var written listResponse
	if err := json.Unmarshal(body, &written); err != nil {
		return recordstore.Record{}, fmt.Errorf("decode: %w", err)
	}
	if len(written.Records) == 0 {
		return recordstore.Record{}, recordstore.ErrNoRecord
	}
	return written.Records[0].decode(), nil
}

// # Transport

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (err *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", err.code, err.body)
}

// do runs one request through the breaker and maps failures onto record store sentinels.
func (store *Store) do(ctx context.Context, method, tableName string, params url.Values, payload []byte) ([]byte, error) {
	endpoint := store.baseURL + "/" + url.PathEscape(tableName)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := store.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader = http.NoBody
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+store.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := store.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return nil, &statusError{code: resp.StatusCode, body: string(raw)}
		}
		return raw, nil
	})

	return body, classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", recordstore.ErrUnavailable, err)
	}

	var status *statusError
	if errors.As(err, &status) {
		switch {
		case status.code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", recordstore.ErrNoRecord, err)
		case status.code == http.StatusUnprocessableEntity, status.code == http.StatusBadRequest:
			return fmt.Errorf("%w: %v", recordstore.ErrInvalidQuery, err)
		case status.code == http.StatusTooManyRequests, status.code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", recordstore.ErrUnavailable, err)
		}
	}
	return err
}
