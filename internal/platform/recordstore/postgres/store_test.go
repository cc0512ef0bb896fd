// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return New(mock), mock
}

func recordColumns() []string {
	return []string{"id", "createdat", "fields"}
}

var createdAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// buildSelect
// ---------------------------------------------------------------------------

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		query    recordstore.Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "all_default_view",
			query:    recordstore.Query{View: "default"},
			wantSQL:  "SELECT id::text, createdat, fields FROM storefront.record WHERE tablename = $1 ORDER BY createdat ASC, id ASC",
			wantArgs: []any{"products"},
		},
		{
			name:     "sorted_newest_first",
			query:    recordstore.Query{View: "sort by created"},
			wantSQL:  "SELECT id::text, createdat, fields FROM storefront.record WHERE tablename = $1 ORDER BY createdat DESC, id DESC",
			wantArgs: []any{"products"},
		},
		{
			name:     "filtered_single",
			query:    recordstore.Query{Filter: recordstore.Eq("id", "p-1' OR '1'='1"), MaxRecords: 1},
			wantSQL:  "SELECT id::text, createdat, fields FROM storefront.record WHERE tablename = $1 AND fields->>$2 = $3 ORDER BY createdat ASC, id ASC LIMIT $4",
			wantArgs: []any{"products", "id", "p-1' OR '1'='1", 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildSelect("products", tt.query)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

// ---------------------------------------------------------------------------
// Select
// ---------------------------------------------------------------------------

func TestStore_Select_ProjectsFields(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM storefront.record WHERE tablename = $1 AND fields->>$2 = $3")).
		WithArgs("users", "email", "a@b.com", 1).
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow("0195a1b2-0000-7000-8000-000000000001", createdAt, []byte(`{"email":"a@b.com","hash":"x","verified":true}`)))

	records, err := store.Table("users").Select(context.Background(), recordstore.Query{
		Fields:     []string{"email", "verified"},
		Filter:     recordstore.Eq("email", "a@b.com"),
		MaxRecords: 1,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "0195a1b2-0000-7000-8000-000000000001", records[0].ID)
	assert.Equal(t, createdAt, records[0].CreatedTime)
	assert.True(t, records[0].Fields.Bool("verified"))
	assert.NotContains(t, records[0].Fields, "hash")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Select_Empty(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM storefront.record").
		WithArgs("refresh-token", "token", "missing").
		WillReturnRows(pgxmock.NewRows(recordColumns()))

	records, err := store.Table("refresh-token").Select(context.Background(), recordstore.Query{
		Filter: recordstore.Eq("token", "missing"),
	})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Select_QueryError(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM storefront.record").
		WithArgs("products").
		WillReturnError(errors.New("connection refused"))

	_, err := store.Table("products").Select(context.Background(), recordstore.Query{})
	assert.ErrorContains(t, err, "select products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestStore_Create_Success(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO storefront.record").
		WithArgs(pgxmock.AnyArg(), "users", []byte(`{"email":"a@b.com","verified":false}`)).
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow("0195a1b2-0000-7000-8000-000000000002", createdAt, []byte(`{"email":"a@b.com","verified":false}`)))

	record, err := store.Table("users").Create(context.Background(), recordstore.Fields{"email": "a@b.com", "verified": false})
	require.NoError(t, err)

	assert.Equal(t, "0195a1b2-0000-7000-8000-000000000002", record.ID)
	assert.False(t, record.Fields.Bool("verified"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

/*
TestStore_Create_UniqueViolation simulates the loser of a concurrent registration.
*/
func TestStore_Create_UniqueViolation(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO storefront.record").
		WithArgs(pgxmock.AnyArg(), "users", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_record_users_email"})

	_, err := store.Table("users").Create(context.Background(), recordstore.Fields{"email": "a@b.com"})
	assert.ErrorIs(t, err, recordstore.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestStore_Update_MergesPatch(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	id := "0195a1b2-0000-7000-8000-000000000003"
	mock.ExpectQuery(regexp.QuoteMeta("SET fields = fields || $3::jsonb")).
		WithArgs("users", id, []byte(`{"verified":true}`)).
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow(id, createdAt, []byte(`{"email":"a@b.com","firstname":"A","verified":true}`)))

	record, err := store.Table("users").Update(context.Background(), id, recordstore.Fields{"verified": true})
	require.NoError(t, err)

	assert.True(t, record.Fields.Bool("verified"))
	assert.Equal(t, "A", record.Fields.String("firstname"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Update_NotFound(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	id := "0195a1b2-0000-7000-8000-0000000000ff"
	mock.ExpectQuery("UPDATE storefront.record").
		WithArgs("users", id, pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Table("users").Update(context.Background(), id, recordstore.Fields{"verified": true})
	assert.ErrorIs(t, err, recordstore.ErrNoRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

/*
TestStore_Update_MalformedID never reaches the database.
*/
func TestStore_Update_MalformedID(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	_, err := store.Table("users").Update(context.Background(), "rec123", recordstore.Fields{"verified": true})
	assert.ErrorIs(t, err, recordstore.ErrNoRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Destroy
// ---------------------------------------------------------------------------

func TestStore_Destroy(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	ids := []string{"0195a1b2-0000-7000-8000-000000000004", "0195a1b2-0000-7000-8000-000000000005"}
	mock.ExpectExec("DELETE FROM storefront.record").
		WithArgs("refresh-token", ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, store.Table("refresh-token").Destroy(context.Background(), ids...))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Destroy_Partial(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	ids := []string{"0195a1b2-0000-7000-8000-000000000006", "0195a1b2-0000-7000-8000-000000000007"}
	mock.ExpectExec("DELETE FROM storefront.record").
		WithArgs("refresh-token", ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := store.Table("refresh-token").Destroy(context.Background(), ids...)
	assert.ErrorIs(t, err, recordstore.ErrNoRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Destroy_SkipsMalformedIDs(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	id := "0195a1b2-0000-7000-8000-000000000008"
	mock.ExpectExec("DELETE FROM storefront.record").
		WithArgs("refresh-token", []string{id}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := store.Table("refresh-token").Destroy(context.Background(), id, "rec123")
	assert.ErrorIs(t, err, recordstore.ErrNoRecord)

	assert.ErrorIs(t, store.Table("refresh-token").Destroy(context.Background(), "rec123"), recordstore.ErrNoRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Destroy_NoIDs(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	require.NoError(t, store.Table("refresh-token").Destroy(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	store, mock := setupStore(t)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))

	assert.ErrorContains(t, store.Ping(context.Background()), "ping failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
