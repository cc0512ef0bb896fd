// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

// # User Repository

// RecordUserRepository implements [UserRepository] on the users table.
type RecordUserRepository struct {
	table recordstore.Table
}

// NewUserRepository creates a record store implementation of the UserRepository.
func NewUserRepository(base recordstore.Base) *RecordUserRepository {
	return &RecordUserRepository{table: base.Table(constants.TableUsers)}
}

/*
FindByEmail selects the first user whose email field matches.

Parameters:
  - context: context.Context
  - email: string (canonical form)

Returns:
  - *User: Hydrated entity
  - error: recordstore.ErrNoRecord when absent
*/
func (repository *RecordUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	record, err := recordstore.First(context, repository.table, recordstore.Query{
		Filter: recordstore.Eq(ColumnEmail, email),
	})
	if err != nil {
		return nil, fmt.Errorf("record_user_repo_find_by_email_failed: %w", err)
	}

	return userFromRecord(record), nil
}

// Create inserts the user row. The backend enforces email uniqueness.
func (repository *RecordUserRepository) Create(context context.Context, user *User) (*User, error) {
	record, err := repository.table.Create(context, user.fields())
	if err != nil {
		return nil, fmt.Errorf("record_user_repo_create_failed: %w", err)
	}

	return userFromRecord(record), nil
}

// MarkVerified sets verified and drops any token kept on the row.
func (repository *RecordUserRepository) MarkVerified(context context.Context, userID string) error {
	_, err := repository.table.Update(context, userID, recordstore.Fields{
		ColumnVerified:          true,
		ColumnVerificationToken: "",
	})
	if err != nil {
		return fmt.Errorf("record_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

// # Refresh Token Repository

// RecordRefreshTokenRepository implements [RefreshTokenRepository] on the refresh-token table.
type RecordRefreshTokenRepository struct {
	table recordstore.Table
}

// NewRefreshTokenRepository creates a record store implementation of the RefreshTokenRepository.
func NewRefreshTokenRepository(base recordstore.Base) *RecordRefreshTokenRepository {
	return &RecordRefreshTokenRepository{table: base.Table(constants.TableRefreshToken)}
}

// Create stores a {token, email} row.
func (repository *RecordRefreshTokenRepository) Create(context context.Context, token, email string) error {
	_, err := repository.table.Create(context, recordstore.Fields{
		ColumnToken: token,
		ColumnEmail: email,
	})
	if err != nil {
		return fmt.Errorf("record_refresh_repo_create_failed: %w", err)
	}
	return nil
}

// Exists looks the token up with a single-record select.
func (repository *RecordRefreshTokenRepository) Exists(context context.Context, token string) (bool, error) {
	_, err := recordstore.First(context, repository.table, recordstore.Query{
		Fields: []string{ColumnToken},
		Filter: recordstore.Eq(ColumnToken, token),
	})
	if errors.Is(err, recordstore.ErrNoRecord) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record_refresh_repo_exists_failed: %w", err)
	}
	return true, nil
}

/*
DeleteByEmail removes all refresh rows of an email.

Description: Rows are selected first, then destroyed by ID. A row removed
concurrently between the two calls is not an error.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Backend failures
*/
func (repository *RecordRefreshTokenRepository) DeleteByEmail(context context.Context, email string) error {
	records, err := repository.table.Select(context, recordstore.Query{
		Fields: []string{ColumnEmail},
		Filter: recordstore.Eq(ColumnEmail, email),
	})
	if err != nil {
		return fmt.Errorf("record_refresh_repo_select_failed: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	err = repository.table.Destroy(context, recordstore.IDs(records)...)
	if err != nil && !errors.Is(err, recordstore.ErrNoRecord) {
		return fmt.Errorf("record_refresh_repo_destroy_failed: %w", err)
	}
	return nil
}

// # Verification Ledger (record store)

// RecordVerificationLedger keeps the outstanding token on the user row itself.
// It is used when no Redis is configured. Entries do not expire; the token's
// own expiry still applies.
type RecordVerificationLedger struct {
	table recordstore.Table
}

// NewRecordVerificationLedger creates a ledger on the users table.
func NewRecordVerificationLedger(base recordstore.Base) *RecordVerificationLedger {
	return &RecordVerificationLedger{table: base.Table(constants.TableUsers)}
}

// Put writes the token onto the user row.
func (ledger *RecordVerificationLedger) Put(context context.Context, email, token string, _ time.Duration) error {
	record, err := ledger.find(context, email)
	if err != nil {
		return fmt.Errorf("record_ledger_put_failed: %w", err)
	}

	if _, err := ledger.table.Update(context, record.ID, recordstore.Fields{ColumnVerificationToken: token}); err != nil {
		return fmt.Errorf("record_ledger_put_failed: %w", err)
	}
	return nil
}

// Get reads the token from the user row. A missing user has no entry.
func (ledger *RecordVerificationLedger) Get(context context.Context, email string) (string, bool, error) {
	record, err := ledger.find(context, email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("record_ledger_get_failed: %w", err)
	}

	token := record.Fields.String(ColumnVerificationToken)
	return token, token != "", nil
}

// Clear blanks the token field.
func (ledger *RecordVerificationLedger) Clear(context context.Context, email string) error {
	record, err := ledger.find(context, email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record_ledger_clear_failed: %w", err)
	}

	if _, err := ledger.table.Update(context, record.ID, recordstore.Fields{ColumnVerificationToken: ""}); err != nil {
		return fmt.Errorf("record_ledger_clear_failed: %w", err)
	}
	return nil
}

func (ledger *RecordVerificationLedger) find(context context.Context, email string) (recordstore.Record, error) {
	return recordstore.First(context, ledger.table, recordstore.Query{
		Fields: []string{ColumnVerificationToken},
		Filter: recordstore.Eq(ColumnEmail, email),
	})
}
