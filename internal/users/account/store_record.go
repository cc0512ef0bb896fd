// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

// RecordRepository implements [AccountRepository] on the users table.
type RecordRepository struct {
	table recordstore.Table
}

// NewRepository creates a record store implementation of the AccountRepository.
func NewRepository(base recordstore.Base) *RecordRepository {
	return &RecordRepository{table: base.Table(constants.TableUsers)}
}

// FindByEmail selects the profile projection of the matching user.
func (repository *RecordRepository) FindByEmail(context context.Context, email string) (*Profile, error) {
	record, err := recordstore.First(context, repository.table, recordstore.Query{
		View:   constants.ViewDefault,
		Fields: profileFields,
		Filter: recordstore.Eq(ColumnEmail, email),
	})
	if err != nil {
		return nil, fmt.Errorf("record_account_repo_find_failed: %w", err)
	}

	return profileFromRecord(record), nil
}

// Update merges the given fields into the row.
func (repository *RecordRepository) Update(context context.Context, id string, fields recordstore.Fields) error {
	if _, err := repository.table.Update(context, id, fields); err != nil {
		return fmt.Errorf("record_account_repo_update_failed: %w", err)
	}
	return nil
}
