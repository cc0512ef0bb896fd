// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level storage errors and
// higher-level application errors.
//
// Two steps are involved. [Classify] turns driver errors (PostgreSQL SQLSTATE
// codes, pgx sentinels) into record store sentinels. [Wrap] turns record store
// sentinels into client-safe [apperr.AppError] values.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

// PostgreSQL SQLSTATE codes the record store cares about.
const (
	codeUniqueViolation           = "23505"
	codeInvalidTextRepresentation = "22P02"
)

// Classify maps a PostgreSQL driver error onto a record store sentinel.
// Unrecognized errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", recordstore.ErrNoRecord, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", recordstore.ErrDuplicate, pgErr.ConstraintName)
		case codeInvalidTextRepresentation:
			// A malformed record id can never match a row.
			return fmt.Errorf("%w: %s", recordstore.ErrNoRecord, pgErr.Message)
		}
	}

	return err
}

// Wrap inspects a record store error and wraps it into a meaningful [apperr.AppError].
// It hides internal storage details from the client while classifying the error type.
//
// Domain repositories translate the sentinels they expect (e.g. ErrNoRecord on a
// user lookup) with their own messages first; Wrap is the fallback for the rest.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	cause := fmt.Errorf("%s: %w", action, err)

	switch {
	case errors.Is(err, recordstore.ErrNoRecord):
		return apperr.NotFound("Resource not found.").WithCause(cause)
	case errors.Is(err, recordstore.ErrDuplicate):
		return apperr.Conflict("Resource already exists.").WithCause(cause)
	case errors.Is(err, recordstore.ErrInvalidQuery):
		return apperr.BadInput("Invalid request for the record store.").WithCause(cause)
	case errors.Is(err, recordstore.ErrUnavailable):
		return apperr.ServiceUnavailable("Record store temporarily unavailable.").WithCause(cause)
	}

	return apperr.Internal(cause)
}
