// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/internal/platform/validate"
	"github.com/taibuivan/storefront/pkg/pointer"
)

// # Client Messages

const (
	MsgUserNotFound    = "User not found."
	MsgNothingToUpdate = "Malformed body - No profile data in request body."
	MsgProfileUpdated  = "User data successfully updated."
)

const (
	maxNameLength     = 100
	maxPhoneLength    = 32
	maxLanguageLength = 8
)

// # Service Layer

// Service orchestrates profile reads and partial updates.
type Service struct {
	accountRepository AccountRepository
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(accountRepo AccountRepository, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private profile of a user.

Parameters:
  - context: context.Context
  - email: string (from the access token)

Returns:
  - *Profile: The flattened profile
  - error: NotFound or execution failures
*/
func (service *Service) GetProfile(context context.Context, email string) (*Profile, error) {
	profile, err := service.accountRepository.FindByEmail(context, email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, dberr.Wrap(err, "account_service_get_profile_failed")
	}
	return profile, nil
}

// UpdateProfileInput defines the mutable subset of profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	Firstname *string
	Lastname  *string
	Phone     *string
	Language  *string
}

/*
UpdateProfile applies a partial set of changes to the user's profile.

Description: At least one field must be present. Names, when present, may not
be blank. Only the provided keys are written.

Parameters:
  - context: context.Context
  - email: string
  - input: UpdateProfileInput

Returns:
  - error: BadInput, ValidationError, NotFound or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, email string, input UpdateProfileInput) error {
	changes := recordstore.Fields{}
	set := func(column string, value *string) {
		if value != nil {
			changes[column] = strings.TrimSpace(*value)
		}
	}
	set(ColumnFirstname, input.Firstname)
	set(ColumnLastname, input.Lastname)
	set(ColumnPhone, input.Phone)
	set(ColumnLanguage, input.Language)

	if len(changes) == 0 {
		return apperr.BadInput(MsgNothingToUpdate)
	}

	validator := &validate.Validator{}
	validator.Custom(ColumnFirstname, input.Firstname != nil && strings.TrimSpace(*input.Firstname) == "", "This field is required").
		Custom(ColumnLastname, input.Lastname != nil && strings.TrimSpace(*input.Lastname) == "", "This field is required").
		MaxLen(ColumnFirstname, pointer.Val(input.Firstname), maxNameLength).
		MaxLen(ColumnLastname, pointer.Val(input.Lastname), maxNameLength).
		MaxLen(ColumnPhone, pointer.Val(input.Phone), maxPhoneLength).
		MaxLen(ColumnLanguage, pointer.Val(input.Language), maxLanguageLength)
	if err := validator.Err(); err != nil {
		return err
	}

	// Business: the row is addressed by ID, so resolve it from the token email first
	profile, err := service.accountRepository.FindByEmail(context, email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return apperr.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return dberr.Wrap(err, "account_service_update_lookup_failed")
	}

	if err := service.accountRepository.Update(context, profile.ID, changes); err != nil {
		return dberr.Wrap(err, "account_service_update_failed")
	}

	service.logger.InfoContext(context, "user_profile_updated",
		slog.String("email", email),
		slog.Int("fields", len(changes)),
	)

	return nil
}
