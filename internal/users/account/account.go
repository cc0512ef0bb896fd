// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles the signed-in customer's profile.

Location and language are links to other tables in the record store. They
arrive as lookup fields and are flattened to plain strings here.
*/
package account

import (
	"context"

	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/internal/users/auth"
)

// # Domain Entities

// Profile is the private view of a user account.
type Profile struct {
	ID        string `json:"-"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	State     string `json:"state"`
	City      string `json:"city"`
	Language  string `json:"language"`
}

// # Record Field Names

const (
	ColumnPhone          = "phone"
	ColumnCountryName    = "name (from country)"
	ColumnStateName      = "name (from state)"
	ColumnCityName       = "name (from city)"
	ColumnLanguageAbbrev = "abbreviation (from language)"
	ColumnLanguage       = auth.ColumnLanguage
	ColumnFirstname      = auth.ColumnFirstname
	ColumnLastname       = auth.ColumnLastname
	ColumnEmail          = auth.ColumnEmail
)

// profileFields is the projection used for profile reads.
var profileFields = []string{
	ColumnFirstname, ColumnLastname, ColumnEmail, ColumnPhone,
	ColumnCountryName, ColumnStateName, ColumnCityName,
	ColumnLanguageAbbrev, ColumnLanguage,
}

func profileFromRecord(record recordstore.Record) *Profile {
	language := record.Fields.Lookup(ColumnLanguageAbbrev)
	if language == "" {
		language = record.Fields.String(ColumnLanguage)
	}

	return &Profile{
		ID:        record.ID,
		Firstname: record.Fields.String(ColumnFirstname),
		Lastname:  record.Fields.String(ColumnLastname),
		Email:     record.Fields.String(ColumnEmail),
		Phone:     record.Fields.String(ColumnPhone),
		Country:   record.Fields.Lookup(ColumnCountryName),
		State:     record.Fields.Lookup(ColumnStateName),
		City:      record.Fields.Lookup(ColumnCityName),
		Language:  language,
	}
}

// # Repository Contracts

// AccountRepository defines the persistence contract for profiles.
type AccountRepository interface {
	/*
		FindByEmail retrieves the profile of an account.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Profile: Loaded profile
		  - error: recordstore.ErrNoRecord or storage failures
	*/
	FindByEmail(context context.Context, email string) (*Profile, error)

	/*
		Update merges changed fields into the account row.

		Parameters:
		  - context: context.Context
		  - id: string
		  - fields: recordstore.Fields (only the keys to change)

		Returns:
		  - error: Storage failures
	*/
	Update(context context.Context, id string, fields recordstore.Fields) error
}
