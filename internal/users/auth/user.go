// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements registration, login, email verification and the
refresh token lifecycle.

# Architecture

Users and refresh tokens are rows of the record store. Verification tokens are
stateless signed credentials, but the latest one issued per email is kept in a
ledger (Redis, or a field on the user row) so a superseded link cannot be used.

Account state moves one way only: unverified to verified.
*/
package auth

import (
	"github.com/taibuivan/storefront/internal/platform/recordstore"
)

// # Domain Entities

// User is a registered customer. The password hash never leaves this package.
type User struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Hash      string `json:"-"`
	Verified  bool   `json:"verified"`
	Language  string `json:"language,omitempty"`
}

// # Record Field Names

// Field names of the users and refresh-token tables.
const (
	ColumnFirstname         = "firstname"
	ColumnLastname          = "lastname"
	ColumnEmail             = "email"
	ColumnHash              = "hash"
	ColumnVerified          = "verified"
	ColumnLanguage          = "language"
	ColumnToken             = "token"
	ColumnVerificationToken = "verification token"
)

// DefaultLanguage is stored on new accounts.
const DefaultLanguage = "en"

func userFromRecord(record recordstore.Record) *User {
	return &User{
		ID:        record.ID,
		Firstname: record.Fields.String(ColumnFirstname),
		Lastname:  record.Fields.String(ColumnLastname),
		Email:     record.Fields.String(ColumnEmail),
		Hash:      record.Fields.String(ColumnHash),
		Verified:  record.Fields.Bool(ColumnVerified),
		Language:  record.Fields.String(ColumnLanguage),
	}
}

func (user *User) fields() recordstore.Fields {
	return recordstore.Fields{
		ColumnFirstname: user.Firstname,
		ColumnLastname:  user.Lastname,
		ColumnEmail:     user.Email,
		ColumnHash:      user.Hash,
		ColumnVerified:  user.Verified,
		ColumnLanguage:  user.Language,
	}
}

// # JSON Field Identifiers

const (
	FieldFirstname         = "firstname"
	FieldLastname          = "lastname"
	FieldEmail             = "email"
	FieldPassword          = "password"
	FieldAccessToken       = "accessToken"
	FieldRefreshToken      = "refreshToken"
	FieldVerificationToken = "verificationToken"
	FieldUser              = "user"
)
