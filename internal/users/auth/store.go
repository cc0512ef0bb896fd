// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByEmail returns the account with the given canonical email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: recordstore.ErrNoRecord when absent, or retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - *User: The stored entity with its generated ID
		  - error: recordstore.ErrDuplicate when the email is taken, or persistence failures
	*/
	Create(context context.Context, user *User) (*User, error)

	/*
		MarkVerified flips the account to verified and clears any stored verification token.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error
}

// # Refresh Token Data Access

// RefreshTokenRepository stores the refresh tokens that are still honoured.
type RefreshTokenRepository interface {

	/*
		Create records a freshly issued refresh token.

		Parameters:
		  - context: context.Context
		  - token: string
		  - email: string

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token, email string) error

	/*
		Exists reports whether the token has a live row.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - bool: True when the token was issued and not revoked
		  - error: Retrieval failures
	*/
	Exists(context context.Context, token string) (bool, error)

	/*
		DeleteByEmail revokes every refresh token of the account.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteByEmail(context context.Context, email string) error
}

// # Verification Ledger

// VerificationLedger remembers the single outstanding verification token per email.
type VerificationLedger interface {

	/*
		Put replaces the outstanding token for the email.

		Parameters:
		  - context: context.Context
		  - email: string
		  - token: string
		  - ttl: time.Duration (zero keeps the entry until cleared)

		Returns:
		  - error: Persistence failures
	*/
	Put(context context.Context, email, token string, ttl time.Duration) error

	/*
		Get returns the outstanding token for the email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - string: The token
		  - bool: False when no entry exists
		  - error: Retrieval failures
	*/
	Get(context context.Context, email string) (string, bool, error)

	/*
		Clear removes the entry for the email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Persistence failures
	*/
	Clear(context context.Context, email string) error
}
