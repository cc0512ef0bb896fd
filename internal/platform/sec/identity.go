// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Token Kinds

// TokenKind selects the secret and lifetime a token is signed with.
type TokenKind string

const (
	// KindAccess authorizes a short request window.
	KindAccess TokenKind = "access"

	// KindRefresh mints new access tokens and is tracked server-side.
	KindRefresh TokenKind = "refresh"

	// KindVerification proves control of an email address.
	KindVerification TokenKind = "verification"
)

// # Guard Result

// IdentityState tells a handler whether a guard attached a verified caller.
type IdentityState int

const (
	// Anonymous means no credential was presented to a soft gate.
	Anonymous IdentityState = iota

	// Authenticated means a token was presented and verified.
	Authenticated
)

// Identity is the explicit outcome of a token guard.
type Identity struct {
	State IdentityState
	Email string
	Kind  TokenKind
	// Token is the raw bearer credential. Never logged.
	Token string
}

// AnonymousIdentity is the result of a soft gate without a credential.
var AnonymousIdentity = Identity{State: Anonymous}

// IsAuthenticated reports whether the identity carries a verified email.
func (identity Identity) IsAuthenticated() bool {
	return identity.State == Authenticated && identity.Email != ""
}
