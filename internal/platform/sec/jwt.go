// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, token signing) from
// the domain logic. It holds no storage: refresh token persistence is the auth
// service's concern.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/storefront/pkg/uuid"
)

var (
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for any other verification failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// AuthClaims represents the payload embedded inside every issued token.
type AuthClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email"`
}

// TokenKey is the signing secret and lifetime of one token kind.
// A zero TTL issues tokens without an expiry.
type TokenKey struct {
	Secret []byte
	TTL    time.Duration
}

// TokenService signs and verifies HS256 tokens, one key per [TokenKind].
type TokenService struct {
	keys   map[TokenKind]TokenKey
	issuer string
	now    func() time.Time
}

// NewTokenService creates a new TokenService.
//
// Every kind must have a non-empty secret. Distinct secrets keep a token of one
// kind from being accepted as another.
func NewTokenService(issuer string, keys map[TokenKind]TokenKey) (*TokenService, error) {
	for _, kind := range []TokenKind{KindAccess, KindRefresh, KindVerification} {
		key, ok := keys[kind]
		if !ok || len(key.Secret) == 0 {
			return nil, fmt.Errorf("sec: missing secret for %s tokens", kind)
		}
	}

	copied := make(map[TokenKind]TokenKey, len(keys))
	for kind, key := range keys {
		copied[kind] = key
	}

	return &TokenService{keys: copied, issuer: issuer, now: time.Now}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// TTL returns the configured lifetime of a kind.
func (service *TokenService) TTL(kind TokenKind) time.Duration {
	return service.keys[kind].TTL
}

// Issue signs a new token of the given kind for email.
func (service *TokenService) Issue(kind TokenKind, email string) (string, error) {
	key, ok := service.keys[kind]
	if !ok {
		return "", fmt.Errorf("sec: unknown token kind %q", kind)
	}

	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.New(),
			Subject:  email,
			Issuer:   service.issuer,
			IssuedAt: jwt.NewNumericDate(currentTime),
		},
		Email: email,
	}
	if key.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(currentTime.Add(key.TTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(key.Secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", kind, err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of a token against the kind's secret.
//
// It returns [ErrTokenExpired] when only the expiry failed and [ErrTokenInvalid]
// for every other failure (bad signature, wrong kind, malformed input).
func (service *TokenService) Verify(kind TokenKind, tokenString string) (*AuthClaims, error) {
	key, ok := service.keys[kind]
	if !ok {
		return nil, ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return key.Secret, nil
	},
		jwt.WithIssuer(service.issuer),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
