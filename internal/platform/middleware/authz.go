// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/respond"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// Guard failure messages.
const (
	MsgTokenMissing = "Token missing."
	MsgTokenInvalid = "Token invalid."
	MsgTokenExpired = "Token expired."
	MsgAuthRequired = "Authentication required."
)

// TokenVerifier checks a signed token of a given kind.
type TokenVerifier interface {
	Verify(kind sec.TokenKind, token string) (*sec.AuthClaims, error)
}

// RefreshTokenChecker reports whether a refresh token is still persisted, i.e.
// has not been revoked by logout or rotation.
type RefreshTokenChecker interface {
	IsLive(context context.Context, token string) (bool, error)
}

// AccessToken is a soft gate.
//
// # Flow
//  1. No Authorization header: the request continues as [sec.AnonymousIdentity].
//  2. A header is present: the token is verified against the access secret.
//  3. Invalid signature or format: 403. Expired: 410.
//  4. Success: an authenticated [sec.Identity] is attached to the context.
func AccessToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token, present, err := bearerToken(request)
			if !present {
				ctx := ctxutil.WithIdentity(request.Context(), sec.AnonymousIdentity)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			claims, err := verifier.Verify(sec.KindAccess, token)
			if err != nil {
				respond.Error(writer, request, tokenError(err))
				return
			}

			next.ServeHTTP(writer, request.WithContext(authenticate(request.Context(), claims, sec.KindAccess, token)))
		})
	}
}

// RequireIdentity is a hard gate mounted after [AccessToken]. Anonymous requests get 403.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !ctxutil.GetIdentity(request.Context()).IsAuthenticated() {
			respond.Error(writer, request, apperr.Forbidden(MsgAuthRequired))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RefreshToken is a hard gate.
//
// # Flow
//  1. No token: 400.
//  2. Signature check against the refresh secret: 403 invalid, 410 expired.
//  3. The token must still exist as a live row: 403 otherwise.
func RefreshToken(verifier TokenVerifier, checker RefreshTokenChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token, present, err := bearerToken(request)
			if !present {
				respond.Error(writer, request, apperr.BadInput(MsgTokenMissing))
				return
			}
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			claims, err := verifier.Verify(sec.KindRefresh, token)
			if err != nil {
				respond.Error(writer, request, tokenError(err))
				return
			}

			live, err := checker.IsLive(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !live {
				respond.Error(writer, request, apperr.Forbidden(MsgTokenInvalid))
				return
			}

			next.ServeHTTP(writer, request.WithContext(authenticate(request.Context(), claims, sec.KindRefresh, token)))
		})
	}
}

// VerificationToken is a hard gate. The token comes from the Authorization
// header or, for links opened from an email, the token query parameter.
// A header that does not carry a valid verification token (e.g. a signed-in
// client's access token) falls back to the query parameter when one is given.
// The check is stateless. Replay is stopped downstream by the verified flag
// and the verification ledger.
func VerificationToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			headerToken, inHeader, headerErr := bearerToken(request)
			queryToken := strings.TrimSpace(request.URL.Query().Get(constants.QueryToken))

			if !inHeader && queryToken == "" {
				respond.Error(writer, request, apperr.BadInput(MsgTokenMissing))
				return
			}

			failure := headerErr
			if inHeader && headerErr == nil {
				claims, err := verifier.Verify(sec.KindVerification, headerToken)
				if err == nil {
					next.ServeHTTP(writer, request.WithContext(authenticate(request.Context(), claims, sec.KindVerification, headerToken)))
					return
				}
				failure = tokenError(err)
			}

			if queryToken == "" {
				respond.Error(writer, request, failure)
				return
			}

			claims, err := verifier.Verify(sec.KindVerification, queryToken)
			if err != nil {
				respond.Error(writer, request, tokenError(err))
				return
			}

			next.ServeHTTP(writer, request.WithContext(authenticate(request.Context(), claims, sec.KindVerification, queryToken)))
		})
	}
}

// # Helpers

// bearerToken reads "Authorization: Bearer <token>". present is false only
// when the header is absent altogether.
func bearerToken(request *http.Request) (token string, present bool, err error) {
	header := strings.TrimSpace(request.Header.Get(constants.HeaderAuthorization))
	if header == "" {
		return "", false, nil
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", true, apperr.Forbidden(MsgTokenInvalid)
	}
	return token, true, nil
}

func tokenError(err error) *apperr.AppError {
	if errors.Is(err, sec.ErrTokenExpired) {
		return apperr.Gone(MsgTokenExpired).WithCause(err)
	}
	return apperr.Forbidden(MsgTokenInvalid).WithCause(err)
}

func authenticate(ctx context.Context, claims *sec.AuthClaims, kind sec.TokenKind, token string) context.Context {
	noteIdentity(ctx, claims.Email)
	return ctxutil.WithIdentity(ctx, sec.Identity{
		State: sec.Authenticated,
		Email: claims.Email,
		Kind:  kind,
		Token: token,
	})
}
