// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/respond"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var issuedAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTokens(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService("storefront-test", map[sec.TokenKind]sec.TokenKey{
		sec.KindAccess:       {Secret: []byte("access"), TTL: time.Minute},
		sec.KindRefresh:      {Secret: []byte("refresh")},
		sec.KindVerification: {Secret: []byte("verification"), TTL: time.Hour},
	})
	require.NoError(t, err)
	return service.WithClock(func() time.Time { return issuedAt })
}

func issue(t *testing.T, tokens *sec.TokenService, kind sec.TokenKind) string {
	t.Helper()
	token, err := tokens.Issue(kind, "a@b.com")
	require.NoError(t, err)
	return token
}

type liveSet map[string]bool

func (set liveSet) IsLive(_ context.Context, token string) (bool, error) {
	if token == "boom" {
		return false, errors.New("store down")
	}
	return set[token], nil
}

// echoIdentity writes the identity the guards attached.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	identity := ctxutil.GetIdentity(r.Context())
	respond.OK(w, map[string]any{
		"authenticated": identity.IsAuthenticated(),
		"email":         identity.Email,
		"kind":          identity.Kind,
	})
})

type echoed struct {
	Data struct {
		Authenticated bool   `json:"authenticated"`
		Email         string `json:"email"`
		Kind          string `json:"kind"`
	} `json:"data"`
}

func serve(handler http.Handler, authorization, target string) (*httptest.ResponseRecorder, echoed, respond.ErrorEnvelope) {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var ok echoed
	var failure respond.ErrorEnvelope
	_ = json.Unmarshal(recorder.Body.Bytes(), &ok)
	_ = json.Unmarshal(recorder.Body.Bytes(), &failure)
	return recorder, ok, failure
}

// ---------------------------------------------------------------------------
// AccessToken
// ---------------------------------------------------------------------------

/*
TestAccessToken covers the soft gate: absence is anonymous, presence must verify.
*/
func TestAccessToken(t *testing.T) {
	tokens := newTokens(t)
	guard := middleware.AccessToken(tokens)(echoIdentity)
	expired := middleware.AccessToken(tokens.WithClock(func() time.Time { return issuedAt.Add(2 * time.Minute) }))(echoIdentity)

	t.Run("anonymous", func(t *testing.T) {
		recorder, body, _ := serve(guard, "", "/")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.False(t, body.Data.Authenticated)
	})

	t.Run("valid", func(t *testing.T) {
		recorder, body, _ := serve(guard, "Bearer "+issue(t, tokens, sec.KindAccess), "/")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, body.Data.Authenticated)
		assert.Equal(t, "a@b.com", body.Data.Email)
		assert.Equal(t, "access", body.Data.Kind)
	})

	t.Run("expired", func(t *testing.T) {
		recorder, _, failure := serve(expired, "Bearer "+issue(t, tokens, sec.KindAccess), "/")
		assert.Equal(t, http.StatusGone, recorder.Code)
		assert.Equal(t, middleware.MsgTokenExpired, failure.Error)
	})

	t.Run("wrong_kind", func(t *testing.T) {
		recorder, _, _ := serve(guard, "Bearer "+issue(t, tokens, sec.KindRefresh), "/")
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("malformed_header", func(t *testing.T) {
		recorder, _, failure := serve(guard, "Token abc", "/")
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Equal(t, middleware.MsgTokenInvalid, failure.Error)
	})
}

func TestRequireIdentity(t *testing.T) {
	tokens := newTokens(t)
	guarded := middleware.AccessToken(tokens)(middleware.RequireIdentity(echoIdentity))

	recorder, _, _ := serve(guarded, "", "/")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder, body, _ := serve(guarded, "Bearer "+issue(t, tokens, sec.KindAccess), "/")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "a@b.com", body.Data.Email)
}

// ---------------------------------------------------------------------------
// RefreshToken
// ---------------------------------------------------------------------------

func TestRefreshToken(t *testing.T) {
	tokens := newTokens(t)
	live := issue(t, tokens, sec.KindRefresh)
	revoked := issue(t, tokens, sec.KindRefresh)
	guard := middleware.RefreshToken(tokens, liveSet{live: true})(echoIdentity)

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", http.StatusBadRequest, middleware.MsgTokenMissing},
		{"garbage", "Bearer nope", http.StatusForbidden, middleware.MsgTokenInvalid},
		{"access_token", "Bearer " + issue(t, tokens, sec.KindAccess), http.StatusForbidden, middleware.MsgTokenInvalid},
		{"revoked", "Bearer " + revoked, http.StatusForbidden, middleware.MsgTokenInvalid},
		{"live", "Bearer " + live, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, body, failure := serve(guard, tt.header, "/")
			assert.Equal(t, tt.status, recorder.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, failure.Error)
				return
			}
			assert.Equal(t, "refresh", body.Data.Kind)
		})
	}
}

func TestRefreshToken_CheckerFailure(t *testing.T) {
	tokens := newTokens(t)
	guard := middleware.RefreshToken(alwaysBoom{}, alwaysBoom{})(echoIdentity)

	recorder, _, _ := serve(guard, "Bearer "+issue(t, tokens, sec.KindRefresh), "/")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

// alwaysBoom verifies everything and forces the checker down its error path.
type alwaysBoom struct{}

func (alwaysBoom) Verify(_ sec.TokenKind, _ string) (*sec.AuthClaims, error) {
	return &sec.AuthClaims{Email: "a@b.com"}, nil
}

func (alwaysBoom) IsLive(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

// ---------------------------------------------------------------------------
// VerificationToken
// ---------------------------------------------------------------------------

/*
TestVerificationToken accepts the header or the query parameter and
classifies expiry separately from invalid tokens.
*/
func TestVerificationToken(t *testing.T) {
	tokens := newTokens(t)
	token := issue(t, tokens, sec.KindVerification)
	guard := middleware.VerificationToken(tokens)(echoIdentity)

	recorder, body, _ := serve(guard, "Bearer "+token, "/verify")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "verification", body.Data.Kind)

	recorder, body, _ = serve(guard, "", "/verify?token="+token)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "a@b.com", body.Data.Email)

	recorder, _, failure := serve(guard, "", "/verify")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, middleware.MsgTokenMissing, failure.Error)

	later := middleware.VerificationToken(tokens.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }))(echoIdentity)
	recorder, _, _ = serve(later, "", "/verify?token="+token)
	assert.Equal(t, http.StatusGone, recorder.Code)

	recorder, _, _ = serve(guard, "", "/verify?token="+issue(t, tokens, sec.KindAccess))
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

/*
TestVerificationToken_HeaderFallsBackToQuery covers a signed-in client that
opens its verification link while still sending its access token.

Expected:
  - An access token in the header with a valid link token passes.
  - A malformed header with a valid link token passes.
  - An access token without a link token is refused with 403.
  - An invalid link token is refused even when the header is valid for another kind.
*/
func TestVerificationToken_HeaderFallsBackToQuery(t *testing.T) {
	tokens := newTokens(t)
	link := issue(t, tokens, sec.KindVerification)
	access := issue(t, tokens, sec.KindAccess)
	guard := middleware.VerificationToken(tokens)(echoIdentity)

	recorder, body, _ := serve(guard, "Bearer "+access, "/verify?token="+link)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "verification", body.Data.Kind)

	recorder, body, _ = serve(guard, "Basic abc", "/verify?token="+link)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "a@b.com", body.Data.Email)

	recorder, _, failure := serve(guard, "Bearer "+access, "/verify")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, middleware.MsgTokenInvalid, failure.Error)

	recorder, _, _ = serve(guard, "Bearer "+access, "/verify?token="+access)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
