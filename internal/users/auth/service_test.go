// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/auth"
)

/*
TestRegister_StoresHashAndMailsLink verifies the stored row and the mailed link.

Expected:
  - One user row with a bcrypt hash of the password, verified=false, language=en.
  - One mail whose link carries the issued verification token.
*/
func TestRegister_StoresHashAndMailsLink(t *testing.T) {
	f := newFixture(t)

	registration := f.register(t, " Ada@Example.com", "secret")
	require.NotEmpty(t, registration.VerificationToken)
	assert.Equal(t, "ada@example.com", registration.User.Email)

	require.Equal(t, 1, f.base.Len(constants.TableUsers))
	record, err := recordstore.First(context.Background(), f.base.Table(constants.TableUsers), recordstore.Query{})
	require.NoError(t, err)

	hash := record.Fields.String(auth.ColumnHash)
	assert.NotEqual(t, "secret", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))
	assert.False(t, record.Fields.Bool(auth.ColumnVerified))
	assert.Equal(t, "en", record.Fields.String(auth.ColumnLanguage))

	message := f.outbox.last()
	assert.Equal(t, "ada@example.com", message.To)
	assert.Contains(t, message.Text, "https://shop.example/verify?token="+registration.VerificationToken)

	stored, err := f.redis.Get(constants.RedisPrefixVerifyToken + "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, registration.VerificationToken, stored)
	assert.Contains(t, f.events.events, "register:success")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@b.com", "secret")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Firstname: "Other", Lastname: "Person", Email: "A@B.com ", Password: "another",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
	assert.Equal(t, auth.MsgEmailInUse, apperr.As(err).Message)
	assert.Equal(t, 1, f.base.Len(constants.TableUsers))
	assert.Contains(t, f.events.events, "register:conflict")
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Firstname: "Ada", Lastname: "Lovelace", Email: "not-an-email", Password: "secret",
	})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.base.Len(constants.TableUsers))
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.outbox.err = errors.New("smtp down")

	registration := f.register(t, "a@b.com", "secret")
	assert.Empty(t, registration.VerificationToken)
	assert.Equal(t, 1, f.base.Len(constants.TableUsers))
}

/*
TestLogin_Rejections covers every credential failure.

Expected:
  - Unknown email and wrong password produce the same 403 message.
*/
func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t)
	f.verified(t, "known@b.com", "secret")
	f.register(t, "pending@b.com", "secret")

	tests := []struct {
		name        string
		input       auth.LoginInput
		wantStatus  int
		wantMessage string
	}{
		{"missing_password", auth.LoginInput{Email: "known@b.com"}, http.StatusBadRequest, auth.MsgMissingInput},
		{"missing_email", auth.LoginInput{Password: "secret"}, http.StatusBadRequest, auth.MsgMissingInput},
		{"unknown_email", auth.LoginInput{Email: "nobody@b.com", Password: "secret"}, http.StatusForbidden, auth.MsgBadCredentials},
		{"wrong_password", auth.LoginInput{Email: "known@b.com", Password: "nope"}, http.StatusForbidden, auth.MsgBadCredentials},
		{"unverified", auth.LoginInput{Email: "pending@b.com", Password: "secret"}, http.StatusForbidden, auth.MsgNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Login(context.Background(), tt.input, sec.AnonymousIdentity)
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, apperr.StatusOf(err))
			assert.Equal(t, tt.wantMessage, apperr.As(err).Message)
		})
	}

	// Missing input is refused before any account is looked at
	rejected := 0
	for _, event := range f.events.events {
		if event == "login:rejected" {
			rejected++
		}
	}
	assert.Equal(t, 3, rejected)
}

/*
TestLogin_RotatesRefreshTokens checks that each login revokes the previous refresh token.
*/
func TestLogin_RotatesRefreshTokens(t *testing.T) {
	f := newFixture(t)
	f.verified(t, "a@b.com", "secret")
	ctx := context.Background()

	first, err := f.service.Login(ctx, auth.LoginInput{Email: "A@b.com", Password: "secret"}, sec.AnonymousIdentity)
	require.NoError(t, err)
	assert.NotEmpty(t, first.AccessToken)
	assert.Equal(t, "a@b.com", first.User.Email)

	second, err := f.service.Login(ctx, auth.LoginInput{Email: "a@b.com", Password: "secret"}, sec.AnonymousIdentity)
	require.NoError(t, err)

	assert.Equal(t, 1, f.base.Len(constants.TableRefreshToken))

	live, err := f.service.IsLive(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.False(t, live)

	live, err = f.service.IsLive(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.True(t, live)
}

func TestLogin_RenewsAccessTokenWithoutCredentials(t *testing.T) {
	f := newFixture(t)
	access, err := f.tokens.Issue(sec.KindAccess, "a@b.com")
	require.NoError(t, err)

	session, err := f.service.Login(context.Background(), auth.LoginInput{}, f.identity(t, sec.KindAccess, access))
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Empty(t, session.RefreshToken)

	claims, err := f.tokens.Verify(sec.KindAccess, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
}

/*
TestConfirmVerification_Replay confirms once, then expects 409 on the same token.
*/
func TestConfirmVerification_Replay(t *testing.T) {
	f := newFixture(t)
	registration := f.register(t, "a@b.com", "secret")
	identity := f.identity(t, sec.KindVerification, registration.VerificationToken)

	require.NoError(t, f.service.ConfirmVerification(context.Background(), identity))

	err := f.service.ConfirmVerification(context.Background(), identity)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
	assert.Equal(t, auth.MsgAlreadyVerified, apperr.As(err).Message)

	assert.False(t, f.redis.Exists(constants.RedisPrefixVerifyToken+"a@b.com"))
	assert.Contains(t, f.events.events, "verify:conflict")
}

func TestConfirmVerification_Superseded(t *testing.T) {
	f := newFixture(t)
	registration := f.register(t, "a@b.com", "secret")

	latest, err := f.service.RequestVerification(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotEqual(t, registration.VerificationToken, latest)

	err = f.service.ConfirmVerification(context.Background(), f.identity(t, sec.KindVerification, registration.VerificationToken))
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
	assert.Equal(t, auth.MsgTokenSuperseded, apperr.As(err).Message)

	assert.NoError(t, f.service.ConfirmVerification(context.Background(), f.identity(t, sec.KindVerification, latest)))
}

/*
TestConfirmVerification_UndeliveredRetryKeepsLink verifies that a retry whose
mail never left does not invalidate the link the customer already holds.
*/
func TestConfirmVerification_UndeliveredRetryKeepsLink(t *testing.T) {
	f := newFixture(t)
	registration := f.register(t, "a@b.com", "secret")
	require.NotEmpty(t, registration.VerificationToken)

	f.outbox.err = errors.New("smtp down")
	_, err := f.service.RequestVerification(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperr.StatusOf(err))

	stored, found := f.redis.Get(constants.RedisPrefixVerifyToken + "a@b.com")
	require.NoError(t, found)
	assert.Equal(t, registration.VerificationToken, stored)

	assert.NoError(t, f.service.ConfirmVerification(context.Background(), f.identity(t, sec.KindVerification, registration.VerificationToken)))
}

func TestConfirmVerification_LedgerEntryExpired(t *testing.T) {
	f := newFixture(t)
	registration := f.register(t, "a@b.com", "secret")
	f.redis.Del(constants.RedisPrefixVerifyToken + "a@b.com")

	assert.NoError(t, f.service.ConfirmVerification(context.Background(), f.identity(t, sec.KindVerification, registration.VerificationToken)))
}

func TestConfirmVerification_UnknownUser(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(sec.KindVerification, "ghost@b.com")
	require.NoError(t, err)

	err = f.service.ConfirmVerification(context.Background(), f.identity(t, sec.KindVerification, token))
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
	assert.Equal(t, auth.MsgUserNotFound, apperr.As(err).Message)
}

func TestConfirmVerification_RequiresVerificationIdentity(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@b.com", "secret")
	access, err := f.tokens.Issue(sec.KindAccess, "a@b.com")
	require.NoError(t, err)

	err = f.service.ConfirmVerification(context.Background(), f.identity(t, sec.KindAccess, access))
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
}

func TestRequestVerification_States(t *testing.T) {
	f := newFixture(t)
	f.verified(t, "done@b.com", "secret")

	tests := []struct {
		name       string
		email      string
		wantStatus int
	}{
		{"empty", " ", http.StatusBadRequest},
		{"unknown", "nobody@b.com", http.StatusForbidden},
		{"already_verified", "done@b.com", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.RequestVerification(context.Background(), tt.email)
			assert.Equal(t, tt.wantStatus, apperr.StatusOf(err))
		})
	}
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.service.IssueRefreshToken(ctx, "a@b.com")
	require.NoError(t, err)
	_, err = f.service.IssueRefreshToken(ctx, "a@b.com")
	require.NoError(t, err)
	other, err := f.service.IssueRefreshToken(ctx, "c@d.com")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, f.identity(t, sec.KindRefresh, token)))

	live, err := f.service.IsLive(ctx, token)
	require.NoError(t, err)
	assert.False(t, live)

	live, err = f.service.IsLive(ctx, other)
	require.NoError(t, err)
	assert.True(t, live)
	assert.Equal(t, 1, f.base.Len(constants.TableRefreshToken))
}

func TestRefreshAccessToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RefreshAccessToken(context.Background(), sec.AnonymousIdentity)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	refresh, err := f.service.IssueRefreshToken(context.Background(), "a@b.com")
	require.NoError(t, err)

	access, err := f.service.RefreshAccessToken(context.Background(), f.identity(t, sec.KindRefresh, refresh))
	require.NoError(t, err)
	_, err = f.tokens.Verify(sec.KindAccess, access)
	assert.NoError(t, err)
}
