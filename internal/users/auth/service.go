// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/mail"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/platform/validate"
)

// # Contracts & Types

// TokenIssuer signs and verifies the three token kinds.
type TokenIssuer interface {
	// Issue signs a token of the given kind for an email.
	Issue(kind sec.TokenKind, email string) (string, error)

	// TTL returns the configured lifetime of a kind. Zero means no expiry.
	TTL(kind sec.TokenKind) time.Duration
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Compare(plainTextPassword, existingHash string) bool
}

// EventRecorder counts authentication outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

// Options carries the settings of a [Service] that are not collaborators.
type Options struct {
	// ClientBaseURL prefixes verification links.
	ClientBaseURL string

	// Events receives one call per finished operation. Optional.
	Events EventRecorder
}

// Service implements registration, login, token refresh and email verification.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, credential
// checks or token issuance must be reviewed with the same care as the guards.
type Service struct {
	users         UserRepository
	refreshTokens RefreshTokenRepository
	ledger        VerificationLedger
	tokens        TokenIssuer
	hasher        PasswordHasher
	mailer        mail.Sender
	options       Options

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	users UserRepository,
	refreshTokens RefreshTokenRepository,
	ledger VerificationLedger,
	tokens TokenIssuer,
	hasher PasswordHasher,
	mailer mail.Sender,
	options Options,
) *Service {
	options.ClientBaseURL = strings.TrimRight(options.ClientBaseURL, "/")

	return &Service{
		users:         users,
		refreshTokens: refreshTokens,
		ledger:        ledger,
		tokens:        tokens,
		hasher:        hasher,
		mailer:        mailer,
		options:       options,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new customer.
type RegisterInput struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
}

// Registration is the outcome of a successful [Service.Register].
type Registration struct {
	User *User

	// VerificationToken is empty when the verification request failed.
	VerificationToken string
}

/*
Register validates, hashes, and persists a brand new user account, then
requests its email verification.

Description: Presence of every field is checked by the handler. A failure
to send the verification mail is logged and does not undo the account; the
customer can ask for a new link.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Registration: Created entity and issued verification token
  - error: ValidationError, Conflict (email in use) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Registration, error) {
	email := validate.CanonicalEmail(input.Email)

	validator := &validate.Validator{}
	validator.Email(FieldEmail, email).
		MaxLen(FieldFirstname, input.Firstname, 100).
		MaxLen(FieldLastname, input.Lastname, 100).
		Custom(FieldPassword, len(input.Password) > 72, "Maximum 72 bytes")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Plain-text passwords never reach storage
	hash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	created, err := service.users.Create(context, &User{
		Firstname: strings.TrimSpace(input.Firstname),
		Lastname:  strings.TrimSpace(input.Lastname),
		Email:     email,
		Hash:      hash,
		Verified:  false,
		Language:  DefaultLanguage,
	})
	if errors.Is(err, recordstore.ErrDuplicate) {
		return nil, service.reject(eventRegister, apperr.Conflict(MsgEmailInUse).WithCause(err))
	}
	if err != nil {
		return nil, dberr.Wrap(err, "auth_service_register_failed")
	}

	registration := &Registration{User: created}

	token, err := service.sendVerification(context, created)
	if err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "verification_request_failed",
			slog.String("email", created.Email),
			slog.Any("error", err),
		)
	} else {
		registration.VerificationToken = token
	}

	service.record(eventRegister, outcomeSuccess)
	return registration, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginSession is the token set returned by [Service.Login].
// Only AccessToken is set when an access token was renewed without credentials.
type LoginSession struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

/*
Login validates credentials and issues an access and a refresh token.

Description: A request that carries no credentials but passed the access
guard gets a fresh access token for the same email. Otherwise both fields are
required. Unknown emails and wrong passwords share one message and one bcrypt
comparison. Existing refresh tokens of the email are revoked before the
verified check, so every successful credential check rotates them.

Parameters:
  - context: context.Context
  - input: LoginInput
  - identity: sec.Identity (from the access guard)

Returns:
  - *LoginSession: Issued tokens and the user
  - error: BadInput, Forbidden or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput, identity sec.Identity) (*LoginSession, error) {
	if input.Email == "" && input.Password == "" && identity.IsAuthenticated() {
		accessToken, err := service.tokens.Issue(sec.KindAccess, identity.Email)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("auth_service_issue_access_failed: %w", err))
		}
		service.record(eventLogin, outcomeSuccess)
		return &LoginSession{AccessToken: accessToken}, nil
	}

	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, apperr.BadInput(MsgMissingInput)
	}

	email := validate.CanonicalEmail(input.Email)

	user, err := service.users.FindByEmail(context, email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		// Same cost as a real comparison so response time does not reveal the account
		service.hasher.Compare(input.Password, service.dummy())
		return nil, service.reject(eventLogin, apperr.Forbidden(MsgBadCredentials))
	}
	if err != nil {
		return nil, dberr.Wrap(err, "auth_service_login_failed")
	}

	if !service.hasher.Compare(input.Password, user.Hash) {
		return nil, service.reject(eventLogin, apperr.Forbidden(MsgBadCredentials))
	}

	if err := service.refreshTokens.DeleteByEmail(context, user.Email); err != nil {
		return nil, dberr.Wrap(err, "auth_service_revoke_failed")
	}

	if !user.Verified {
		return nil, service.reject(eventLogin, apperr.Forbidden(MsgNotVerified))
	}

	accessToken, err := service.tokens.Issue(sec.KindAccess, user.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_issue_access_failed: %w", err))
	}

	refreshToken, err := service.IssueRefreshToken(context, user.Email)
	if err != nil {
		return nil, err
	}

	service.record(eventLogin, outcomeSuccess)
	return &LoginSession{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

/*
IssueRefreshToken signs a refresh token and records it as live.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Signed token
  - error: Signing or persistence failures
*/
func (service *Service) IssueRefreshToken(context context.Context, email string) (string, error) {
	token, err := service.tokens.Issue(sec.KindRefresh, email)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("auth_service_issue_refresh_failed: %w", err))
	}

	if err := service.refreshTokens.Create(context, token, email); err != nil {
		return "", dberr.Wrap(err, "auth_service_store_refresh_failed")
	}

	return token, nil
}

// IsLive reports whether a refresh token is still recorded. It backs the refresh guard.
func (service *Service) IsLive(context context.Context, token string) (bool, error) {
	live, err := service.refreshTokens.Exists(context, token)
	if err != nil {
		return false, dberr.Wrap(err, "auth_service_refresh_lookup_failed")
	}
	return live, nil
}

// RefreshAccessToken issues a new access token for a refresh-guarded identity.
func (service *Service) RefreshAccessToken(context context.Context, identity sec.Identity) (string, error) {
	if !identity.IsAuthenticated() {
		return "", apperr.Forbidden(MsgAuthRequired)
	}

	token, err := service.tokens.Issue(sec.KindAccess, identity.Email)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("auth_service_issue_access_failed: %w", err))
	}

	service.record(eventRefresh, outcomeSuccess)
	return token, nil
}

// Logout revokes every refresh token of the identity's email.
func (service *Service) Logout(context context.Context, identity sec.Identity) error {
	if !identity.IsAuthenticated() {
		return apperr.Forbidden(MsgAuthRequired)
	}

	if err := service.refreshTokens.DeleteByEmail(context, identity.Email); err != nil {
		return dberr.Wrap(err, "auth_service_logout_failed")
	}

	service.record(eventLogout, outcomeSuccess)
	return nil
}

// # Verification Flow

/*
RequestVerification issues a new verification token for an unverified account
and mails the link.

Description: The new token replaces any outstanding one in the ledger, so only
the latest link can confirm the account.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: The issued token
  - error: Forbidden (unknown user), Conflict (already verified) or delivery failures
*/
func (service *Service) RequestVerification(context context.Context, email string) (string, error) {
	email = validate.CanonicalEmail(email)
	if email == "" {
		return "", apperr.BadInput(MsgMissingEmailParam)
	}

	user, err := service.users.FindByEmail(context, email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return "", apperr.Forbidden(MsgUserNotFound)
	}
	if err != nil {
		return "", dberr.Wrap(err, "auth_service_request_verification_failed")
	}

	if user.Verified {
		return "", apperr.Conflict(MsgAlreadyVerified)
	}

	token, err := service.sendVerification(context, user)
	if err != nil {
		return "", dberr.Wrap(err, "auth_service_request_verification_failed")
	}

	return token, nil
}

/*
ConfirmVerification marks the identity's account as verified.

Description: The identity comes from the verification guard, which already
checked signature and expiry. The ledger decides whether the token is still
the outstanding one; a missing entry (e.g. expired from Redis) is accepted
because the token itself is still valid.

Parameters:
  - context: context.Context
  - identity: sec.Identity (Kind verification)

Returns:
  - error: Forbidden (unknown user or superseded token), Conflict (already verified)
*/
func (service *Service) ConfirmVerification(context context.Context, identity sec.Identity) error {
	if !identity.IsAuthenticated() || identity.Kind != sec.KindVerification {
		return apperr.Forbidden(MsgAuthRequired)
	}

	user, err := service.users.FindByEmail(context, identity.Email)
	if errors.Is(err, recordstore.ErrNoRecord) {
		return service.reject(eventVerify, apperr.Forbidden(MsgUserNotFound))
	}
	if err != nil {
		return dberr.Wrap(err, "auth_service_confirm_verification_failed")
	}

	if user.Verified {
		return service.reject(eventVerify, apperr.Conflict(MsgAlreadyVerified))
	}

	outstanding, found, err := service.ledger.Get(context, user.Email)
	if err != nil {
		return dberr.Wrap(err, "auth_service_ledger_get_failed")
	}
	if found && outstanding != identity.Token {
		return service.reject(eventVerify, apperr.Forbidden(MsgTokenSuperseded))
	}

	if err := service.users.MarkVerified(context, user.ID); err != nil {
		return dberr.Wrap(err, "auth_service_mark_verified_failed")
	}

	// The account is verified already; a stale entry only wastes a key until its TTL
	if err := service.ledger.Clear(context, user.Email); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "verification_ledger_clear_failed",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
	}

	service.record(eventVerify, outcomeSuccess)
	return nil
}

// # Internal Helpers

// sendVerification issues a token, mails the link and then records the token in the ledger.
func (service *Service) sendVerification(context context.Context, user *User) (string, error) {
	token, err := service.tokens.Issue(sec.KindVerification, user.Email)
	if err != nil {
		return "", fmt.Errorf("auth_service_issue_verification_failed: %w", err)
	}

	ctxutil.GetLogger(context).DebugContext(context, "verification_token_issued",
		slog.String("email", user.Email),
		slog.Int("token_length", len(token)),
	)

	message, err := mail.VerificationMessage(user.Email, user.Firstname, service.verificationLink(token))
	if err != nil {
		return "", fmt.Errorf("auth_service_render_mail_failed: %w", err)
	}

	if err := service.mailer.Send(context, message); err != nil {
		return "", fmt.Errorf("auth_service_send_mail_failed: %w", err)
	}

	// Only a delivered token may supersede the link the customer already holds
	if err := service.ledger.Put(context, user.Email, token, service.tokens.TTL(sec.KindVerification)); err != nil {
		return "", fmt.Errorf("auth_service_ledger_put_failed: %w", err)
	}

	return token, nil
}

func (service *Service) verificationLink(token string) string {
	return service.options.ClientBaseURL + constants.VerificationPath + "?" +
		constants.QueryToken + "=" + url.QueryEscape(token)
}

// dummy returns a hash compared against when the email is unknown.
func (service *Service) dummy() string {
	service.dummyOnce.Do(func() {
		service.dummyHash, _ = service.hasher.Hash("storefront-absent-account")
	})
	return service.dummyHash
}

// reject records a refused operation and returns its error. A 409 counts as
// a conflict, anything else as a rejection.
func (service *Service) reject(event string, err *apperr.AppError) error {
	outcome := outcomeRejected
	if apperr.StatusOf(err) == http.StatusConflict {
		outcome = outcomeConflict
	}
	service.record(event, outcome)
	return err
}

func (service *Service) record(event, outcome string) {
	if service.options.Events != nil {
		service.options.Events.AuthEvent(event, outcome)
	}
}
