// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/storefront/internal/platform/mail"
	"github.com/taibuivan/storefront/internal/platform/recordstore/memory"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/auth"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var issuedAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// outbox records delivered mail instead of sending it.
type outbox struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (box *outbox) Name() string { return "outbox" }

func (box *outbox) Send(_ context.Context, message mail.Message) error {
	box.mu.Lock()
	defer box.mu.Unlock()
	if box.err != nil {
		return box.err
	}
	box.messages = append(box.messages, message)
	return nil
}

func (box *outbox) last() mail.Message {
	box.mu.Lock()
	defer box.mu.Unlock()
	if len(box.messages) == 0 {
		return mail.Message{}
	}
	return box.messages[len(box.messages)-1]
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (log *eventLog) AuthEvent(event, outcome string) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.events = append(log.events, event+":"+outcome)
}

type fixture struct {
	base    *memory.Store
	service *auth.Service
	tokens  *sec.TokenService
	outbox  *outbox
	events  *eventLog
	redis   *miniredis.Miniredis
	now     time.Time
}

// newFixture wires the service onto an in-memory record store and a miniredis ledger.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		base:   memory.New(),
		outbox: &outbox{},
		events: &eventLog{},
		redis:  miniredis.RunT(t),
		now:    issuedAt,
	}

	tokens, err := sec.NewTokenService("storefront-test", map[sec.TokenKind]sec.TokenKey{
		sec.KindAccess:       {Secret: []byte("access"), TTL: time.Minute},
		sec.KindRefresh:      {Secret: []byte("refresh")},
		sec.KindVerification: {Secret: []byte("verification"), TTL: time.Hour},
	})
	require.NoError(t, err)
	f.tokens = tokens.WithClock(func() time.Time { return f.now })

	client := redis.NewClient(&redis.Options{Addr: f.redis.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f.service = auth.NewService(
		auth.NewUserRepository(f.base),
		auth.NewRefreshTokenRepository(f.base),
		auth.NewRedisVerificationLedger(client),
		f.tokens,
		sec.NewPasswordHasher(bcrypt.MinCost),
		f.outbox,
		auth.Options{ClientBaseURL: "https://shop.example/", Events: f.events},
	)
	return f
}

func (f *fixture) register(t *testing.T, email, password string) *auth.Registration {
	t.Helper()
	registration, err := f.service.Register(context.Background(), auth.RegisterInput{
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)
	return registration
}

// identity verifies a token the way the guards do and returns what they attach.
func (f *fixture) identity(t *testing.T, kind sec.TokenKind, token string) sec.Identity {
	t.Helper()
	claims, err := f.tokens.Verify(kind, token)
	require.NoError(t, err)
	return sec.Identity{State: sec.Authenticated, Email: claims.Email, Kind: kind, Token: token}
}

// verified registers an account and confirms it.
func (f *fixture) verified(t *testing.T, email, password string) {
	t.Helper()
	registration := f.register(t, email, password)
	require.NoError(t, f.service.ConfirmVerification(context.Background(),
		f.identity(t, sec.KindVerification, registration.VerificationToken)))
}
