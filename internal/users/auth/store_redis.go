// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storefront/internal/platform/constants"
)

// # Verification Ledger (Redis)

// RedisVerificationLedger implements [VerificationLedger] using Redis.
// Entries expire together with the token they hold.
type RedisVerificationLedger struct {
	client redis.UniversalClient
}

// NewRedisVerificationLedger creates a new Redis-backed VerificationLedger.
func NewRedisVerificationLedger(client redis.UniversalClient) *RedisVerificationLedger {
	return &RedisVerificationLedger{client: client}
}

/*
Put stores the token under the email key, replacing any previous one.

Parameters:
  - context: context.Context
  - email: string
  - token: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (ledger *RedisVerificationLedger) Put(context context.Context, email, token string, ttl time.Duration) error {

	// SET overwrites, so an older token is superseded atomically
	if err := ledger.client.Set(context, ledgerKey(email), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis_verify_token_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves the outstanding token for an email.

Description: An absent or expired key is reported as found=false, not as an error.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Token
  - bool: Whether an entry exists
  - error: Connectivity errors
*/
func (ledger *RedisVerificationLedger) Get(context context.Context, email string) (string, bool, error) {
	token, err := ledger.client.Get(context, ledgerKey(email)).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis_verify_token_get_failed: %w", err)
	}

	return token, true, nil
}

// Clear removes the email key.
func (ledger *RedisVerificationLedger) Clear(context context.Context, email string) error {
	if err := ledger.client.Del(context, ledgerKey(email)).Err(); err != nil {
		return fmt.Errorf("redis_verify_token_delete_failed: %w", err)
	}
	return nil
}

func ledgerKey(email string) string {
	return constants.RedisPrefixVerifyToken + email
}
