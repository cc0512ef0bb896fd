// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "github.com/taibuivan/storefront/internal/platform/redis"
)

func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := platformredis.NewClient(context.Background(), "redis://"+server.Addr()+"/0", logger)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, platformredis.Ping(context.Background(), client))

	server.Close()
	assert.Error(t, platformredis.Ping(context.Background(), client))
}

func TestNewClient_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := platformredis.NewClient(context.Background(), "not a url", logger)
	assert.ErrorContains(t, err, "invalid URL")

	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err = platformredis.NewClient(context.Background(), "redis://"+addr, logger)
	assert.ErrorContains(t, err, "ping failed")
}
