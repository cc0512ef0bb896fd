// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey holds the context keys shared by middleware and handlers.
// Only [ctxutil] should read or write them.
package ctxkey

type key uint8

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = iota + 1

	// KeyIdentity carries the guard result ([sec.Identity]).
	KeyIdentity

	// KeyLogger carries the per-request [*log/slog.Logger].
	KeyLogger
)
