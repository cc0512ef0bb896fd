// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the storefront HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the record store (postgres runs migrations first).
//  4. Connect to Redis when configured.
//  5. Wire token service, mailer and domain handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/storefront/internal/api"
	"github.com/taibuivan/storefront/internal/catalog/product"
	"github.com/taibuivan/storefront/internal/platform/config"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/mail"
	"github.com/taibuivan/storefront/internal/platform/metrics"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/migration"
	pgstore "github.com/taibuivan/storefront/internal/platform/postgres"
	"github.com/taibuivan/storefront/internal/platform/recordstore"
	"github.com/taibuivan/storefront/internal/platform/recordstore/airtable"
	"github.com/taibuivan/storefront/internal/platform/recordstore/memory"
	recordpg "github.com/taibuivan/storefront/internal/platform/recordstore/postgres"
	redisstore "github.com/taibuivan/storefront/internal/platform/redis"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/account"
	"github.com/taibuivan/storefront/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "storefront"))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "storefront"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("record_store", cfg.RecordStoreDriver),
	)

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	collectors := metrics.New()

	// ── 3. Record Store ───────────────────────────────────────────────────
	base, closeBase, err := openRecordStore(startupCtx, cfg, log, collectors)
	must(log, err, "open record store")
	defer closeBase()

	checks := []api.HealthCheck{{Name: base.Name(), Ping: base.Ping}}

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var ledger auth.VerificationLedger = auth.NewRecordVerificationLedger(base)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		ledger = auth.NewRedisVerificationLedger(rdb)
		checks = append(checks, api.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}})
	}

	// ── 5. Security & Mail ────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(constants.AuthIssuer, map[sec.TokenKind]sec.TokenKey{
		sec.KindAccess:       {Secret: []byte(cfg.AccessSecretKey), TTL: cfg.AccessExpiration},
		sec.KindRefresh:      {Secret: []byte(cfg.RefreshSecretKey), TTL: cfg.RefreshExpiration},
		sec.KindVerification: {Secret: []byte(cfg.VerificationSecretKey), TTL: cfg.VerificationExpiration},
	})
	must(log, err, "initialize token service")

	var mailer mail.Sender = mail.NewLogSender(log)
	if cfg.SMTPHost != "" {
		smtpSender, err := mail.NewSMTPSender(mail.SMTPOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		must(log, err, "initialize smtp sender")
		mailer = smtpSender
	}
	log.Info("mail_sender_selected", slog.String("sender", mailer.Name()))

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(
		auth.NewUserRepository(base),
		auth.NewRefreshTokenRepository(base),
		ledger,
		tokens,
		sec.NewPasswordHasher(cfg.SaltRounds),
		mailer,
		auth.Options{ClientBaseURL: cfg.ClientBaseURL, Events: collectors},
	)

	accountService := account.NewService(account.NewRepository(base), log)
	productService := product.NewService(product.NewRepository(base))

	liveness, readiness := api.NewHealthHandlers(checks, log)

	limiter := middleware.NewRateLimiter(constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst)
	go limiter.Run(rootCtx, constants.RateLimitCleanupInterval)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, api.Dependencies{
		Limiter: limiter,
		Metrics: collectors,
		Guards: auth.Guards{
			Access:       middleware.AccessToken(tokens),
			Refresh:      middleware.RefreshToken(tokens, authService),
			Verification: middleware.VerificationToken(tokens),
		},
	}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, cfg.ExposeVerificationToken),
		Account:   account.NewHandler(accountService),
		Product:   product.NewHandler(productService),
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	rootCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// openRecordStore builds the configured backend. The returned func releases it.
func openRecordStore(ctx context.Context, cfg *config.Config, log *slog.Logger, collectors *metrics.Metrics) (recordstore.Base, func(), error) {
	switch cfg.RecordStoreDriver {
	case config.DriverPostgres:
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return nil, nil, err
		}

		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return recordpg.New(pool), func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}, nil

	case config.DriverAirtable:
		return airtable.New(airtable.Options{
			APIKey:        cfg.AirtableAPIKey,
			BaseID:        cfg.AirtableBaseID,
			EndpointURL:   cfg.AirtableEndpointURL,
			Logger:        log,
			OnStateChange: collectors.ObserveBreaker,
		}), func() {}, nil

	case config.DriverMemory:
		log.Warn("memory_record_store_in_use", slog.String("note", "data is lost on restart"))
		return memory.New(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown record store driver %q", cfg.RecordStoreDriver)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
