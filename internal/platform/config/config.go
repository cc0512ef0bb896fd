// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (record store, Redis, mailer) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Record store drivers.
const (
	DriverPostgres = "postgres"
	DriverAirtable = "airtable"
	DriverMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the storefront API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Record store selection
	RecordStoreDriver string `env:"RECORD_STORE_DRIVER" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Hosted record store (Airtable)
	AirtableAPIKey      string `env:"AIRTABLE_API_KEY"`
	AirtableBaseID      string `env:"AIRTABLE_BASE_ID"`
	AirtableEndpointURL string `env:"AIRTABLE_ENDPOINT_URL" envDefault:"https://api.airtable.com"`

	// Key-Value store (Redis). Empty keeps the verification ledger on the user row.
	RedisURL string `env:"REDIS_URL"`

	// Token signing, one secret and lifetime per kind
	AccessSecretKey        string        `env:"ACCESS_SECRET_KEY,required"`
	AccessExpiration       time.Duration `env:"ACCESS_EXPIRATION"       envDefault:"15m"`
	RefreshSecretKey       string        `env:"REFRESH_SECRET_KEY,required"`
	RefreshExpiration      time.Duration `env:"REFRESH_EXPIRATION"      envDefault:"720h"`
	VerificationSecretKey  string        `env:"VERIFICATION_SECRET_KEY,required"`
	VerificationExpiration time.Duration `env:"VERIFICATION_EXPIRATION" envDefault:"24h"`

	// SaltRounds is the bcrypt cost.
	SaltRounds int `env:"SALT_ROUNDS" envDefault:"10"`

	// ClientBaseURL prefixes verification links.
	ClientBaseURL string `env:"CLIENT_BASE_URL" envDefault:"http://localhost:3000"`

	// Cross-Origin Resource Sharing: comma separated origins, or "*".
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Outbound mail. Empty host selects the log-only sender.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"     envDefault:"no-reply@storefront.local"`

	// ExposeVerificationToken returns issued verification tokens in responses.
	ExposeVerificationToken bool `env:"EXPOSE_VERIFICATION_TOKEN" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the requirements that depend on the selected drivers.
func (c *Config) Validate() error {
	var errs []error

	switch c.RecordStoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres record store"))
		}
	case DriverAirtable:
		if c.AirtableAPIKey == "" || c.AirtableBaseID == "" {
			errs = append(errs, errors.New("AIRTABLE_API_KEY and AIRTABLE_BASE_ID are required for the airtable record store"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown RECORD_STORE_DRIVER %q", c.RecordStoreDriver))
	}

	if c.AccessSecretKey == c.RefreshSecretKey || c.AccessSecretKey == c.VerificationSecretKey || c.RefreshSecretKey == c.VerificationSecretKey {
		errs = append(errs, errors.New("ACCESS, REFRESH and VERIFICATION secret keys must differ"))
	}

	if c.AccessExpiration < 0 || c.RefreshExpiration < 0 || c.VerificationExpiration < 0 {
		errs = append(errs, errors.New("token expirations must not be negative"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsAnyOrigin reports whether CORS is open to every origin.
func (c *Config) AllowsAnyOrigin() bool {
	for _, origin := range c.CORSAllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return len(c.CORSAllowedOrigins) == 0
}

// AllowedOrigins returns the trimmed explicit origin list.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, origin := range c.CORSAllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
