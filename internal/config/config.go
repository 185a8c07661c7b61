// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"CRM_DB_PATH" envDefault:"./data/crm.db"`
	SessionSecret string `env:"CRM_SESSION_SECRET,required"`
	ServerHost    string `env:"CRM_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CRM_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CRM_ENV" envDefault:"development"`
	LogLevel      string `env:"CRM_LOG_LEVEL" envDefault:"info"`

	// BaseURL is the public URL of the site, used to build links in
	// notification emails.
	BaseURL string `env:"CRM_BASE_URL" envDefault:"http://localhost:8080"`

	// Notification configuration. Email sending is skipped entirely when
	// the API key is empty.
	AutosendAPIKey string `env:"AUTOSEND_API_KEY"`
	SenderEmail    string `env:"AUTOSEND_SENDER_EMAIL" envDefault:"noreply@yourdomain.com"`
	SenderName     string `env:"AUTOSEND_SENDER_NAME" envDefault:"Admissions CRM"`
	AdminEmail     string `env:"CRM_ADMIN_EMAIL" envDefault:"admin@example.com"`

	// DigestSchedule is the cron expression for the daily new-lead digest.
	// Empty disables the digest.
	DigestSchedule string `env:"CRM_DIGEST_SCHEDULE" envDefault:"0 8 * * *"`

	// Seeding configuration
	DoSeed bool `env:"CRM_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// NotificationsEnabled returns true if the email provider is configured.
func (c Config) NotificationsEnabled() bool {
	return c.AutosendAPIKey != ""
}

// DigestEnabled returns true if the daily digest is configured.
func (c Config) DigestEnabled() bool {
	return c.DigestSchedule != "" && c.NotificationsEnabled()
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("CRM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("CRM_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("CRM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
