// Package config resolves runtime configuration for the appraisal tool.
//
// Configuration is read once at startup from the environment (with an
// optional config file layered underneath) and handed to components as a
// value; nothing re-reads the environment afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/appraise-tools/appraise/internal/common"
)

// Config holds every setting the application reads. Zero values mean the
// corresponding capability is absent, not misconfigured: a missing AI key
// selects manual scoring mode and a missing database URL selects the
// local SQLite backend.
type Config struct {
	// GeminiAPIKey enables AI-assisted scoring when present.
	GeminiAPIKey string
	// DatabaseURL selects the PostgreSQL analytics backend when present.
	DatabaseURL string
	// AdminPasswordHash is the SHA-256 hex digest guarding the dashboard.
	AdminPasswordHash string
	// SQLitePath is where the local analytics database lives when no
	// DatabaseURL is set.
	SQLitePath string
	// Model overrides the default AI model name.
	Model string
	// MaxDocumentChars caps how much document text is sent per request.
	MaxDocumentChars int
	// RequestTimeout bounds a single AI provider call.
	RequestTimeout time.Duration
}

// Load resolves configuration from viper, which the CLI has already bound
// to flags, the environment, and an optional config file.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:      strings.TrimSpace(viper.GetString("gemini_api_key")),
		DatabaseURL:       strings.TrimSpace(viper.GetString("database_url")),
		AdminPasswordHash: strings.TrimSpace(viper.GetString("admin_password_hash")),
		SQLitePath:        ExpandPath(viper.GetString("analytics.sqlite_path")),
		Model:             viper.GetString("ai.model"),
		MaxDocumentChars:  viper.GetInt("ai.max_document_chars"),
		RequestTimeout:    viper.GetDuration("ai.request_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that are present but unusable. Absent optional
// values pass; they only narrow functionality.
func (c *Config) Validate() error {
	if c.AdminPasswordHash != "" {
		digest := strings.ToLower(c.AdminPasswordHash)
		if len(digest) != 64 || strings.Trim(digest, "0123456789abcdef") != "" {
			return fmt.Errorf("%w: admin password hash must be a 64-char hex SHA-256 digest", common.ErrInvalidConfig)
		}
	}
	if c.MaxDocumentChars < 0 {
		return fmt.Errorf("%w: max document chars must not be negative", common.ErrInvalidConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// AIEnabled reports whether an AI provider key is configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

// ExpandPath resolves a leading ~ and any $VAR references in a configured
// file path, so the SQLite location can live under the user's home.
func ExpandPath(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
