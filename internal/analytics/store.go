// Package analytics provides the durable usage-telemetry store with two
// interchangeable physical backends: an embedded SQLite database for local
// use and a networked PostgreSQL database for shared deployments. The
// backend is selected once at startup and never mixed within a run.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/appraise-tools/appraise/internal/common"
	"github.com/appraise-tools/appraise/internal/service"
)

// Kind identifies the physical backend of a store.
type Kind string

const (
	// KindSQLite is the embedded file-based backend.
	KindSQLite Kind = "sqlite"
	// KindPostgres is the networked relational backend.
	KindPostgres Kind = "postgres"
	// KindMemory is the in-process fallback used when no backend is
	// reachable; telemetry is best-effort, not safety-critical.
	KindMemory Kind = "memory"
)

// DefaultSQLitePath is where the embedded database lives when no explicit
// path is configured.
const DefaultSQLitePath = "analytics/usage_data.db"

// Config selects and configures the backend.
type Config struct {
	// DatabaseURL selects the Postgres backend when non-empty.
	DatabaseURL string
	// SQLitePath is the embedded database file path; defaults to
	// DefaultSQLitePath.
	SQLitePath string
}

// Kind returns the backend the configuration selects. The decision is made
// exactly once at startup and injected; no component re-inspects the
// environment later.
func (c Config) Kind() Kind {
	if c.DatabaseURL != "" {
		return KindPostgres
	}
	return KindSQLite
}

// Open establishes the configured backend and creates schema objects
// idempotently. It is safe to call on every process start.
func Open(ctx context.Context, cfg Config) (service.AnalyticsStore, error) {
	switch cfg.Kind() {
	case KindPostgres:
		return openPostgres(ctx, cfg.DatabaseURL)
	default:
		path := cfg.SQLitePath
		if path == "" {
			path = DefaultSQLitePath
		}
		return openSQLite(ctx, path)
	}
}

// OpenWithFallback opens the configured backend, degrading to an in-memory
// store with a warning when the backend is unreachable. The scoring
// pipeline must run and return a report even with analytics fully
// unavailable.
func OpenWithFallback(ctx context.Context, cfg Config) service.AnalyticsStore {
	store, err := Open(ctx, cfg)
	if err != nil {
		slog.Warn("Analytics backend unavailable, telemetry degraded to in-memory",
			"kind", cfg.Kind(),
			"error", err)
		return NewMemoryStore()
	}
	return store
}

// connectionError wraps a backend failure in the shared taxonomy.
func connectionError(err error) error {
	return fmt.Errorf("%w: %v", common.ErrConnection, err)
}

// rebind converts ?-style placeholders to the $n style Postgres expects.
func rebind(kind Kind, query string) string {
	if kind != KindPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dateOf truncates a timestamp to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
