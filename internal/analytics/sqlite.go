package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/appraise-tools/appraise/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// openSQLite opens (or creates) the embedded file-based backend.
func openSQLite(ctx context.Context, dbPath string) (service.AnalyticsStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, connectionError(fmt.Errorf("failed to create database directory: %w", err))
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, connectionError(err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, connectionError(err)
	}

	if err := initSchema(ctx, db, KindSQLite); err != nil {
		_ = db.Close()
		return nil, connectionError(err)
	}

	return &sqlStore{db: db, kind: KindSQLite}, nil
}
