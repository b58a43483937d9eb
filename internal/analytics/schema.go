package analytics

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creation is idempotent so open can run on every process start.
// Concurrent writers rely on the backend's native transaction isolation;
// no locking is layered above it. Activity logs carry no foreign key so
// events can be recorded without a parent session row.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		input_mode TEXT NOT NULL,
		used_ai BOOLEAN NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL DEFAULT '',
		total_score INTEGER,
		ended_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		event_type TEXT NOT NULL,
		detail TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp)`,
	`CREATE TABLE IF NOT EXISTS daily_stats (
		date DATE PRIMARY KEY,
		session_count INTEGER NOT NULL DEFAULT 0,
		success_count INTEGER NOT NULL DEFAULT 0,
		average_score REAL NOT NULL DEFAULT 0,
		updated_at TIMESTAMP
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(36) PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		input_mode VARCHAR(10) NOT NULL,
		used_ai BOOLEAN NOT NULL DEFAULT FALSE,
		outcome VARCHAR(10) NOT NULL DEFAULT '',
		total_score INTEGER,
		ended_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id SERIAL PRIMARY KEY,
		session_id VARCHAR(36) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		detail TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp)`,
	`CREATE TABLE IF NOT EXISTS daily_stats (
		date DATE PRIMARY KEY,
		session_count INTEGER NOT NULL DEFAULT 0,
		success_count INTEGER NOT NULL DEFAULT 0,
		average_score REAL NOT NULL DEFAULT 0,
		updated_at TIMESTAMP
	)`,
}

func initSchema(ctx context.Context, db *sql.DB, kind Kind) error {
	schema := sqliteSchema
	if kind == KindPostgres {
		schema = postgresSchema
	}

	for _, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema object: %w", err)
		}
	}
	return nil
}
