package analytics

import (
	"context"
	"database/sql"
	"time"

	"github.com/appraise-tools/appraise/internal/common"
	"github.com/appraise-tools/appraise/internal/service"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// openPostgres connects to the networked relational backend. The ping is
// retried briefly because transient network failures are expected on
// shared deployments; after that the caller degrades to in-memory.
func openPostgres(ctx context.Context, databaseURL string) (service.AnalyticsStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, connectionError(err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = common.WithRetry(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second})
	if err != nil {
		_ = db.Close()
		return nil, connectionError(err)
	}

	if err := initSchema(ctx, db, KindPostgres); err != nil {
		_ = db.Close()
		return nil, connectionError(err)
	}

	return &sqlStore{db: db, kind: KindPostgres}, nil
}
