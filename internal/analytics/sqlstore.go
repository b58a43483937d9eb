package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/appraise-tools/appraise/internal/model"
)

const dateLayout = "2006-01-02"

// opTimeout bounds every store round-trip. A hung backend must surface as
// a failed telemetry write, never stall the scoring pipeline.
const opTimeout = 5 * time.Second

// sqlStore implements service.AnalyticsStore over database/sql for both
// relational backends; dialect differences stay in schema.go and the
// small helpers below.
type sqlStore struct {
	db   *sql.DB
	kind Kind
}

// Kind returns the physical backend of this store.
func (s *sqlStore) Kind() Kind {
	return s.kind
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// opCtx derives the bounded context used for a single store operation.
func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// dateExpr returns the SQL expression truncating a timestamp column to its
// calendar day in the store's dialect.
func (s *sqlStore) dateExpr(col string) string {
	if s.kind == KindPostgres {
		return col + "::date"
	}
	return "DATE(" + col + ")"
}

// RecordSessionStart inserts a new session row. Inserting the same ID
// twice is harmless.
func (s *sqlStore) RecordSessionStart(ctx context.Context, session *model.Session) (string, error) {
	if session == nil {
		return "", fmt.Errorf("session is required")
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	var query string
	if s.kind == KindPostgres {
		query = `INSERT INTO sessions (session_id, started_at, input_mode, used_ai, outcome)
			VALUES (?, ?, ?, ?, '') ON CONFLICT (session_id) DO NOTHING`
	} else {
		query = `INSERT OR IGNORE INTO sessions (session_id, started_at, input_mode, used_ai, outcome)
			VALUES (?, ?, ?, ?, '')`
	}

	opctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(opctx, rebind(s.kind, query),
		session.ID, session.StartedAt.UTC(), string(session.InputMode), session.UsedAI)
	if err != nil {
		return "", connectionError(err)
	}
	return session.ID, nil
}

// RecordSessionEnd closes a session exactly once. The outcome guard makes
// replays a no-op after the first success.
func (s *sqlStore) RecordSessionEnd(ctx context.Context, sessionID string, outcome model.Outcome, totalScore *int) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	var score sql.NullInt64
	if totalScore != nil {
		score = sql.NullInt64{Int64: int64(*totalScore), Valid: true}
	}

	query := `UPDATE sessions SET outcome = ?, total_score = ?, ended_at = ?
		WHERE session_id = ? AND outcome = ''`
	opctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(opctx, rebind(s.kind, query),
		string(outcome), score, time.Now().UTC(), sessionID)
	if err != nil {
		return connectionError(err)
	}
	return nil
}

// AppendActivity inserts an append-only activity row.
func (s *sqlStore) AppendActivity(ctx context.Context, entry model.ActivityLogEntry) error {
	if entry.SessionID == "" {
		return fmt.Errorf("entry session ID is required")
	}
	if entry.EventType == "" {
		return fmt.Errorf("entry event type is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `INSERT INTO activity_logs (session_id, timestamp, event_type, detail)
		VALUES (?, ?, ?, ?)`
	opctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(opctx, rebind(s.kind, query),
		entry.SessionID, entry.Timestamp.UTC(), entry.EventType, entry.Detail)
	if err != nil {
		return connectionError(err)
	}
	return nil
}

// UpdateDailyStats recomputes and upserts the rollup row for today.
func (s *sqlStore) UpdateDailyStats(ctx context.Context) error {
	opctx, cancel := opCtx(ctx)
	defer cancel()
	ctx = opctx

	today := dateOf(time.Now()).Format(dateLayout)

	query := fmt.Sprintf(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(CASE WHEN outcome = 'success' THEN total_score END), 0)
		FROM sessions WHERE %s = ?`, s.dateExpr("started_at"))

	var sessionCount, successCount int
	var averageScore float64
	err := s.db.QueryRowContext(ctx, rebind(s.kind, query), today).
		Scan(&sessionCount, &successCount, &averageScore)
	if err != nil {
		return connectionError(err)
	}

	upsert := `INSERT INTO daily_stats (date, session_count, success_count, average_score, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			session_count = excluded.session_count,
			success_count = excluded.success_count,
			average_score = excluded.average_score,
			updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, rebind(s.kind, upsert),
		today, sessionCount, successCount, averageScore, time.Now().UTC())
	if err != nil {
		return connectionError(err)
	}
	return nil
}

// QueryStats returns daily rollups for the inclusive date range. When no
// rollup rows are materialized it aggregates on the fly from session rows,
// which remain the source of truth.
func (s *sqlStore) QueryStats(ctx context.Context, from, to time.Time) ([]model.DailyStat, error) {
	opctx, cancel := opCtx(ctx)
	defer cancel()
	ctx = opctx

	fromDay := dateOf(from).Format(dateLayout)
	toDay := dateOf(to).Format(dateLayout)

	query := `SELECT date, session_count, success_count, average_score
		FROM daily_stats WHERE date >= ? AND date <= ? ORDER BY date`
	stats, err := s.collectStats(ctx, rebind(s.kind, query), fromDay, toDay)
	if err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		return stats, nil
	}

	fallback := fmt.Sprintf(`SELECT %[1]s AS day, COUNT(*),
		COALESCE(SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(CASE WHEN outcome = 'success' THEN total_score END), 0)
		FROM sessions
		WHERE %[1]s >= ? AND %[1]s <= ?
		GROUP BY day ORDER BY day`, s.dateExpr("started_at"))
	return s.collectStats(ctx, rebind(s.kind, fallback), fromDay, toDay)
}

func (s *sqlStore) collectStats(ctx context.Context, query string, args ...any) ([]model.DailyStat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, connectionError(err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.DailyStat
	for rows.Next() {
		var raw any
		var stat model.DailyStat
		if err := rows.Scan(&raw, &stat.SessionCount, &stat.SuccessCount, &stat.AverageScore); err != nil {
			return nil, connectionError(err)
		}
		day, err := coerceDate(raw)
		if err != nil {
			return nil, err
		}
		stat.Date = day
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, connectionError(err)
	}
	return stats, nil
}

// coerceDate normalizes the date column across drivers: lib/pq returns
// time.Time, SQLite expressions return text.
func coerceDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return dateOf(d), nil
	case []byte:
		return time.Parse(dateLayout, string(d))
	case string:
		return time.Parse(dateLayout, d)
	default:
		return time.Time{}, fmt.Errorf("unexpected date column type %T", v)
	}
}

// RecentActivities returns the newest activity entries first.
func (s *sqlStore) RecentActivities(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT session_id, timestamp, event_type, COALESCE(detail, '')
		FROM activity_logs ORDER BY timestamp DESC LIMIT ?`
	opctx, cancel := opCtx(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(opctx, rebind(s.kind, query), limit)
	if err != nil {
		return nil, connectionError(err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ActivityLogEntry
	for rows.Next() {
		var e model.ActivityLogEntry
		if err := rows.Scan(&e.SessionID, &e.Timestamp, &e.EventType, &e.Detail); err != nil {
			return nil, connectionError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, connectionError(err)
	}
	return entries, nil
}

// Summary returns the all-time usage summary. Sessions without a final
// score are excluded from the average but included in the counts.
func (s *sqlStore) Summary(ctx context.Context) (*model.SummaryStats, error) {
	opctx, cancel := opCtx(ctx)
	defer cancel()
	ctx = opctx

	stats := &model.SummaryStats{}

	query := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome = 'failure' THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(CASE WHEN outcome = 'success' THEN total_score END), 0)
		FROM sessions`
	err := s.db.QueryRowContext(ctx, query).
		Scan(&stats.TotalSessions, &stats.SuccessCount, &stats.FailureCount, &stats.AverageScore)
	if err != nil {
		return nil, connectionError(err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs`).
		Scan(&stats.TotalActivities); err != nil {
		return nil, connectionError(err)
	}

	today := dateOf(time.Now()).Format(dateLayout)
	sessionsToday := fmt.Sprintf(`SELECT COUNT(*) FROM sessions WHERE %s = ?`, s.dateExpr("started_at"))
	if err := s.db.QueryRowContext(ctx, rebind(s.kind, sessionsToday), today).
		Scan(&stats.TodaySessions); err != nil {
		return nil, connectionError(err)
	}

	activitiesToday := fmt.Sprintf(`SELECT COUNT(*) FROM activity_logs WHERE %s = ?`, s.dateExpr("timestamp"))
	if err := s.db.QueryRowContext(ctx, rebind(s.kind, activitiesToday), today).
		Scan(&stats.TodayActivities); err != nil {
		return nil, connectionError(err)
	}

	return stats, nil
}
