package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appraise-tools/appraise/internal/model"
)

// MemoryStore is the in-process fallback backend used when neither
// relational backend is reachable. Records do not survive the process;
// that is acceptable because telemetry is best-effort.
type MemoryStore struct {
	sessions   map[string]*model.Session
	activities []model.ActivityLogEntry
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
	}
}

// RecordSessionStart stores a new session record.
func (m *MemoryStore) RecordSessionStart(_ context.Context, session *model.Session) (string, error) {
	if session == nil {
		return "", fmt.Errorf("session is required")
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.ID]; !exists {
		copied := *session
		m.sessions[session.ID] = &copied
	}
	return session.ID, nil
}

// RecordSessionEnd closes a session; replays after the first success are
// no-ops.
func (m *MemoryStore) RecordSessionEnd(_ context.Context, sessionID string, outcome model.Outcome, totalScore *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok || session.Outcome != "" {
		return nil
	}

	now := time.Now()
	session.Outcome = outcome
	session.EndedAt = &now
	if totalScore != nil {
		score := *totalScore
		session.TotalScore = &score
	}
	return nil
}

// AppendActivity records an activity event.
func (m *MemoryStore) AppendActivity(_ context.Context, entry model.ActivityLogEntry) error {
	if entry.SessionID == "" {
		return fmt.Errorf("entry session ID is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, entry)
	return nil
}

// QueryStats aggregates daily rollups on the fly from session records.
func (m *MemoryStore) QueryStats(_ context.Context, from, to time.Time) ([]model.DailyStat, error) {
	fromDay := dateOf(from)
	toDay := dateOf(to)

	m.mu.RLock()
	defer m.mu.RUnlock()

	type acc struct {
		sessions int
		success  int
		scoreSum int
		scored   int
	}
	byDay := make(map[time.Time]*acc)
	for _, s := range m.sessions {
		day := dateOf(s.StartedAt)
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		a := byDay[day]
		if a == nil {
			a = &acc{}
			byDay[day] = a
		}
		a.sessions++
		if s.Outcome == model.OutcomeSuccess {
			a.success++
			if s.TotalScore != nil {
				a.scoreSum += *s.TotalScore
				a.scored++
			}
		}
	}

	stats := make([]model.DailyStat, 0, len(byDay))
	for day, a := range byDay {
		stat := model.DailyStat{
			Date:         day,
			SessionCount: a.sessions,
			SuccessCount: a.success,
		}
		if a.scored > 0 {
			stat.AverageScore = float64(a.scoreSum) / float64(a.scored)
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date.Before(stats[j].Date) })
	return stats, nil
}

// UpdateDailyStats is a no-op: in-memory rollups are always derived on read.
func (m *MemoryStore) UpdateDailyStats(_ context.Context) error {
	return nil
}

// RecentActivities returns the newest activity entries first.
func (m *MemoryStore) RecentActivities(_ context.Context, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.activities)
	if limit > n {
		limit = n
	}
	out := make([]model.ActivityLogEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.activities[i])
	}
	return out, nil
}

// Summary returns the all-time usage summary.
func (m *MemoryStore) Summary(_ context.Context) (*model.SummaryStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &model.SummaryStats{
		TotalSessions:   len(m.sessions),
		TotalActivities: len(m.activities),
	}

	today := dateOf(time.Now())
	scoreSum, scored := 0, 0
	for _, s := range m.sessions {
		switch s.Outcome {
		case model.OutcomeSuccess:
			stats.SuccessCount++
			if s.TotalScore != nil {
				scoreSum += *s.TotalScore
				scored++
			}
		case model.OutcomeFailure:
			stats.FailureCount++
		}
		if dateOf(s.StartedAt).Equal(today) {
			stats.TodaySessions++
		}
	}
	for _, a := range m.activities {
		if dateOf(a.Timestamp).Equal(today) {
			stats.TodayActivities++
		}
	}
	if scored > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scored)
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
