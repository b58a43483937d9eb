// Package analysis implements the rubric-driven scoring pipeline: prompt
// construction, provider reply parsing, score aggregation, and report
// assembly.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appraise-tools/appraise/internal/llm"
	"github.com/appraise-tools/appraise/internal/model"
	"github.com/appraise-tools/appraise/internal/service"
)

// Deps holds the engine's collaborators. Client may be nil when AI
// analysis is disabled; Store must never be nil (use the in-memory store
// when no backend is reachable).
type Deps struct {
	Rubric  *model.Rubric
	Prompts *PromptBuilder
	Parser  *ResponseParser
	Client  llm.Client
	Store   service.AnalyticsStore
}

// Engine orchestrates one appraisal request end to end.
type Engine struct {
	deps Deps
}

// NewEngine validates dependencies and creates an engine.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Rubric == nil {
		return nil, fmt.Errorf("rubric is required")
	}
	if err := deps.Rubric.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rubric: %w", err)
	}
	if deps.Prompts == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	if deps.Parser == nil {
		return nil, fmt.Errorf("response parser is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("analytics store is required")
	}
	return &Engine{deps: deps}, nil
}

// Input describes one analysis request.
type Input struct {
	DocumentText string
	Mode         model.InputMode
}

// Run executes the scoring pipeline and always returns a report for
// syntactically valid input, possibly marked degraded. Telemetry writes
// are best-effort and never block the scoring path.
func (e *Engine) Run(ctx context.Context, input Input) (*model.AppraisalReport, error) {
	useAI := e.deps.Client != nil && strings.TrimSpace(input.DocumentText) != ""

	session := &model.Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		InputMode: input.Mode,
		UsedAI:    useAI,
	}

	sessionID, err := e.deps.Store.RecordSessionStart(ctx, session)
	if err != nil {
		slog.Warn("Failed to record session start, continuing without telemetry", "error", err)
		sessionID = session.ID
	}
	e.logActivity(ctx, sessionID, model.EventAnalysisStarted, string(input.Mode))

	prompt, err := e.deps.Prompts.BuildAppraisalPrompt(e.deps.Rubric, input.DocumentText)
	if err != nil {
		e.finishSession(ctx, sessionID, model.OutcomeFailure, nil)
		e.logActivity(ctx, sessionID, model.EventAnalysisFailed, "prompt build failed")
		return nil, fmt.Errorf("failed to build appraisal prompt: %w", err)
	}

	reply := ""
	providerFailed := false
	if useAI {
		e.logActivity(ctx, sessionID, model.EventProviderCalled, "")
		reply, err = e.deps.Client.Analyze(ctx, prompt.Text)
		if err != nil {
			// Single attempt only: a failed provider call degrades the
			// report instead of aborting or retrying.
			slog.Warn("Provider call failed, producing degraded report", "error", err)
			e.logActivity(ctx, sessionID, model.EventProviderFailed, err.Error())
			providerFailed = true
			reply = ""
		}
	}

	parsed := e.deps.Parser.Parse(reply)
	e.logActivity(ctx, sessionID, model.EventParseCompleted,
		fmt.Sprintf("confidence=%.2f", parsed.Confidence))

	agg := AggregateScores(e.deps.Rubric, parsed.Entries)

	report := &model.AppraisalReport{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		RubricName:      e.deps.Rubric.Name,
		GeneratedAt:     time.Now(),
		Entries:         agg.Entries,
		CategoryTotals:  agg.CategoryTotals,
		TotalScore:      agg.TotalScore,
		Reasoning:       parsed.Reasoning,
		Strengths:       parsed.Strengths,
		Weaknesses:      parsed.Weaknesses,
		Recommendations: parsed.Recommendations,
		ParseConfidence: parsed.Confidence,
		Truncated:       prompt.Truncated,
		UsedAI:          useAI && !providerFailed,
		Degraded:        agg.Degraded || providerFailed || !useAI || parsed.Confidence < 1,
	}

	if providerFailed {
		e.finishSession(ctx, sessionID, model.OutcomeFailure, nil)
		e.logActivity(ctx, sessionID, model.EventAnalysisFailed, "provider unavailable")
	} else {
		score := report.TotalScore
		e.finishSession(ctx, sessionID, model.OutcomeSuccess, &score)
		e.logActivity(ctx, sessionID, model.EventAnalysisCompleted,
			fmt.Sprintf("total=%d", report.TotalScore))
	}

	if err := e.deps.Store.UpdateDailyStats(ctx); err != nil {
		slog.Warn("Failed to update daily stats", "error", err)
	}

	return report, nil
}

func (e *Engine) finishSession(ctx context.Context, sessionID string, outcome model.Outcome, totalScore *int) {
	if err := e.deps.Store.RecordSessionEnd(ctx, sessionID, outcome, totalScore); err != nil {
		slog.Warn("Failed to record session end", "session_id", sessionID, "error", err)
	}
}

func (e *Engine) logActivity(ctx context.Context, sessionID, eventType, detail string) {
	entry := model.ActivityLogEntry{
		SessionID: sessionID,
		Timestamp: time.Now(),
		EventType: eventType,
		Detail:    detail,
	}
	if err := e.deps.Store.AppendActivity(ctx, entry); err != nil {
		slog.Warn("Failed to append activity", "event", eventType, "error", err)
	}
}
