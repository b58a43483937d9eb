package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/appraise-tools/appraise/internal/analytics"
	"github.com/appraise-tools/appraise/internal/auth"
	"github.com/appraise-tools/appraise/internal/common"
	"github.com/appraise-tools/appraise/internal/config"
	"github.com/appraise-tools/appraise/internal/model"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the password-gated usage dashboard",
		Long: `Show aggregate usage statistics: totals, success rate, a daily
trend, and recent activity. Access requires the admin password whose
SHA-256 digest is configured via ADMIN_PASSWORD_HASH.`,
		RunE: runStats,
	}

	cmd.Flags().String("password", "", "admin password (prompted when omitted)")
	cmd.Flags().Int("days", 30, "number of trailing days in the daily trend")
	cmd.Flags().Int("recent", 20, "number of recent activity entries to show")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.AdminPasswordHash == "" {
		return fmt.Errorf("%w: set ADMIN_PASSWORD_HASH to enable the dashboard", common.ErrMissingConfig)
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password, err = promptPassword(cmd)
		if err != nil {
			return err
		}
	}

	if err := auth.Check(password, cfg.AdminPasswordHash); err != nil {
		return fmt.Errorf("dashboard access denied: %w", err)
	}

	store := analytics.OpenWithFallback(ctx, analytics.Config{
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close analytics store", "error", err)
		}
	}()

	if err := store.AppendActivity(ctx, model.ActivityLogEntry{
		SessionID: uuid.New().String(),
		Timestamp: time.Now(),
		EventType: model.EventDashboardViewed,
	}); err != nil {
		slog.Warn("Failed to record dashboard view", "error", err)
	}

	dashboard := analytics.NewDashboard(store)
	out := cmd.OutOrStdout()

	summary, err := dashboard.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}

	fmt.Fprintln(out, "Usage Summary")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "Total sessions:    %d\n", summary.TotalSessions)
	fmt.Fprintf(out, "Total activities:  %d\n", summary.TotalActivities)
	fmt.Fprintf(out, "Succeeded:         %d\n", summary.SuccessCount)
	fmt.Fprintf(out, "Failed:            %d\n", summary.FailureCount)
	fmt.Fprintf(out, "Success rate:      %.1f%%\n", summary.SuccessRate)
	fmt.Fprintf(out, "Average score:     %.1f\n", summary.AverageScore)
	fmt.Fprintf(out, "Today:             %d sessions, %d activities\n",
		summary.TodaySessions, summary.TodayActivities)

	days, _ := cmd.Flags().GetInt("days")
	trend, err := dashboard.DailyTrend(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to load daily trend: %w", err)
	}

	fmt.Fprintf(out, "\nDaily Trend (last %d days)\n", days)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	if len(trend) == 0 {
		fmt.Fprintln(out, "(no activity in range)")
	}
	for _, day := range trend {
		fmt.Fprintf(out, "%s  sessions=%-4d success=%-4d avg=%.1f\n",
			day.Date.Format("2006-01-02"), day.SessionCount, day.SuccessCount, day.AverageScore)
	}

	limit, _ := cmd.Flags().GetInt("recent")
	recent, err := dashboard.RecentActivities(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load recent activities: %w", err)
	}

	fmt.Fprintf(out, "\nRecent Activity (last %d)\n", limit)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	if len(recent) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	for _, entry := range recent {
		line := fmt.Sprintf("%s  %s", entry.Timestamp.Format(time.RFC3339), entry.EventType)
		if entry.Detail != "" {
			line += "  " + entry.Detail
		}
		fmt.Fprintln(out, line)
	}

	return nil
}

// promptPassword reads the admin password from stdin. Input is echoed;
// running this on a shared terminal is the operator's call.
func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Admin password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
