package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appraise-tools/appraise/internal/analysis"
	"github.com/appraise-tools/appraise/internal/analytics"
	"github.com/appraise-tools/appraise/internal/common"
	"github.com/appraise-tools/appraise/internal/config"
	"github.com/appraise-tools/appraise/internal/llm"
	"github.com/appraise-tools/appraise/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Score a project document against the appraisal rubric",
		Long: `Score a project document against the 100-point appraisal rubric.

Reads document text from the given file, or from stdin when no file is
given. With GEMINI_API_KEY set the document is scored by the AI provider;
without it a degraded manual-mode report is produced with every criterion
at zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().Bool("json", false, "emit the report as JSON instead of text")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	documentText, mode, err := readDocument(args)
	if err != nil {
		return err
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

	var client llm.Client
	if cfg.AIEnabled() {
		client, err = llm.NewClient(llm.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.Model,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create provider client: %w", err)
		}
	} else {
		slog.Warn("GEMINI_API_KEY not set, running in degraded manual mode")
	}

	rubric := model.DefaultRubric()

	prompts, err := analysis.NewPromptBuilder(cfg.MaxDocumentChars)
	if err != nil {
		return fmt.Errorf("failed to create prompt builder: %w", err)
	}

	engine, err := analysis.NewEngine(analysis.Deps{
		Rubric:  rubric,
		Prompts: prompts,
		Parser:  analysis.NewResponseParser(rubric),
		Client:  client,
		Store:   store,
	})
	if err != nil {
		return err
	}

	report, err := engine.Run(ctx, analysis.Input{
		DocumentText: documentText,
		Mode:         mode,
	})
	if err != nil {
		return common.NewUserError("analysis failed", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	var rendered string
	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		rendered = string(data) + "\n"
	} else {
		rendered = analysis.FormatReportText(rubric, report)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(rendered), 0o600); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		slog.Info("Report written", "path", outputPath, "total", report.TotalScore)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

// readDocument loads the document text from the file argument or stdin.
// Files ending in .pdf are not parsed here; text must already be extracted.
func readDocument(args []string) (string, model.InputMode, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), model.InputModeText, nil
	}

	path := args[0]
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", "", fmt.Errorf("PDF input requires extracted text; convert to a text file first")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), model.InputModeText, nil
}
