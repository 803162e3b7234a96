package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/digestbot/digest/app/cfg"
	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
	"github.com/digestbot/digest/app/filter"
	"github.com/digestbot/digest/app/output"
	"github.com/digestbot/digest/app/pipeline"
	"github.com/digestbot/digest/app/sources"
	"github.com/digestbot/digest/app/state"
	"github.com/digestbot/digest/app/summarizer"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return exitOK
	}

	logLevel := slog.LevelInfo
	if appCfg.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	referenceDate, err := parseTargetDate(appCfg.Date)
	if err != nil {
		slog.Error("Invalid target date", "date", appCfg.Date, "error", err)
		return exitConfigError
	}

	slog.Info("Loading digest configuration", "path", appCfg.ConfigPath)
	digestConfig, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			slog.Error("Configuration error", "error", err)
			return exitConfigError
		}
		slog.Error("Failed to load configuration", "error", err)
		return exitFatal
	}

	stateStore, err := state.NewStore(appCfg.StateDir)
	if err != nil {
		slog.Error("Failed to load state", "error", err)
		return exitFatal
	}

	contentFilter, err := filter.New(digestConfig.Filters, stateStore, referenceDate)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return exitConfigError
	}

	client := sources.NewHTTPClient(time.Duration(appCfg.Timeout) * time.Second)
	runner := pipeline.NewRunner(digestConfig, contentFilter, stateStore, client, appCfg.UserAgent)

	slog.Info("Fetching content from sources", "sources", len(digestConfig.Sources))
	result := runner.Run(ctx)

	slog.Info("Summarizing content", "provider", digestConfig.Summarizer.Provider, "items", len(result.Items))
	summ, err := summarizer.New(ctx, digestConfig.Summarizer)
	if err != nil {
		slog.Error("Failed to initialize summarizer", "error", err)
		return exitFatal
	}

	summary, err := summ.Summarize(ctx, result.Items, result.Errors, result.TimeWindow)
	if err != nil {
		slog.Error("Summarization failed", "error", err)
		return exitFatal
	}

	metadata := buildMetadata(digestConfig, result, referenceDate)

	if appCfg.DryRun {
		printPreview(metadata, summary)
		return exitOK
	}

	slog.Info("Writing outputs", "outputs", len(digestConfig.Outputs))
	digestFile := ""
	for _, outputConfig := range digestConfig.Outputs {
		if outputConfig.Type == "markdown" && appCfg.OutputDir != "" {
			outputConfig.Config["path"] = filepath.Join(appCfg.OutputDir, "{date}.md")
		}

		writer, err := output.New(outputConfig)
		if err != nil {
			slog.Error("Failed to initialize output", "type", outputConfig.Type, "error", err)
			return exitFatal
		}

		location, err := writer.Write(ctx, summary, metadata, result.Items)
		if err != nil {
			slog.Error("Output failed", "type", outputConfig.Type, "error", err)
			return exitFatal
		}
		if location != "" && writer.Type() == "markdown" {
			digestFile = location
		}
	}

	stateStore.RecordRun(true, len(result.Items), digestFile)
	if err := stateStore.Save(); err != nil {
		slog.Error("Failed to save state", "error", err)
		return exitFatal
	}

	slog.Info("Digest generation complete", "items", len(result.Items), "errors", len(result.Errors))

	return exitOK
}

// parseTargetDate turns a YYYY-MM-DD backfill date into a reference date at
// the end of that day, UTC.
func parseTargetDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("use YYYY-MM-DD: %w", err)
	}

	endOfDay := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 0, time.UTC)
	return &endOfDay, nil
}

func buildMetadata(digestConfig *config.Config, result pipeline.Result, referenceDate *time.Time) digest.Metadata {
	now := time.Now().UTC()
	digestDate := now
	if referenceDate != nil {
		digestDate = *referenceDate
	}

	return digest.Metadata{
		Title:          digestConfig.Name,
		Date:           digestDate.Format("2006-01-02"),
		GeneratedAt:    now.Format(time.RFC3339),
		Config:         digestConfig.Slug,
		SourcesFetched: len(digestConfig.Sources) - len(result.Errors),
		SourcesFailed:  len(result.Errors),
		ItemsProcessed: len(result.Items),
		TimeWindow:     result.TimeWindow,
		Errors:         result.Errors,
	}
}

func printPreview(metadata digest.Metadata, summary string) {
	divider := "============================================================"
	fmt.Println()
	fmt.Println(divider)
	fmt.Println("DIGEST PREVIEW")
	fmt.Println(divider)
	fmt.Printf("Title: %s\n", metadata.Title)
	fmt.Printf("Date: %s\n", metadata.Date)
	fmt.Printf("Items: %d\n", metadata.ItemsProcessed)
	fmt.Printf("Errors: %d\n", metadata.SourcesFailed)
	fmt.Println(divider)
	fmt.Println(summary)
	fmt.Println(divider)
}
