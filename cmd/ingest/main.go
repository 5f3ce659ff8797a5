// Command ingest runs the upload pipeline against a local file without the
// HTTP server, for backfills and scripted imports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cwhub/internal/config"
	"cwhub/internal/infrastructure"
	"cwhub/internal/period"
	"cwhub/internal/roster"
	"cwhub/internal/services"
	"cwhub/internal/store"
)

func main() {
	var (
		fromFlag = flag.String("from", "", "period start (2006-01-02) for rows without their own date")
		toFlag   = flag.String("to", "", "period end (2006-01-02) for rows without their own date")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [-from DATE -to DATE] <file.csv|file.xlsx>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *fromFlag, *toFlag); err != nil {
		slog.Error("ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(path, fromStr, toStr string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	var win *period.Window
	if fromStr != "" || toStr != "" {
		if fromStr == "" || toStr == "" {
			return fmt.Errorf("-from and -to must be given together")
		}
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fmt.Errorf("invalid -from date: %w", err)
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fmt.Errorf("invalid -to date: %w", err)
		}
		w := period.Custom(from, to)
		win = &w
	}

	var r *roster.Roster
	if chatters, err := roster.LoadCSV(cfg.Storage.RosterPath); err == nil {
		r = roster.New(chatters)
	} else {
		logger.Warn("roster unavailable, every unknown entity will be skipped",
			slog.String("error", err.Error()))
		r = roster.New(nil)
	}

	st, err := store.Open(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	svc := services.NewUploadService(st, r, cfg.Pipeline, logger)
	result, err := svc.ProcessUpload(context.Background(), path, data, win)
	if err != nil {
		return err
	}

	fmt.Printf("merged %d records (%d replaced), skipped %d rows, period %s..%s\n",
		result.Merged, result.Replaced, result.Skipped,
		result.PeriodStart.Format("2006-01-02"), result.PeriodEnd.Format("2006-01-02"))
	for _, name := range result.SkippedPreview {
		fmt.Printf("  skipped: %s\n", name)
	}
	for _, warn := range result.Warnings {
		fmt.Printf("  warning: %s\n", warn)
	}
	return nil
}
