// meddocsd watches a directory for medical documents, drives each through
// the upload/analysis pipeline and archives completed records.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbott-health/meddocs-tracker/internal/analysis"
	"github.com/dbott-health/meddocs-tracker/internal/archive"
	"github.com/dbott-health/meddocs-tracker/internal/common"
	"github.com/dbott-health/meddocs-tracker/internal/extract"
	"github.com/dbott-health/meddocs-tracker/internal/ingest"
	"github.com/dbott-health/meddocs-tracker/internal/lifecycle"
	"github.com/dbott-health/meddocs-tracker/internal/upload"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Ingest.WatchDir == "" {
		logger.Error("missing WATCH_DIR environment variable")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := archive.Open(ctx, cfg.Archive.DSN, logger)
	if err != nil {
		logger.Error("failed to open archive", "error", err, "dsn", cfg.Archive.DSN)
		os.Exit(1)
	}
	defer store.Close()

	uploader := upload.NewFSUploader(cfg.Storage.RootDir, cfg.Storage.ChunkSize, logger)
	analyzer := analysis.NewHTTPAnalyzer(cfg.Analyzer.BaseURL, cfg.Analyzer.APIKey, nil, logger)
	controller := lifecycle.NewDocumentController(extract.NewEngine(logger), uploader, analyzer, logger)

	updates, unsubscribe := controller.Subscribe()
	defer unsubscribe()
	go archive.Consume(ctx, updates, store, logger)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.Ingest.WatchDir,
		InitialScan: true,
		Debounce:    cfg.Ingest.DebounceInterval,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err, "root", cfg.Ingest.WatchDir)
		os.Exit(1)
	}
	go func() {
		for werr := range watchErrs {
			logger.Error("watcher error", "error", werr)
		}
	}()

	logger.Info("meddocsd watching", "root", cfg.Ingest.WatchDir, "analyzer", cfg.Analyzer.BaseURL)
	ingest.Run(ctx, events, controller, logger)

	logger.Info("meddocsd shutting down", "records", len(controller.Snapshot()))
}
