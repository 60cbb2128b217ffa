// exportmd writes the archived document records to an XLSX workbook.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/dbott-health/meddocs-tracker/internal/archive"
	"github.com/dbott-health/meddocs-tracker/internal/common"
	"github.com/dbott-health/meddocs-tracker/internal/export"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	out := flag.String("o", "documents.xlsx", "output workbook path")
	flag.Parse()

	cfg := common.LoadConfig()
	ctx := context.Background()

	store, err := archive.Open(ctx, cfg.Archive.DSN, logger)
	if err != nil {
		logger.Error("failed to open archive", "error", err, "dsn", cfg.Archive.DSN)
		os.Exit(1)
	}
	defer store.Close()

	data, err := export.NewService(store, logger).ExportDocumentsXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("workbook written", "path", *out, "bytes", len(data))
}
