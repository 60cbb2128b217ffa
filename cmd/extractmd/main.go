// extractmd runs the extraction engine over an analysis-text file and
// prints the structured record plus its one-line summary.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dbott-health/meddocs-tracker/internal/extract"
	"github.com/dbott-health/meddocs-tracker/internal/format"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <analysis-text-file>\n", os.Args[0])
		os.Exit(2)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("failed to read input", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	rec := extract.NewEngine(logger).Extract(string(raw))

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Error("failed to encode record", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Println()
	fmt.Println(format.Summary(rec))
}
