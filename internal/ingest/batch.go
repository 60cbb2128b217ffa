package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dbott-health/meddocs-tracker/constants"
	"github.com/dbott-health/meddocs-tracker/internal/common"
)

// Submitter is the slice of the document controller that ingest needs.
type Submitter interface {
	Submit(ctx context.Context, path string) (uuid.UUID, error)
}

// SubmitBatch submits up to constants.MaxBatchSize files. An oversized batch
// is rejected outright before any file is submitted; per-file validation
// failures do not block the rest of the batch.
func SubmitBatch(ctx context.Context, s Submitter, paths []string) ([]uuid.UUID, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if len(paths) > constants.MaxBatchSize {
		return nil, common.NewAppError("BATCH_LIMIT",
			fmt.Sprintf("%d files exceeds the limit of %d per batch", len(paths), constants.MaxBatchSize),
			common.ErrBatchLimit)
	}

	var ids []uuid.UUID
	var errs []error
	for _, p := range paths {
		id, err := s.Submit(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// Run pumps watcher events into the submitter until events closes or ctx is
// cancelled. Validation failures are logged and dropped; the watcher keeps
// running.
func Run(ctx context.Context, events <-chan string, s Submitter, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			id, err := s.Submit(ctx, path)
			if err != nil {
				logger.Warn("ingest.submit.rejected", "path", path, "error", err)
				continue
			}
			logger.Info("ingest.submit.ok", "path", path, "doc_id", id)
		}
	}
}
