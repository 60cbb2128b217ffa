// Package lifecycle owns the in-memory record collections and drives each
// submitted artifact through its state machine.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbott-health/meddocs-tracker/constants"
	"github.com/dbott-health/meddocs-tracker/internal/analysis"
	"github.com/dbott-health/meddocs-tracker/internal/common"
	"github.com/dbott-health/meddocs-tracker/internal/entity"
	"github.com/dbott-health/meddocs-tracker/internal/extract"
	"github.com/dbott-health/meddocs-tracker/internal/format"
	"github.com/dbott-health/meddocs-tracker/internal/upload"
)

// DocumentController coordinates queue, upload, analysis and extraction for
// submitted documents. All record mutation goes through a single mutex so a
// snapshot taken after any transition reflects that transition fully.
type DocumentController struct {
	log      *slog.Logger
	engine   *extract.Engine
	uploader upload.Uploader
	analyzer analysis.Analyzer

	mu      sync.Mutex
	docs    map[uuid.UUID]*entity.DocumentRecord
	cancels map[uuid.UUID]context.CancelFunc
	subs    map[int]chan entity.DocumentRecord
	nextSub int
}

func NewDocumentController(engine *extract.Engine, uploader upload.Uploader, analyzer analysis.Analyzer, logger *slog.Logger) *DocumentController {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentController{
		log:      logger,
		engine:   engine,
		uploader: uploader,
		analyzer: analyzer,
		docs:     make(map[uuid.UUID]*entity.DocumentRecord),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
		subs:     make(map[int]chan entity.DocumentRecord),
	}
}

// Submit validates path, creates a queued record and returns its id.
// Processing proceeds asynchronously; validation failures surface here
// synchronously and leave no record behind.
func (c *DocumentController) Submit(ctx context.Context, path string) (uuid.UUID, error) {
	info, err := os.Stat(path)
	if err != nil {
		return uuid.Nil, common.NewAppError("SUBMIT_STAT", fmt.Sprintf("stat %s", path), err)
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return uuid.Nil, common.NewAppError("SUBMIT_FILE_TYPE", fmt.Sprintf("extension %q not accepted", ext), common.ErrUnsupportedFile)
	}
	if info.Size() > constants.MaxUploadBytes {
		return uuid.Nil, common.NewAppError("SUBMIT_FILE_SIZE", fmt.Sprintf("%d bytes exceeds limit", info.Size()), common.ErrFileTooLarge)
	}

	rec := &entity.DocumentRecord{
		ID:          uuid.New(),
		Filename:    filepath.Base(path),
		SourcePath:  path,
		FileExt:     ext,
		FileSize:    info.Size(),
		Status:      constants.DocQueued,
		SubmittedAt: time.Now(),
	}
	procCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.docs[rec.ID] = rec
	c.cancels[rec.ID] = cancel
	snap := rec.Clone()
	c.broadcast(snap)
	c.mu.Unlock()

	c.log.Info("lifecycle.submit", "doc_id", rec.ID, "filename", rec.Filename, "bytes", rec.FileSize)
	go c.process(procCtx, rec.ID, path, ext)
	return rec.ID, nil
}

// process drives one record through upload and, for images, analysis. It is
// the only goroutine that advances this record, so its transitions for the
// id are strictly ordered.
func (c *DocumentController) process(ctx context.Context, id uuid.UUID, path, ext string) {
	ok := c.transition(id, constants.DocUploading, func(rec *entity.DocumentRecord) {
		zero := 0
		rec.UploadProgress = &zero
	})
	if !ok {
		return // cancelled before upload began
	}

	ref, err := c.uploader.Upload(ctx, path, func(p int) {
		c.applyProgress(id, p)
	})
	if err != nil {
		c.log.Error("lifecycle.upload.failed", "doc_id", id, "error", err)
		c.fail(id, fmt.Sprintf("upload failed: %v", err))
		return
	}
	c.log.Info("lifecycle.upload.ok", "doc_id", id, "ref", ref)

	if !constants.IsImageExt(ext) {
		// Non-image payloads are stored without an analysis pass.
		c.transition(id, constants.DocDone, func(rec *entity.DocumentRecord) {
			rec.StorageRef = ref
			rec.Meta = placeholderMeta(rec.Filename, "Stored without analysis")
		})
		c.log.Info("lifecycle.skip_analysis", "doc_id", id, "ext", ext)
		return
	}

	ok = c.transition(id, constants.DocExtracting, func(rec *entity.DocumentRecord) {
		rec.StorageRef = ref
	})
	if !ok {
		return // cancelled while uploading
	}

	res, err := c.analyzer.Analyze(ctx, path)
	if err != nil {
		c.log.Warn("lifecycle.analysis.unreachable", "doc_id", id, "error", err)
		c.degrade(id, fmt.Sprintf("analysis unavailable: %v", err))
		return
	}
	if !res.Success {
		c.log.Warn("lifecycle.analysis.declined", "doc_id", id, "message", res.Message)
		c.degrade(id, "analysis failed: "+res.Message)
		return
	}

	extracted := c.engine.Extract(res.AnalysisText)
	c.transition(id, constants.DocDone, func(rec *entity.DocumentRecord) {
		text := res.AnalysisText
		rec.RawAnalysisText = &text
		rec.Extracted = &extracted
		rec.Meta = metaFromExtracted(extracted, rec.Filename)
	})
	c.log.Info("lifecycle.analysis.ok", "doc_id", id)
}

// Cancel removes id while it is still queued or uploading. Removal makes
// any in-flight completion for the id a no-op.
func (c *DocumentController) Cancel(id uuid.UUID) error {
	c.mu.Lock()
	rec, ok := c.docs[id]
	if !ok {
		c.mu.Unlock()
		return common.NewAppError("CANCEL_UNKNOWN", id.String(), common.ErrUnknownRecord)
	}
	if rec.Status != constants.DocQueued && rec.Status != constants.DocUploading {
		status := rec.Status
		c.mu.Unlock()
		return common.NewAppError("CANCEL_FORBIDDEN", fmt.Sprintf("status %s does not permit cancel", status), common.ErrInvalidInput)
	}
	delete(c.docs, id)
	cancel := c.cancels[id]
	delete(c.cancels, id)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.log.Info("lifecycle.cancel", "doc_id", id)
	return nil
}

// AttachMetadata applies a user edit to a completed record. Identity fields
// are applied to the extracted record when one exists; metadata fields apply
// unconditionally and clear the placeholder flag.
func (c *DocumentController) AttachMetadata(id uuid.UUID, patch entity.MetadataPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.docs[id]
	if !ok {
		return common.NewAppError("METADATA_UNKNOWN", id.String(), common.ErrUnknownRecord)
	}
	if rec.Status != constants.DocDone {
		return common.NewAppError("METADATA_FORBIDDEN", fmt.Sprintf("status %s does not permit edits", rec.Status), common.ErrInvalidInput)
	}

	if rec.Meta == nil {
		rec.Meta = &entity.DocumentMeta{DocumentType: constants.OtherDocument}
	}
	if patch.Title != nil {
		rec.Meta.Title = *patch.Title
		rec.Meta.Placeholder = false
	}
	if patch.DocumentType != nil {
		rec.Meta.DocumentType = *patch.DocumentType
		rec.Meta.Placeholder = false
	}
	if patch.Description != nil {
		rec.Meta.Description = *patch.Description
		rec.Meta.Placeholder = false
	}

	if rec.Extracted != nil {
		applyIdentityPatch(rec.Extracted, patch)
	} else if hasIdentityFields(patch) {
		c.log.Debug("lifecycle.metadata.identity_skipped", "doc_id", id)
	}

	c.broadcast(rec.Clone())
	return nil
}

func applyIdentityPatch(m *entity.MedicalRecord, patch entity.MetadataPatch) {
	if patch.PatientName != nil {
		m.PatientName = patch.PatientName
	}
	if patch.Age != nil {
		m.Age = patch.Age
	}
	if patch.Sex != nil {
		m.Sex = patch.Sex
	}
	if patch.Date != nil {
		m.Date = patch.Date
	}
	if patch.DoctorName != nil {
		m.DoctorName = patch.DoctorName
	}
	if patch.Hospital != nil {
		m.HospitalName = patch.Hospital
	}
}

func hasIdentityFields(p entity.MetadataPatch) bool {
	return p.PatientName != nil || p.Age != nil || p.Sex != nil ||
		p.Date != nil || p.DoctorName != nil || p.Hospital != nil
}

// Get returns a copy of one record.
func (c *DocumentController) Get(id uuid.UUID) (entity.DocumentRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.docs[id]
	if !ok {
		return entity.DocumentRecord{}, false
	}
	return rec.Clone(), true
}

// Snapshot returns copies of all records ordered by submission time.
func (c *DocumentController) Snapshot() []entity.DocumentRecord {
	c.mu.Lock()
	out := make([]entity.DocumentRecord, 0, len(c.docs))
	for _, rec := range c.docs {
		out = append(out, rec.Clone())
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// Subscribe returns a channel receiving a record copy after every state
// change, plus an unsubscribe function. Slow consumers miss updates rather
// than blocking the pipeline.
func (c *DocumentController) Subscribe() (<-chan entity.DocumentRecord, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan entity.DocumentRecord, 64)
	key := c.nextSub
	c.nextSub++
	c.subs[key] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[key]; ok {
			delete(c.subs, key)
			close(ch)
		}
	}
}

// broadcast fans a snapshot out to subscribers. Callers must hold c.mu.
func (c *DocumentController) broadcast(snap entity.DocumentRecord) {
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// mutate applies fn to the record under lock and broadcasts the result when
// fn reports a change. Unknown ids are a no-op, which is what makes late
// completions after Cancel safe.
func (c *DocumentController) mutate(id uuid.UUID, fn func(rec *entity.DocumentRecord) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.docs[id]
	if !ok {
		return false
	}
	if !fn(rec) {
		return false
	}
	if rec.Status.Terminal() {
		delete(c.cancels, id)
	}
	c.broadcast(rec.Clone())
	return true
}

// transition advances id to the target status. Moves that would rewind the
// pipeline or leave a terminal state are rejected.
func (c *DocumentController) transition(id uuid.UUID, to constants.DocumentStatus, extra func(rec *entity.DocumentRecord)) bool {
	return c.mutate(id, func(rec *entity.DocumentRecord) bool {
		if rec.Status.Terminal() || to.Rank() < rec.Status.Rank() {
			return false
		}
		rec.Status = to
		if to != constants.DocUploading {
			rec.UploadProgress = nil
		}
		if to.Terminal() {
			now := time.Now()
			rec.CompletedAt = &now
		}
		if extra != nil {
			extra(rec)
		}
		return true
	})
}

// applyProgress records an upload tick. Ticks are monotonic and capped;
// ticks arriving after the record left UPLOADING are no-ops.
func (c *DocumentController) applyProgress(id uuid.UUID, p int) {
	c.mutate(id, func(rec *entity.DocumentRecord) bool {
		if rec.Status != constants.DocUploading || p < 0 {
			return false
		}
		if p > 100 {
			p = 100
		}
		if rec.UploadProgress != nil && p <= *rec.UploadProgress {
			return false
		}
		rec.UploadProgress = &p
		return true
	})
}

// fail marks id terminally failed. Used for transport faults only.
func (c *DocumentController) fail(id uuid.UUID, msg string) {
	c.transition(id, constants.DocError, func(rec *entity.DocumentRecord) {
		rec.ErrorInfo = &msg
	})
}

// degrade completes id as DONE despite an analysis failure, attaching the
// diagnostic and a placeholder so consumers always see metadata.
func (c *DocumentController) degrade(id uuid.UUID, msg string) {
	c.transition(id, constants.DocDone, func(rec *entity.DocumentRecord) {
		rec.ErrorInfo = &msg
		rec.Meta = placeholderMeta(rec.Filename, msg)
	})
}

func placeholderMeta(filename, description string) *entity.DocumentMeta {
	return &entity.DocumentMeta{
		Title:        filename,
		DocumentType: constants.OtherDocument,
		Description:  description,
		Placeholder:  true,
	}
}

func metaFromExtracted(m entity.MedicalRecord, filename string) *entity.DocumentMeta {
	meta := &entity.DocumentMeta{
		Title:        filename,
		DocumentType: constants.OtherDocument,
		Description:  format.Summary(m),
	}
	if m.DocumentType != nil {
		meta.Title = *m.DocumentType
		if canon, ok := constants.CanonicalizeDocumentType(*m.DocumentType); ok {
			meta.DocumentType = canon
		}
	}
	return meta
}
