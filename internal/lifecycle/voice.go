package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbott-health/meddocs-tracker/constants"
	"github.com/dbott-health/meddocs-tracker/internal/common"
	"github.com/dbott-health/meddocs-tracker/internal/entity"
)

// Transcriber converts a stored audio note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

const (
	defaultVoiceTickInterval = 400 * time.Millisecond
	voiceTickStep            = 20
)

// VoiceNoteController mirrors DocumentController for audio notes: a simpler
// recording, uploading, processing, done pipeline with no extraction step.
// Upload progress is simulated at a fixed cadence from the scheduler.
type VoiceNoteController struct {
	log          *slog.Logger
	transcriber  Transcriber
	scheduler    Scheduler
	tickInterval time.Duration

	mu      sync.Mutex
	notes   map[uuid.UUID]*entity.VoiceNoteRecord
	stops   map[uuid.UUID]func()
	subs    map[int]chan entity.VoiceNoteRecord
	nextSub int
}

func NewVoiceNoteController(transcriber Transcriber, scheduler Scheduler, logger *slog.Logger) *VoiceNoteController {
	if logger == nil {
		logger = slog.Default()
	}
	if scheduler == nil {
		scheduler = TickerScheduler{}
	}
	return &VoiceNoteController{
		log:          logger,
		transcriber:  transcriber,
		scheduler:    scheduler,
		tickInterval: defaultVoiceTickInterval,
		notes:        make(map[uuid.UUID]*entity.VoiceNoteRecord),
		stops:        make(map[uuid.UUID]func()),
		subs:         make(map[int]chan entity.VoiceNoteRecord),
	}
}

// StartRecording registers a new note in RECORDING and returns its id.
func (c *VoiceNoteController) StartRecording() uuid.UUID {
	rec := &entity.VoiceNoteRecord{
		ID:         uuid.New(),
		Status:     constants.VoiceRecording,
		RecordedAt: time.Now(),
	}
	c.mu.Lock()
	c.notes[rec.ID] = rec
	c.broadcast(rec.Clone())
	c.mu.Unlock()

	c.log.Info("voice.recording.start", "note_id", rec.ID)
	return rec.ID
}

// FinishRecording attaches the captured file and starts the simulated
// upload. Progress advances by a fixed step on every scheduler tick; when it
// reaches 100 the note moves to PROCESSING and transcription begins.
func (c *VoiceNoteController) FinishRecording(ctx context.Context, id uuid.UUID, path string, durationSeconds int) error {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AudioExtensions[ext]; !ok {
		return common.NewAppError("VOICE_FILE_TYPE", fmt.Sprintf("extension %q not accepted", ext), common.ErrUnsupportedFile)
	}

	ok := c.mutate(id, func(rec *entity.VoiceNoteRecord) bool {
		if rec.Status != constants.VoiceRecording {
			return false
		}
		zero := 0
		rec.Status = constants.VoiceUploading
		rec.UploadProgress = &zero
		rec.SourcePath = path
		rec.DurationSeconds = durationSeconds
		return true
	})
	if !ok {
		return common.NewAppError("VOICE_NOT_RECORDING", id.String(), common.ErrUnknownRecord)
	}

	stop := c.scheduler.Schedule(c.tickInterval, func() {
		c.tick(ctx, id)
	})
	c.mu.Lock()
	c.stops[id] = stop
	c.mu.Unlock()
	return nil
}

// tick advances simulated upload progress by one step. Ticks after the note
// left UPLOADING are no-ops, so a late timer fire cannot resurrect progress.
func (c *VoiceNoteController) tick(ctx context.Context, id uuid.UUID) {
	var reached bool
	c.mutate(id, func(rec *entity.VoiceNoteRecord) bool {
		if rec.Status != constants.VoiceUploading || rec.UploadProgress == nil {
			return false
		}
		p := *rec.UploadProgress + voiceTickStep
		if p >= 100 {
			p = 100
			reached = true
		}
		rec.UploadProgress = &p
		return true
	})
	if !reached {
		return
	}

	c.stopTicks(id)
	ok := c.mutate(id, func(rec *entity.VoiceNoteRecord) bool {
		if rec.Status != constants.VoiceUploading {
			return false
		}
		rec.Status = constants.VoiceProcessing
		rec.UploadProgress = nil
		rec.StorageRef = rec.SourcePath
		return true
	})
	if !ok {
		return
	}
	go c.processNote(ctx, id)
}

func (c *VoiceNoteController) processNote(ctx context.Context, id uuid.UUID) {
	rec, ok := c.Get(id)
	if !ok {
		return
	}
	text, err := c.transcriber.Transcribe(ctx, rec.SourcePath)
	if err != nil {
		c.log.Error("voice.transcribe.failed", "note_id", id, "error", err)
		msg := fmt.Sprintf("transcription failed: %v", err)
		c.mutate(id, func(rec *entity.VoiceNoteRecord) bool {
			if rec.Status.Terminal() {
				return false
			}
			rec.Status = constants.VoiceError
			rec.ErrorInfo = &msg
			now := time.Now()
			rec.CompletedAt = &now
			return true
		})
		return
	}

	c.mutate(id, func(rec *entity.VoiceNoteRecord) bool {
		if rec.Status != constants.VoiceProcessing {
			return false
		}
		rec.Status = constants.VoiceDone
		rec.Transcript = &text
		now := time.Now()
		rec.CompletedAt = &now
		return true
	})
	c.log.Info("voice.transcribe.ok", "note_id", id)
}

// Cancel removes id while it is still recording or uploading.
func (c *VoiceNoteController) Cancel(id uuid.UUID) error {
	c.mu.Lock()
	rec, ok := c.notes[id]
	if !ok {
		c.mu.Unlock()
		return common.NewAppError("VOICE_CANCEL_UNKNOWN", id.String(), common.ErrUnknownRecord)
	}
	if rec.Status != constants.VoiceRecording && rec.Status != constants.VoiceUploading {
		status := rec.Status
		c.mu.Unlock()
		return common.NewAppError("VOICE_CANCEL_FORBIDDEN", fmt.Sprintf("status %s does not permit cancel", status), common.ErrInvalidInput)
	}
	delete(c.notes, id)
	stop := c.stops[id]
	delete(c.stops, id)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.log.Info("voice.cancel", "note_id", id)
	return nil
}

func (c *VoiceNoteController) stopTicks(id uuid.UUID) {
	c.mu.Lock()
	stop := c.stops[id]
	delete(c.stops, id)
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Get returns a copy of one note.
func (c *VoiceNoteController) Get(id uuid.UUID) (entity.VoiceNoteRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.notes[id]
	if !ok {
		return entity.VoiceNoteRecord{}, false
	}
	return rec.Clone(), true
}

// Snapshot returns copies of all notes.
func (c *VoiceNoteController) Snapshot() []entity.VoiceNoteRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.VoiceNoteRecord, 0, len(c.notes))
	for _, rec := range c.notes {
		out = append(out, rec.Clone())
	}
	return out
}

// Subscribe mirrors DocumentController.Subscribe for voice notes.
func (c *VoiceNoteController) Subscribe() (<-chan entity.VoiceNoteRecord, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan entity.VoiceNoteRecord, 64)
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

func (c *VoiceNoteController) broadcast(snap entity.VoiceNoteRecord) {
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *VoiceNoteController) mutate(id uuid.UUID, fn func(rec *entity.VoiceNoteRecord) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.notes[id]
	if !ok {
		return false
	}
	if !fn(rec) {
		return false
	}
	c.broadcast(rec.Clone())
	return true
}
