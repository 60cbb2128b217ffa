package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/dbott-health/meddocs-tracker/constants"
)

// VoiceNoteRecord tracks one captured audio note. It mirrors DocumentRecord
// but has no extraction step; Transcript is the analog of extracted data.
type VoiceNoteRecord struct {
	ID              uuid.UUID                 `json:"id"`
	SourcePath      string                    `json:"source_path"`
	Status          constants.VoiceNoteStatus `json:"status"`
	UploadProgress  *int                      `json:"upload_progress,omitempty"`
	DurationSeconds int                       `json:"duration_seconds"`
	StorageRef      string                    `json:"storage_ref,omitempty"`
	Transcript      *string                   `json:"transcript,omitempty"`
	ErrorInfo       *string                   `json:"error_info,omitempty"`
	RecordedAt      time.Time                 `json:"recorded_at"`
	CompletedAt     *time.Time                `json:"completed_at,omitempty"`
}

// Clone returns a copy safe to hand to observers.
func (v VoiceNoteRecord) Clone() VoiceNoteRecord {
	out := v
	out.UploadProgress = clonePtr(v.UploadProgress)
	out.Transcript = clonePtr(v.Transcript)
	out.ErrorInfo = clonePtr(v.ErrorInfo)
	out.CompletedAt = clonePtr(v.CompletedAt)
	return out
}
