package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/dbott-health/meddocs-tracker/constants"
)

// DocumentRecord tracks one submitted document through the pipeline.
// It is owned and mutated exclusively by the lifecycle controller;
// everything handed out to observers is a copy.
type DocumentRecord struct {
	ID         uuid.UUID                `json:"id"`
	Filename   string                   `json:"filename"`
	SourcePath string                   `json:"source_path"`
	FileExt    string                   `json:"file_ext"`
	FileSize   int64                    `json:"file_size"`
	Status     constants.DocumentStatus `json:"status"`

	// UploadProgress is set only while Status == UPLOADING, in [0,100].
	UploadProgress *int `json:"upload_progress,omitempty"`

	// StorageRef is the transport's reference for the stored payload.
	StorageRef string `json:"storage_ref,omitempty"`

	// RawAnalysisText is present once the analysis call returned successfully.
	RawAnalysisText *string `json:"raw_analysis_text,omitempty"`

	// Extracted is present only when RawAnalysisText is present.
	Extracted *MedicalRecord `json:"extracted,omitempty"`

	// Meta is always non-nil once the record reaches DONE; on analysis
	// failure it carries a synthesized placeholder instead of extracted data.
	Meta *DocumentMeta `json:"meta,omitempty"`

	ErrorInfo *string `json:"error_info,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy safe to hand to observers.
func (d DocumentRecord) Clone() DocumentRecord {
	out := d
	out.UploadProgress = clonePtr(d.UploadProgress)
	out.RawAnalysisText = clonePtr(d.RawAnalysisText)
	out.ErrorInfo = clonePtr(d.ErrorInfo)
	out.CompletedAt = clonePtr(d.CompletedAt)
	if d.Extracted != nil {
		rec := d.Extracted.Clone()
		out.Extracted = &rec
	}
	if d.Meta != nil {
		meta := *d.Meta
		out.Meta = &meta
	}
	return out
}

// DocumentMeta is the UI-visible metadata object. Downstream consumers can
// rely on it being present on every completed record, even degraded ones.
type DocumentMeta struct {
	Title        string                 `json:"title"`
	DocumentType constants.DocumentType `json:"document_type"`
	Description  string                 `json:"description"`
	// Placeholder marks metadata synthesized after an analysis failure or
	// for files that skip analysis entirely.
	Placeholder bool `json:"placeholder"`
}

// MedicalRecord is the structured output of the extraction engine. Every
// field except OriginalText is optional; nil means the pattern did not
// match, never that the value is empty.
type MedicalRecord struct {
	PatientName *string `json:"patient_name,omitempty"`
	Age         *int    `json:"age,omitempty"`
	Sex         *string `json:"sex,omitempty"` // "male" | "female"

	Date         *string `json:"date,omitempty"` // free-form, not normalized
	DocumentType *string `json:"document_type,omitempty"`

	DoctorName          *string `json:"doctor_name,omitempty"`
	DoctorQualification *string `json:"doctor_qualification,omitempty"`
	HospitalName        *string `json:"hospital_name,omitempty"`

	Findings        *string  `json:"findings,omitempty"`
	Diagnosis       *string  `json:"diagnosis,omitempty"`
	Medications     []string `json:"medications,omitempty"` // source order, duplicates kept
	Recommendations *string  `json:"recommendations,omitempty"`

	// OriginalText is the full unmodified input, kept as an audit trail.
	OriginalText string `json:"original_text"`
}

// Clone returns a deep copy of the record.
func (m MedicalRecord) Clone() MedicalRecord {
	out := m
	out.PatientName = clonePtr(m.PatientName)
	out.Age = clonePtr(m.Age)
	out.Sex = clonePtr(m.Sex)
	out.Date = clonePtr(m.Date)
	out.DocumentType = clonePtr(m.DocumentType)
	out.DoctorName = clonePtr(m.DoctorName)
	out.DoctorQualification = clonePtr(m.DoctorQualification)
	out.HospitalName = clonePtr(m.HospitalName)
	out.Findings = clonePtr(m.Findings)
	out.Diagnosis = clonePtr(m.Diagnosis)
	out.Recommendations = clonePtr(m.Recommendations)
	if m.Medications != nil {
		out.Medications = append([]string(nil), m.Medications...)
	}
	return out
}

// MetadataPatch is a user-driven override applied to a completed record.
// Nil fields are left untouched.
type MetadataPatch struct {
	Title        *string
	DocumentType *constants.DocumentType
	Description  *string

	PatientName *string
	Age         *int
	Sex         *string
	Date        *string
	DoctorName  *string
	Hospital    *string
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
