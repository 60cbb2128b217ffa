// Package archive persists finalized document records to a local SQLite
// database so completed work survives the in-memory session.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dbott-health/meddocs-tracker/internal/common"
	"github.com/dbott-health/meddocs-tracker/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                   TEXT PRIMARY KEY,
	filename             TEXT NOT NULL,
	status               TEXT NOT NULL,
	storage_ref          TEXT,
	title                TEXT,
	document_type        TEXT,
	description          TEXT,
	placeholder          INTEGER NOT NULL DEFAULT 0,
	patient_name         TEXT,
	age                  INTEGER,
	sex                  TEXT,
	doc_date             TEXT,
	doctor_name          TEXT,
	doctor_qualification TEXT,
	hospital_name        TEXT,
	findings             TEXT,
	diagnosis            TEXT,
	medications          TEXT,
	recommendations      TEXT,
	error_info           TEXT,
	raw_analysis_text    TEXT,
	submitted_at         TEXT NOT NULL,
	completed_at         TEXT
);
`

// Document is one archived row, flattened for listing and export.
type Document struct {
	ID           string
	Filename     string
	Status       string
	StorageRef   string
	Title        string
	DocumentType string
	Description  string
	Placeholder  bool

	PatientName         string
	Age                 *int
	Sex                 string
	Date                string
	DoctorName          string
	DoctorQualification string
	HospitalName        string
	Findings            string
	Diagnosis           string
	Medications         []string
	Recommendations     string

	ErrorInfo   string
	SubmittedAt time.Time
	CompletedAt *time.Time
}

type Store struct {
	log *slog.Logger
	db  *sql.DB
}

// Open connects to the SQLite database at dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.NewAppError("ARCHIVE_OPEN", dsn, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, common.NewAppError("ARCHIVE_SCHEMA", "creating documents table", err)
	}
	return &Store{log: logger, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts one record. Saving the same id twice keeps the latest state,
// so re-archiving after a metadata edit is safe.
func (s *Store) Save(ctx context.Context, rec entity.DocumentRecord) error {
	meds, err := json.Marshal(medications(rec))
	if err != nil {
		return fmt.Errorf("encode medications: %w", err)
	}

	var (
		title, docType, description string
		placeholder                 bool
	)
	if rec.Meta != nil {
		title = rec.Meta.Title
		docType = string(rec.Meta.DocumentType)
		description = rec.Meta.Description
		placeholder = rec.Meta.Placeholder
	}

	ex := rec.Extracted
	if ex == nil {
		ex = &entity.MedicalRecord{}
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, status, storage_ref,
	title, document_type, description, placeholder,
	patient_name, age, sex, doc_date,
	doctor_name, doctor_qualification, hospital_name,
	findings, diagnosis, medications, recommendations,
	error_info, raw_analysis_text, submitted_at, completed_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	storage_ref = excluded.storage_ref,
	title = excluded.title,
	document_type = excluded.document_type,
	description = excluded.description,
	placeholder = excluded.placeholder,
	patient_name = excluded.patient_name,
	age = excluded.age,
	sex = excluded.sex,
	doc_date = excluded.doc_date,
	doctor_name = excluded.doctor_name,
	doctor_qualification = excluded.doctor_qualification,
	hospital_name = excluded.hospital_name,
	findings = excluded.findings,
	diagnosis = excluded.diagnosis,
	medications = excluded.medications,
	recommendations = excluded.recommendations,
	error_info = excluded.error_info,
	raw_analysis_text = excluded.raw_analysis_text,
	completed_at = excluded.completed_at`,
		rec.ID.String(), rec.Filename, string(rec.Status), rec.StorageRef,
		title, docType, description, boolToInt(placeholder),
		deref(ex.PatientName), nullableInt(ex.Age), deref(ex.Sex), deref(ex.Date),
		deref(ex.DoctorName), deref(ex.DoctorQualification), deref(ex.HospitalName),
		deref(ex.Findings), deref(ex.Diagnosis), string(meds), deref(ex.Recommendations),
		deref(rec.ErrorInfo), deref(rec.RawAnalysisText),
		rec.SubmittedAt.UTC().Format(time.RFC3339Nano), nullableTime(rec.CompletedAt),
	)
	if err != nil {
		return common.NewAppError("ARCHIVE_SAVE", rec.ID.String(), err)
	}
	s.log.Debug("archive.save", "doc_id", rec.ID, "status", rec.Status)
	return nil
}

// List returns all archived documents ordered by submission time.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, filename, status, storage_ref,
	title, document_type, description, placeholder,
	patient_name, age, sex, doc_date,
	doctor_name, doctor_qualification, hospital_name,
	findings, diagnosis, medications, recommendations,
	error_info, submitted_at, completed_at
FROM documents ORDER BY submitted_at`)
	if err != nil {
		return nil, common.NewAppError("ARCHIVE_LIST", "querying documents", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d           Document
			placeholder int
			age         sql.NullInt64
			meds        string
			submittedAt string
			completedAt sql.NullString
		)
		err := rows.Scan(&d.ID, &d.Filename, &d.Status, &d.StorageRef,
			&d.Title, &d.DocumentType, &d.Description, &placeholder,
			&d.PatientName, &age, &d.Sex, &d.Date,
			&d.DoctorName, &d.DoctorQualification, &d.HospitalName,
			&d.Findings, &d.Diagnosis, &meds, &d.Recommendations,
			&d.ErrorInfo, &submittedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		d.Placeholder = placeholder != 0
		if age.Valid {
			v := int(age.Int64)
			d.Age = &v
		}
		if meds != "" {
			if err := json.Unmarshal([]byte(meds), &d.Medications); err != nil {
				return nil, fmt.Errorf("decode medications for %s: %w", d.ID, err)
			}
		}
		if t, perr := time.Parse(time.RFC3339Nano, submittedAt); perr == nil {
			d.SubmittedAt = t
		}
		if completedAt.Valid && completedAt.String != "" {
			if t, perr := time.Parse(time.RFC3339Nano, completedAt.String); perr == nil {
				d.CompletedAt = &t
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Consume archives every terminal record arriving on ch until ch closes or
// ctx is cancelled. Non-terminal transitions are skipped.
func Consume(ctx context.Context, ch <-chan entity.DocumentRecord, st *Store, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if !rec.Status.Terminal() {
				continue
			}
			if err := st.Save(ctx, rec); err != nil {
				logger.Error("archive.consume.save_failed", "doc_id", rec.ID, "error", err)
			}
		}
	}
}

func medications(rec entity.DocumentRecord) []string {
	if rec.Extracted == nil || rec.Extracted.Medications == nil {
		return []string{}
	}
	return rec.Extracted.Medications
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
