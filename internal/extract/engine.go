// Package extract converts loosely-formatted AI analysis text into a
// structured medical record. Extraction is heuristic and total: it never
// fails, it just leaves fields unset when no pattern matches.
package extract

import (
	"log/slog"
	"strings"

	"github.com/dbott-health/meddocs-tracker/internal/entity"
)

// Engine evaluates ordered pattern tables against analysis text.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	log *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{log: logger}
}

// Extract maps raw analysis text to a MedicalRecord. Total over all string
// inputs; an empty input yields a record carrying only the original text.
//
// Each field has an ordered list of candidate patterns; the first pattern
// that matches wins and later candidates for that field are not attempted.
func (e *Engine) Extract(text string) entity.MedicalRecord {
	rec := entity.MedicalRecord{OriginalText: text}
	if strings.TrimSpace(text) == "" {
		return rec
	}

	for _, rules := range fieldTables {
		for _, r := range rules {
			m := r.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			// A match ends evaluation for this field even if the setter
			// declines the value (e.g. a non-numeric age capture).
			r.set(&rec, m)
			break
		}
	}

	rec.Findings = sliceSection(text, findingsAnchors)
	rec.Diagnosis = sliceSection(text, diagnosisAnchors)
	rec.Recommendations = sliceSection(text, recommendationAnchors)
	rec.Medications = extractMedications(text)

	e.log.Debug("extract.done",
		"input_bytes", len(text),
		"has_name", rec.PatientName != nil,
		"has_age", rec.Age != nil,
		"has_findings", rec.Findings != nil,
		"medications", len(rec.Medications),
	)
	return rec
}

// cleanCapture trims whitespace and residual quote/bracket/markdown
// characters from both ends of a captured substring.
func cleanCapture(s string) string {
	const residual = "\"'`*[]()"
	for {
		trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(s), residual))
		if trimmed == s {
			return trimmed
		}
		s = trimmed
	}
}

func strPtr(s string) *string { return &s }
