// Package format renders structured medical records as compact one-line
// summaries for previews and log output.
package format

import (
	"fmt"
	"strings"

	"github.com/dbott-health/meddocs-tracker/internal/entity"
)

// maxSectionRunes caps how much of a clinical section makes it into the
// summary line before being elided.
const maxSectionRunes = 120

// Summary renders rec as a compact human-readable line. Fields the
// extraction engine left unset are simply omitted.
func Summary(rec entity.MedicalRecord) string {
	var parts []string

	if id := identity(rec); id != "" {
		parts = append(parts, id)
	}
	if rec.DocumentType != nil {
		parts = append(parts, *rec.DocumentType)
	}
	if rec.Date != nil {
		parts = append(parts, *rec.Date)
	}
	if p := provider(rec); p != "" {
		parts = append(parts, p)
	}
	if rec.Findings != nil {
		parts = append(parts, "Findings: "+elide(*rec.Findings))
	}
	if rec.Diagnosis != nil {
		parts = append(parts, "Diagnosis: "+elide(*rec.Diagnosis))
	}
	if len(rec.Medications) > 0 {
		parts = append(parts, "Medications: "+strings.Join(rec.Medications, "; "))
	}
	if rec.Recommendations != nil {
		parts = append(parts, "Recommendations: "+elide(*rec.Recommendations))
	}

	if len(parts) == 0 {
		return "No structured data extracted"
	}
	return strings.Join(parts, " | ")
}

func identity(rec entity.MedicalRecord) string {
	name := "Unknown patient"
	if rec.PatientName != nil {
		name = *rec.PatientName
	} else if rec.Age == nil && rec.Sex == nil {
		return ""
	}

	var demo []string
	if rec.Age != nil {
		demo = append(demo, fmt.Sprintf("%d", *rec.Age))
	}
	if rec.Sex != nil {
		demo = append(demo, *rec.Sex)
	}
	if len(demo) > 0 {
		return fmt.Sprintf("%s (%s)", name, strings.Join(demo, ", "))
	}
	return name
}

func provider(rec entity.MedicalRecord) string {
	var parts []string
	if rec.DoctorName != nil {
		doc := "Dr. " + *rec.DoctorName
		if rec.DoctorQualification != nil {
			doc += " (" + *rec.DoctorQualification + ")"
		}
		parts = append(parts, doc)
	}
	if rec.HospitalName != nil {
		parts = append(parts, *rec.HospitalName)
	}
	return strings.Join(parts, ", ")
}

func elide(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxSectionRunes {
		return s
	}
	return string(runes[:maxSectionRunes]) + "…"
}
