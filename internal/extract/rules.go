package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dbott-health/meddocs-tracker/constants"
	"github.com/dbott-health/meddocs-tracker/internal/entity"
)

// rule pairs a pattern with a field setter. Rules for one field are listed
// in descending specificity; evaluation stops at the first regex match.
type rule struct {
	re  *regexp.Regexp
	set func(rec *entity.MedicalRecord, groups []string)
}

// fieldTables lists the per-field rule lists in evaluation order. Ordering
// within each list is load-bearing: reordering changes which value wins.
var fieldTables = [][]rule{
	nameRules,
	ageRules,
	sexRules,
	dateRules,
	doctorRules,
	hospitalRules,
	documentTypeRules,
}

var nameRules = []rule{
	// Explicit label, e.g. `Name: [Jane Doe]` or `Patient Name: Jane Doe`.
	{
		re: regexp.MustCompile(`(?i)\bname\s*:[ \t]*\[?([^\n\]]+)`),
		set: func(rec *entity.MedicalRecord, g []string) {
			if v := cleanCapture(g[1]); v != "" {
				rec.PatientName = strPtr(v)
			}
		},
	},
	// Bare `Patient: ...` form.
	{
		re: regexp.MustCompile(`(?i)\bpatient\s*:[ \t]*\[?([^\n,\]]+)`),
		set: func(rec *entity.MedicalRecord, g []string) {
			if v := cleanCapture(g[1]); v != "" {
				rec.PatientName = strPtr(v)
			}
		},
	},
}

var ageRules = []rule{
	// `38-year-old`, also matches inside an Age/Sex label value.
	{
		re:  regexp.MustCompile(`(?i)\b(\d{1,3})[\s-]*year[\s-]*old`),
		set: setAgeFromDigits,
	},
	// `Age: 38`. The capture is deliberately loose: a labeled value that
	// fails integer parsing drops the field without trying later patterns.
	{
		re:  regexp.MustCompile(`(?i)\bage\s*:[ \t]*\[?\s*([^\s\],;]+)`),
		set: setAgeFromDigits,
	},
	// Bare `38 years old`.
	{
		re:  regexp.MustCompile(`(?i)\b(\d{1,3})\s+years\s+old`),
		set: setAgeFromDigits,
	},
}

func setAgeFromDigits(rec *entity.MedicalRecord, g []string) {
	n, err := strconv.Atoi(strings.TrimRight(cleanCapture(g[1]), ".,;:"))
	if err != nil || n < 0 {
		return // matched but unparseable: field stays unset
	}
	rec.Age = &n
}

var sexRules = []rule{
	// Co-occurring with an age phrase: `38-year-old female`.
	{
		re:  regexp.MustCompile(`(?i)\b\d{1,3}[\s-]*year[\s-]*old\s+(male|female)\b`),
		set: setSex,
	},
	// Combined `Age/Sex:` label.
	{
		re:  regexp.MustCompile(`(?i)\bage\s*/\s*sex\s*:[ \t]*\[?[^\n\]]*?\b(male|female)\b`),
		set: setSex,
	},
	// Catch-all bare token. High false-positive risk, so it is tried last.
	{
		re:  regexp.MustCompile(`(?i)\b(male|female)\b`),
		set: setSex,
	},
}

func setSex(rec *entity.MedicalRecord, g []string) {
	if rec.Sex != nil {
		return // once set, sex is immutable for this call
	}
	rec.Sex = strPtr(strings.ToLower(g[1]))
}

var dateRules = []rule{
	// Explicit label, e.g. `Date: [15-Mar-2024]`.
	{
		re: regexp.MustCompile(`(?i)\bdate\s*:[ \t]*\[?([^\n\]]+)`),
		set: func(rec *entity.MedicalRecord, g []string) {
			if v := cleanCapture(g[1]); v != "" {
				rec.Date = strPtr(v)
			}
		},
	},
	// `15-Mar-2024` style token.
	{
		re: regexp.MustCompile(`\b(\d{1,2}[-/][A-Za-z]{3,9}[-/]\d{2,4})\b`),
		set: func(rec *entity.MedicalRecord, g []string) {
			rec.Date = strPtr(g[1])
		},
	},
	// Fully numeric `15/03/2024` style token.
	{
		re: regexp.MustCompile(`\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`),
		set: func(rec *entity.MedicalRecord, g []string) {
			rec.Date = strPtr(g[1])
		},
	},
}

var doctorRules = []rule{
	// `Doctor's name and qualification: [John,MBBS,PhD]`. The setter splits
	// the value; qualifications are kept only while they look like
	// uppercase abbreviations.
	{
		re:  regexp.MustCompile(`(?i)\bdoctor(?:'?s)?\s*name(?:\s*(?:and|&)\s*qualifications?)?\s*:[ \t]*\[?([^\n\]]+)`),
		set: setDoctor,
	},
	// `Dr. Asha Rao, MD, MBBS` free-text form. Case-sensitive on purpose.
	{
		re:  regexp.MustCompile(`\bDr\.?\s+([A-Z][A-Za-z.' -]*[A-Za-z](?:(?:\s*,\s*[A-Z][A-Za-z.]{1,11})+)?)`),
		set: setDoctor,
	},
}

var qualAbbrev = regexp.MustCompile(`^[A-Z][A-Za-z.]{1,11}$`)

func setDoctor(rec *entity.MedicalRecord, g []string) {
	parts := strings.Split(g[1], ",")
	name := cleanCapture(parts[0])
	if name == "" {
		return
	}
	rec.DoctorName = strPtr(name)

	// Trailing comma-delimited uppercase abbreviations become the
	// qualification; stop at the first part that does not conform.
	var quals []string
	for _, p := range parts[1:] {
		p = cleanCapture(p)
		if !qualAbbrev.MatchString(p) {
			break
		}
		quals = append(quals, p)
	}
	if len(quals) > 0 {
		rec.DoctorQualification = strPtr(strings.Join(quals, ", "))
	}
}

var hospitalRules = []rule{
	// `Hospital/Facility: [City General Hospital]`.
	{
		re: regexp.MustCompile(`(?i)\bhospital(?:\s*/\s*facility)?(?:\s*name)?\s*:[ \t]*\[?([^\n\]]+)`),
		set: func(rec *entity.MedicalRecord, g []string) {
			if v := cleanCapture(g[1]); v != "" {
				rec.HospitalName = strPtr(v)
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bfacility\s*:[ \t]*\[?([^\n\]]+)`),
		set: func(rec *entity.MedicalRecord, g []string) {
			if v := cleanCapture(g[1]); v != "" {
				rec.HospitalName = strPtr(v)
			}
		},
	},
	// Capitalized institution run, e.g. `Apollo Medical Centre`.
	{
		re: regexp.MustCompile(`\b((?:[A-Z][A-Za-z&.']*\s+)+(?:Hospital|Clinic|Medical Cent(?:er|re)|Diagnostics|Laborator(?:y|ies)|Imaging))\b`),
		set: func(rec *entity.MedicalRecord, g []string) {
			if v := cleanCapture(g[1]); v != "" {
				rec.HospitalName = strPtr(v)
			}
		},
	},
}

var documentTypeRules = []rule{
	{
		re:  regexp.MustCompile(`(?i)\bdocument\s*type\s*:[ \t]*\[?([^\n\]]+)`),
		set: setDocumentType,
	},
	{
		re:  regexp.MustCompile(`(?i)\btype\s*of\s*document\s*:[ \t]*\[?([^\n\]]+)`),
		set: setDocumentType,
	},
	// Bare taxonomy or modality token anywhere in the text.
	{
		re:  regexp.MustCompile(`(?i)\b(medical image|prescription|lab report|medical report|discharge summary|x-?ray|mri|ct scan|ultrasound)\b`),
		set: setDocumentType,
	},
}

func setDocumentType(rec *entity.MedicalRecord, g []string) {
	raw := cleanCapture(g[1])
	if raw == "" {
		return
	}
	if canon, ok := constants.CanonicalizeDocumentType(raw); ok {
		rec.DocumentType = strPtr(string(canon))
		return
	}
	rec.DocumentType = strPtr(raw)
}
