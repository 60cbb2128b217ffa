package constants

import "strings"

// DocumentType is the analyzer's document classification taxonomy.
type DocumentType string

const (
	MedicalImage  DocumentType = "Medical Image"
	Prescription  DocumentType = "Prescription"
	LabReport     DocumentType = "Lab Report"
	MedicalReport DocumentType = "Medical Report"
	OtherDocument DocumentType = "Other"
)

var allDocumentTypes = []DocumentType{
	MedicalImage,
	Prescription,
	LabReport,
	MedicalReport,
	OtherDocument,
}

// DocumentTypeNames returns the taxonomy as plain strings.
func DocumentTypeNames() []string {
	out := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		out[i] = string(t)
	}
	return out
}

// CanonicalizeDocumentType maps a free-form label from analysis text onto
// the taxonomy. The boolean is false when the label had to fall back to Other.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return OtherDocument, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DocumentType{
		"x-ray":             MedicalImage,
		"xray":              MedicalImage,
		"ct":                MedicalImage,
		"ct scan":           MedicalImage,
		"mri":               MedicalImage,
		"ultrasound":        MedicalImage,
		"scan":              MedicalImage,
		"rx":                Prescription,
		"blood test":        LabReport,
		"pathology":         LabReport,
		"lab result":        LabReport,
		"discharge summary": MedicalReport,
		"clinic note":       MedicalReport,
		"clinical note":     MedicalReport,
		"ecg":               OtherDocument,
		"biopsy report":     OtherDocument,
	}

	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allDocumentTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}

	// substring pass for labels like "Medical Image (X-ray, CT, MRI)"
	for _, t := range allDocumentTypes {
		if strings.Contains(normalized, strings.ToLower(string(t))) {
			return t, true
		}
	}

	return OtherDocument, false
}
