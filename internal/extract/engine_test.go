package extract

import (
	"reflect"
	"strings"
	"testing"
)

const sampleAnalysis = `Step 1: Document Classification & Patient Details
A. Patient Information
Name: [Jane Doe]
Age/Sex: [38-year-old female]
Date: [15-Mar-2024]
Doctor's name and qualification: [John Mathew,MBBS,PhD]
Hospital/Facility: [City General Hospital]

B. Document Type Identification
Document Type: Lab Report

2. **Key Findings**: Elevated white blood cell count. Mild anemia observed.
3. **Diagnostic Assessment**: Findings consistent with an acute infection.
Medication: Amoxicillin 500mg
Medication: Paracetamol 650mg
**Recommendations**: Repeat CBC in two weeks. Increase fluid intake.
***Disclaimer:** This AI-generated analysis is for informational purposes only.*`

func TestExtractFullAnalysis(t *testing.T) {
	rec := NewEngine(nil).Extract(sampleAnalysis)

	if rec.OriginalText != sampleAnalysis {
		t.Fatal("original text must be preserved verbatim")
	}
	assertStr(t, "patient name", rec.PatientName, "Jane Doe")
	if rec.Age == nil || *rec.Age != 38 {
		t.Errorf("age = %v, want 38", rec.Age)
	}
	assertStr(t, "sex", rec.Sex, "female")
	assertStr(t, "date", rec.Date, "15-Mar-2024")
	assertStr(t, "doctor name", rec.DoctorName, "John Mathew")
	assertStr(t, "doctor qualification", rec.DoctorQualification, "MBBS, PhD")
	assertStr(t, "hospital", rec.HospitalName, "City General Hospital")
	assertStr(t, "document type", rec.DocumentType, "Lab Report")
	assertStr(t, "findings", rec.Findings, "Elevated white blood cell count. Mild anemia observed.")
	assertStr(t, "diagnosis", rec.Diagnosis, "Findings consistent with an acute infection.")
	assertStr(t, "recommendations", rec.Recommendations, "Repeat CBC in two weeks. Increase fluid intake.")
	wantMeds := []string{"Amoxicillin 500mg", "Paracetamol 650mg"}
	if !reflect.DeepEqual(rec.Medications, wantMeds) {
		t.Errorf("medications = %v, want %v", rec.Medications, wantMeds)
	}
}

func TestExtractTotalOverAllInputs(t *testing.T) {
	eng := NewEngine(nil)
	inputs := []string{
		"",
		"   \n\t  ",
		"no structure at all",
		strings.Repeat("x", 100000),
		"Name:\nAge:\nDate:",
		"::::[[[]]]***",
	}
	for _, in := range inputs {
		rec := eng.Extract(in)
		if rec.OriginalText != in {
			t.Errorf("input %q: original text not preserved", truncate(in))
		}
	}
	empty := eng.Extract("")
	if empty.PatientName != nil || empty.Age != nil || empty.Findings != nil || empty.Medications != nil {
		t.Error("empty input must yield a record with only the original text set")
	}
}

func TestFirstMatchWins(t *testing.T) {
	// High-specificity age+sex phrase must beat the later bare token.
	rec := NewEngine(nil).Extract("A 45-year-old male presented. The female nurse recorded vitals.")
	if rec.Age == nil || *rec.Age != 45 {
		t.Fatalf("age = %v, want 45", rec.Age)
	}
	assertStr(t, "sex", rec.Sex, "male")
}

func TestSexCatchAllTriedLast(t *testing.T) {
	rec := NewEngine(nil).Extract("Study participant was female.")
	assertStr(t, "sex", rec.Sex, "female")
}

func TestSexImmutableOncePerCall(t *testing.T) {
	rec := NewEngine(nil).Extract("Age/Sex: 60, male. Elsewhere the text mentions female staff.")
	assertStr(t, "sex", rec.Sex, "male")
}

func TestAgeLabelBeatsBarePhrase(t *testing.T) {
	rec := NewEngine(nil).Extract("Age: 52. Her brother, 49 years old, accompanied her.")
	if rec.Age == nil || *rec.Age != 52 {
		t.Errorf("age = %v, want 52", rec.Age)
	}
}

func TestAgeParseFailureDropsField(t *testing.T) {
	// A matched label with a non-numeric value drops the field entirely;
	// it does not fall through to the later bare phrase.
	rec := NewEngine(nil).Extract("Age: unknown. Patient is 30 years old per chart.")
	if rec.Age != nil {
		t.Errorf("age = %d, want unset", *rec.Age)
	}
}

func TestNameLabelBeforePatientForm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"label form", `Name: "Ravi Kumar"`, "Ravi Kumar"},
		{"bracketed label", "Patient Name: [Asha Rao]", "Asha Rao"},
		{"bare patient form", "Patient: Leela Nair, admitted yesterday", "Leela Nair"},
		{"label wins over patient", "Patient: Wrong Person\nName: Right Person", "Right Person"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewEngine(nil).Extract(tt.in)
			assertStr(t, "patient name", rec.PatientName, tt.want)
		})
	}
}

func TestDoctorQualificationRules(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantName  string
		wantQuals string // empty means unset
	}{
		{"label with quals", "Doctor's name and qualification: [John,MBBS,PhD]", "John", "MBBS, PhD"},
		{"label without quals", "Doctor's name: Priya Menon", "Priya Menon", ""},
		{"dr form with quals", "Seen by Dr. Asha Rao, MD, MBBS today", "Asha Rao", "MD, MBBS"},
		{"lowercase tail not a qual", "Doctor's name: John, attending physician", "John", ""},
		{"quals stop at nonconforming part", "Doctor's name and qualification: [Meera,MD,senior resident,PhD]", "Meera", "MD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewEngine(nil).Extract(tt.in)
			assertStr(t, "doctor name", rec.DoctorName, tt.wantName)
			if tt.wantQuals == "" {
				if rec.DoctorQualification != nil {
					t.Errorf("qualification = %q, want unset", *rec.DoctorQualification)
				}
			} else {
				assertStr(t, "qualification", rec.DoctorQualification, tt.wantQuals)
			}
		})
	}
}

func TestHospitalPatterns(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hospital/Facility: [Fortis Diagnostics]", "Fortis Diagnostics"},
		{"Facility: Apollo Imaging", "Apollo Imaging"},
		{"Scanned at City General Hospital last week", "City General Hospital"},
	}
	for _, tt := range tests {
		rec := NewEngine(nil).Extract(tt.in)
		assertStr(t, "hospital", rec.HospitalName, tt.want)
	}
}

func TestDocumentTypeCanonicalized(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Document Type: Prescription (Handwritten/Digital)", "Prescription"},
		{"Chest X-ray, PA view", "Medical Image"},
		{"Document Type: Discharge Summary", "Medical Report"},
	}
	for _, tt := range tests {
		rec := NewEngine(nil).Extract(tt.in)
		assertStr(t, "document type", rec.DocumentType, tt.want)
	}
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

func assertStr(t *testing.T, field string, got *string, want string) {
	t.Helper()
	if got == nil {
		t.Errorf("%s unset, want %q", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %q, want %q", field, *got, want)
	}
}
