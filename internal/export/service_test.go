package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dbott-health/meddocs-tracker/internal/archive"
)

type stubLister struct {
	docs []archive.Document
	err  error
}

func (s *stubLister) List(ctx context.Context) ([]archive.Document, error) {
	return s.docs, s.err
}

func TestExportDocumentsXLSX(t *testing.T) {
	age := 38
	lister := &stubLister{docs: []archive.Document{
		{
			Filename:            "scan.png",
			Status:              "DONE",
			DocumentType:        "Lab Report",
			PatientName:         "Jane Doe",
			Age:                 &age,
			Sex:                 "female",
			Date:                "15-Mar-2024",
			DoctorName:          "John",
			DoctorQualification: "MBBS, PhD",
			HospitalName:        "City General Hospital",
			Medications:         []string{"Metformin 500mg", "Atorvastatin 10mg"},
			SubmittedAt:         time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			Filename:  "blurry.jpg",
			Status:    "DONE",
			ErrorInfo: "analysis failed: unreadable image",
		},
	}}

	out, err := NewService(lister, nil).ExportDocumentsXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportDocumentsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Documents")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Submitted" || rows[0][4] != "Patient" {
		t.Errorf("unexpected header row: %v", rows[0])
	}

	first := rows[1]
	if first[1] != "scan.png" || first[4] != "Jane Doe" || first[5] != "38" {
		t.Errorf("first data row = %v", first)
	}
	if first[8] != "John (MBBS, PhD)" {
		t.Errorf("doctor cell = %q", first[8])
	}
	if first[12] != "Metformin 500mg; Atorvastatin 10mg" {
		t.Errorf("medications cell = %q", first[12])
	}

	second := rows[2]
	if second[13] != "analysis failed: unreadable image" {
		t.Errorf("error cell = %q", second[13])
	}
}

func TestExportEmptyArchive(t *testing.T) {
	out, err := NewService(&stubLister{}, nil).ExportDocumentsXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportDocumentsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Documents")
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}

func TestExportPropagatesArchiveError(t *testing.T) {
	lister := &stubLister{err: errors.New("db locked")}
	if _, err := NewService(lister, nil).ExportDocumentsXLSX(context.Background()); err == nil {
		t.Error("expected error from failing archive")
	}
}
