// Package export produces XLSX workbooks from archived document records.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dbott-health/meddocs-tracker/internal/archive"
)

// Lister is the slice of the archive the exporter needs.
type Lister interface {
	List(ctx context.Context) ([]archive.Document, error)
}

// Service is a tiny façade over the archive that produces XLSX bytes.
type Service struct {
	store  Lister
	logger *slog.Logger
}

func NewService(store Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportDocumentsXLSX returns an XLSX workbook (as bytes) with one row per
// archived document.
func (s *Service) ExportDocumentsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Submitted",
		"Filename",
		"Status",
		"Document Type",
		"Patient",
		"Age",
		"Sex",
		"Document Date",
		"Doctor",
		"Hospital/Facility",
		"Findings",
		"Diagnosis",
		"Medications",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if !d.SubmittedAt.IsZero() {
			write(1, d.SubmittedAt.Format("2006-01-02 15:04"))
		} else {
			write(1, "")
		}
		write(2, d.Filename)
		write(3, d.Status)
		write(4, d.DocumentType)
		write(5, d.PatientName)
		if d.Age != nil {
			write(6, *d.Age)
		} else {
			write(6, "")
		}
		write(7, d.Sex)
		write(8, d.Date)

		doctor := d.DoctorName
		if doctor != "" && d.DoctorQualification != "" {
			doctor = doctor + " (" + d.DoctorQualification + ")"
		}
		write(9, doctor)
		write(10, d.HospitalName)
		write(11, truncate(d.Findings, 140))
		write(12, truncate(d.Diagnosis, 140))
		write(13, strings.Join(d.Medications, "; "))
		write(14, truncate(d.ErrorInfo, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // submitted
	_ = f.SetColWidth(sheet, "B", "B", 28) // filename
	_ = f.SetColWidth(sheet, "C", "D", 16) // status, type
	_ = f.SetColWidth(sheet, "E", "E", 24) // patient
	_ = f.SetColWidth(sheet, "I", "J", 30) // doctor, hospital
	_ = f.SetColWidth(sheet, "K", "M", 48) // clinical
	_ = f.SetColWidth(sheet, "N", "N", 40) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
