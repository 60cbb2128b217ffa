package archive

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dbott-health/meddocs-tracker/constants"
	"github.com/dbott-health/meddocs-tracker/internal/entity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func strPtr(s string) *string { return &s }

func completedRecord() entity.DocumentRecord {
	age := 38
	now := time.Now().UTC().Truncate(time.Millisecond)
	done := now.Add(2 * time.Second)
	return entity.DocumentRecord{
		ID:              uuid.New(),
		Filename:        "scan.png",
		Status:          constants.DocDone,
		StorageRef:      "ref-abc123.png",
		RawAnalysisText: strPtr("Name: [Jane Doe]"),
		Extracted: &entity.MedicalRecord{
			PatientName:  strPtr("Jane Doe"),
			Age:          &age,
			Sex:          strPtr("female"),
			Date:         strPtr("15-Mar-2024"),
			DocumentType: strPtr("Lab Report"),
			Medications:  []string{"Metformin 500mg", "Metformin 500mg"},
			Findings:     strPtr("Elevated WBC"),
			OriginalText: "Name: [Jane Doe]",
		},
		Meta: &entity.DocumentMeta{
			Title:        "Lab Report",
			DocumentType: constants.LabReport,
			Description:  "Jane Doe (38, female)",
		},
		SubmittedAt: now,
		CompletedAt: &done,
	}
}

func TestSaveAndListRoundTrip(t *testing.T) {
	st := openTestStore(t)
	rec := completedRecord()

	if err := st.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	docs, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}

	d := docs[0]
	if d.ID != rec.ID.String() {
		t.Errorf("id = %s", d.ID)
	}
	if d.PatientName != "Jane Doe" || d.Sex != "female" {
		t.Errorf("identity = %q/%q", d.PatientName, d.Sex)
	}
	if d.Age == nil || *d.Age != 38 {
		t.Errorf("age = %v", d.Age)
	}
	if d.DocumentType != string(constants.LabReport) {
		t.Errorf("document type = %q", d.DocumentType)
	}
	if !reflect.DeepEqual(d.Medications, []string{"Metformin 500mg", "Metformin 500mg"}) {
		t.Errorf("medications = %v", d.Medications)
	}
	if d.CompletedAt == nil {
		t.Error("completed_at lost")
	}
}

func TestSaveSameIDUpserts(t *testing.T) {
	st := openTestStore(t)
	rec := completedRecord()

	if err := st.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	rec.Meta.Title = "Corrected Title"
	if err := st.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	docs, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("upsert duplicated the row: %d rows", len(docs))
	}
	if docs[0].Title != "Corrected Title" {
		t.Errorf("title = %q", docs[0].Title)
	}
}

func TestSaveDegradedRecordWithoutExtraction(t *testing.T) {
	st := openTestStore(t)
	rec := entity.DocumentRecord{
		ID:       uuid.New(),
		Filename: "blurry.jpg",
		Status:   constants.DocDone,
		Meta: &entity.DocumentMeta{
			Title:        "blurry.jpg",
			DocumentType: constants.OtherDocument,
			Description:  "analysis failed: unreadable image",
			Placeholder:  true,
		},
		ErrorInfo:   strPtr("analysis failed: unreadable image"),
		SubmittedAt: time.Now(),
	}
	if err := st.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	docs, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	d := docs[0]
	if !d.Placeholder {
		t.Error("placeholder flag lost")
	}
	if d.ErrorInfo == "" {
		t.Error("error info lost")
	}
	if d.PatientName != "" || d.Age != nil {
		t.Error("degraded record should have no identity fields")
	}
	if len(d.Medications) != 0 {
		t.Errorf("medications = %v", d.Medications)
	}
}

func TestListOrderedBySubmission(t *testing.T) {
	st := openTestStore(t)
	base := time.Now().UTC()
	for i := 3; i >= 1; i-- {
		rec := completedRecord()
		rec.Filename = string(rune('a'+i)) + ".png"
		rec.SubmittedAt = base.Add(time.Duration(i) * time.Minute)
		if err := st.Save(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].SubmittedAt.Before(docs[i-1].SubmittedAt) {
			t.Fatal("documents not ordered by submission time")
		}
	}
}

func TestConsumeArchivesOnlyTerminalRecords(t *testing.T) {
	st := openTestStore(t)

	ch := make(chan entity.DocumentRecord, 4)
	queued := completedRecord()
	queued.Status = constants.DocQueued
	ch <- queued
	ch <- completedRecord()
	close(ch)

	Consume(context.Background(), ch, st, nil)

	docs, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("archived %d records, want 1 terminal record", len(docs))
	}
	if docs[0].Status != string(constants.DocDone) {
		t.Errorf("status = %s", docs[0].Status)
	}
}
