package constants

import "testing"

func TestCanonicalizeDocumentType(t *testing.T) {
	tests := []struct {
		in     string
		want   DocumentType
		wantOK bool
	}{
		{"Lab Report", LabReport, true},
		{"lab report", LabReport, true},
		{"  Prescription ", Prescription, true},
		{"x-ray", MedicalImage, true},
		{"MRI", MedicalImage, true},
		{"discharge summary", MedicalReport, true},
		{"Medical Image (X-ray, CT, MRI)", MedicalImage, true},
		{"grocery list", OtherDocument, false},
		{"", OtherDocument, false},
	}
	for _, tt := range tests {
		got, ok := CanonicalizeDocumentType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CanonicalizeDocumentType(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStatusRanksAreMonotonic(t *testing.T) {
	order := []DocumentStatus{DocQueued, DocUploading, DocExtracting, DocDone}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("rank(%s) <= rank(%s)", order[i], order[i-1])
		}
	}
	if DocError.Rank() != DocDone.Rank() {
		t.Error("both terminal statuses must share the final rank")
	}
	if !DocDone.Terminal() || !DocError.Terminal() || DocExtracting.Terminal() {
		t.Error("terminal classification wrong")
	}
}

func TestIsImageExt(t *testing.T) {
	if !IsImageExt(".PNG") || !IsImageExt("jpeg") {
		t.Error("image extensions must match case-insensitively, with or without dot")
	}
	if IsImageExt(".pdf") || IsImageExt("txt") {
		t.Error("non-image extensions classified as images")
	}
}
