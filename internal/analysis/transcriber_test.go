package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func tempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.wav")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeSuccess(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success": true, "transcript": "patient reports mild headache"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "", srv.Client(), nil)
	text, err := tr.Transcribe(context.Background(), tempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotPath != "/api/transcribe-audio" {
		t.Errorf("path = %q", gotPath)
	}
	if text != "patient reports mild headache" {
		t.Errorf("transcript = %q", text)
	}
}

func TestTranscribeDeclineIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "audio too short"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "", srv.Client(), nil)
	if _, err := tr.Transcribe(context.Background(), tempAudio(t)); err == nil {
		t.Error("expected error for declined transcription")
	}
}

func TestTranscribeNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "", srv.Client(), nil)
	if _, err := tr.Transcribe(context.Background(), tempAudio(t)); err == nil {
		t.Error("expected error for 503 response")
	}
}
