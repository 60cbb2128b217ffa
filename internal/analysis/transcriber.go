package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// transcriptEnvelope mirrors the transcription endpoint's JSON response.
type transcriptEnvelope struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HTTPTranscriber sends captured audio to the transcription endpoint.
type HTTPTranscriber struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPTranscriber(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *HTTPTranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &HTTPTranscriber{log: logger, client: client, baseURL: baseURL, apiKey: apiKey}
}

// Transcribe POSTs the audio file to /api/transcribe-audio and returns the
// transcript text. Any failure, including a success=false envelope, is an
// error since voice notes have no degraded completion path.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, contentType, err := buildMultipart(path)
	if err != nil {
		return "", fmt.Errorf("encode multipart: %w", err)
	}

	url := t.baseURL + "/api/transcribe-audio"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	t.log.Info("transcribe.http.request", "req_id", reqID, "file", filepath.Base(path))

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Error("transcribe.http.send_error", "req_id", reqID, "error", err)
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	t.log.Info("transcribe.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	var env transcriptEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Success {
		return "", fmt.Errorf("transcription failed: %s", env.Error)
	}
	return env.Transcript, nil
}
