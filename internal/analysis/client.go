package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// envelope mirrors the analysis service's JSON response body.
type envelope struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HTTPAnalyzer submits documents to the analysis service as multipart
// uploads and validates the response envelope against its schema.
type HTTPAnalyzer struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
	schema  map[string]any
}

func NewHTTPAnalyzer(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *HTTPAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPAnalyzer{
		log:     logger,
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		schema:  BuildEnvelopeSchema(),
	}
}

// Analyze POSTs the stored file to /api/analyze-image. Any failure of the
// exchange itself returns a non-nil error; a well-formed envelope with
// success=false returns a Result carrying the service's message.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, filePath string) (Result, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, contentType, err := buildMultipart(filePath)
	if err != nil {
		a.log.Error("analysis.http.encode_error", "req_id", reqID, "error", err)
		return Result{}, fmt.Errorf("encode multipart: %w", err)
	}

	url := a.baseURL + "/api/analyze-image"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		a.log.Error("analysis.http.build_request_error", "req_id", reqID, "error", err)
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	a.log.Info("analysis.http.request",
		"req_id", reqID,
		"url", url,
		"file", filepath.Base(filePath),
	)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Error("analysis.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			a.log.Warn("analysis.http.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	a.log.Info("analysis.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return Result{}, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	if err := ValidateJSONAgainstSchema(a.schema, raw); err != nil {
		a.log.Error("analysis.http.envelope_invalid", "req_id", reqID, "error", err)
		return Result{}, fmt.Errorf("invalid response envelope: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Result{}, fmt.Errorf("decode envelope: %w", err)
	}
	return Result{
		Success:      env.Success,
		AnalysisText: env.Analysis,
		Message:      env.Error,
	}, nil
}

func buildMultipart(filePath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
