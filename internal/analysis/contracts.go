// Package analysis talks to the document-analysis service and validates
// its responses before they reach the lifecycle controller.
package analysis

import "context"

// Result is the analyzer's verdict for one document. Success false means
// the service answered but could not analyze the document; the transport
// worked, so the document still completes with placeholder metadata.
type Result struct {
	Success      bool
	AnalysisText string
	Message      string
}

// Analyzer submits a stored document for analysis. A returned error means
// the exchange itself failed (network, timeout, malformed response) and is
// treated as a transport fault by callers.
type Analyzer interface {
	Analyze(ctx context.Context, filePath string) (Result, error)
}
