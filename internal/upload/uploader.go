// Package upload moves submitted files into managed storage and reports
// transfer progress back to the lifecycle controller.
package upload

import "context"

// ProgressFunc receives transfer progress in whole percent, 0 through 100.
// Implementations must deliver non-decreasing values and finish with 100.
type ProgressFunc func(percent int)

// Uploader transfers a local file into managed storage and returns an
// opaque storage reference for the stored copy.
type Uploader interface {
	Upload(ctx context.Context, srcPath string, progress ProgressFunc) (string, error)
}
