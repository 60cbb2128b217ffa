package constants

import "strings"

// ImageExtensions holds the extensions routed through AI analysis.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"heic": {},
}

// AllowedExtensions holds the extensions accepted for document submission.
// Non-image entries are stored without an analysis pass.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"heic": {},
	"pdf":  {},
	"txt":  {},
}

// AudioExtensions holds the extensions accepted for voice notes.
var AudioExtensions = map[string]struct{}{
	"wav": {},
	"m4a": {},
	"mp3": {},
	"ogg": {},
}

// MaxUploadBytes caps a single submitted file.
const MaxUploadBytes = 20 << 20 // 20 MiB

// MaxBatchSize caps one submission batch, matching the analyzer's limit.
const MaxBatchSize = 5

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext names an image format we send to analysis.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}
