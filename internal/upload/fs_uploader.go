package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbott-health/meddocs-tracker/internal/common"
)

const defaultChunkSize = 256 << 10

// FSUploader copies files into a local storage directory, addressing each
// stored file by the hex digest of its content. Re-uploading identical
// content yields the same reference.
type FSUploader struct {
	log       *slog.Logger
	rootDir   string
	chunkSize int64
}

func NewFSUploader(rootDir string, chunkSize int64, logger *slog.Logger) *FSUploader {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &FSUploader{log: logger, rootDir: rootDir, chunkSize: chunkSize}
}

// Upload copies srcPath into the storage directory chunk by chunk, hashing
// as it goes and reporting progress after each chunk. The final reference
// is `<sha256-prefix><original extension>` relative to the storage root.
func (u *FSUploader) Upload(ctx context.Context, srcPath string, progress ProgressFunc) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", common.NewAppError("UPLOAD_OPEN", fmt.Sprintf("opening %s", srcPath), err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", common.NewAppError("UPLOAD_STAT", fmt.Sprintf("stat %s", srcPath), err)
	}
	total := info.Size()

	if err := os.MkdirAll(u.rootDir, 0o755); err != nil {
		return "", common.NewAppError("UPLOAD_MKDIR", "creating storage directory", err)
	}
	tmp, err := os.CreateTemp(u.rootDir, ".upload-*")
	if err != nil {
		return "", common.NewAppError("UPLOAD_TEMP", "creating temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	buf := make([]byte, u.chunkSize)
	var copied int64
	for {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return "", common.WrapError(err, "upload cancelled")
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				tmp.Close()
				return "", common.NewAppError("UPLOAD_WRITE", "writing chunk", werr)
			}
			hasher.Write(buf[:n])
			copied += int64(n)
			if progress != nil {
				progress(percentOf(copied, total))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			tmp.Close()
			return "", common.NewAppError("UPLOAD_READ", "reading source", rerr)
		}
	}
	if err := tmp.Close(); err != nil {
		return "", common.NewAppError("UPLOAD_CLOSE", "closing temp file", err)
	}

	ref := hex.EncodeToString(hasher.Sum(nil))[:24] + strings.ToLower(filepath.Ext(srcPath))
	dst := filepath.Join(u.rootDir, ref)
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", common.NewAppError("UPLOAD_RENAME", "finalizing stored file", err)
	}
	if progress != nil {
		progress(100)
	}

	u.log.Debug("upload.stored",
		"src", srcPath,
		"ref", ref,
		"bytes", copied)
	return ref, nil
}

func percentOf(done, total int64) int {
	if total <= 0 {
		return 100
	}
	p := int(done * 100 / total)
	if p > 100 {
		p = 100
	}
	return p
}
