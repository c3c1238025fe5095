// Package upload submits local media for analysis.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// ErrUnsupportedType is returned for files the backend would reject
var ErrUnsupportedType = errors.New("unsupported image type (accepts .png, .jpg, .jpeg)")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Backend is the upload endpoint
type Backend interface {
	Upload(ctx context.Context, filename string, content io.Reader, privacy bool) (model.UploadResult, error)
}

// Recorder keeps the client-local list of recent uploads
type Recorder interface {
	Add(entry model.RecentEntry, privacy bool) error
}

// Uploader sends files and records non-private uploads locally
type Uploader struct {
	backend Backend
	recent  Recorder
	log     *slog.Logger
}

// NewUploader creates an uploader. recent may be nil to skip local recording.
func NewUploader(backend Backend, recent Recorder, log *slog.Logger) *Uploader {
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{backend: backend, recent: recent, log: log}
}

// Supported reports whether path has an extension the backend accepts
func Supported(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Upload sends the file at path. Unless privacy is set the result is added
// to the recency list; failing to record it is logged, not returned.
func (u *Uploader) Upload(ctx context.Context, path string, privacy bool) (model.UploadResult, error) {
	if !Supported(path) {
		return model.UploadResult{}, fmt.Errorf("upload %s: %w", filepath.Base(path), ErrUnsupportedType)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	result, err := u.backend.Upload(ctx, filepath.Base(path), f, privacy)
	if err != nil {
		return model.UploadResult{}, err
	}
	u.log.Debug("upload analysed", "id", result.ID, "prediction", result.PredictionLabel, "privacy", privacy)

	if privacy || u.recent == nil {
		return result, nil
	}

	entry := model.RecentEntry{
		ID:              result.ID,
		FileURL:         result.FileURL,
		PredictionLabel: result.PredictionLabel,
	}
	if err := u.recent.Add(entry, privacy); err != nil {
		u.log.Warn("could not record recent upload", "id", result.ID, "error", err)
	}
	return result, nil
}
