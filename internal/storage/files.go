// Package storage persists uploaded attachment files on local disk and
// enforces the upload policy: allowed MIME types, per-file size cap, and a
// maximum file count per request.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/config"
	"github.com/morabagipravin/task-manager-api/internal/models"
)

// allowedTypes mirrors the upload policy: images, PDFs, plain text, and
// Office documents.
var allowedTypes = map[string]bool{
	"image/jpeg":         true,
	"image/jpg":          true,
	"image/png":          true,
	"image/gif":          true,
	"application/pdf":    true,
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

// FileStore manages attachment files under a single directory.
type FileStore struct {
	dir      string
	maxSize  int64
	maxFiles int
	log      *logrus.Logger
}

// NewFileStore creates the upload directory if needed.
func NewFileStore(cfg *config.Config, log *logrus.Logger) (*FileStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{
		dir:      cfg.UploadDir,
		maxSize:  cfg.MaxUploadSize,
		maxFiles: cfg.MaxUploadFiles,
		log:      log,
	}, nil
}

// SaveUploads stores the attachment files of a multipart request and returns
// their paths. Non-multipart requests yield an empty list. On any policy
// violation the files already written are cleaned up.
func (s *FileStore) SaveUploads(r *http.Request) (models.AttachmentList, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return nil, nil
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, apperrors.Validation("invalid multipart request")
	}

	headers := r.MultipartForm.File["attachments"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > s.maxFiles {
		return nil, apperrors.Validation(fmt.Sprintf("too many files: at most %d allowed", s.maxFiles))
	}

	var saved models.AttachmentList
	for _, header := range headers {
		path, err := s.saveOne(header)
		if err != nil {
			s.Remove(saved)
			return nil, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

func (s *FileStore) saveOne(header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", apperrors.Validation(fmt.Sprintf("file %s is too large: maximum size is %d bytes", header.Filename, s.maxSize))
	}
	mimeType := header.Header.Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !allowedTypes[mimeType] {
		return "", apperrors.Validation("invalid file type: only images, PDFs, text, and Office documents are allowed")
	}

	src, err := header.Open()
	if err != nil {
		return "", apperrors.Storagef("failed to open upload %s: %v", header.Filename, err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", apperrors.Storagef("failed to store upload %s: %v", header.Filename, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", apperrors.Storagef("failed to store upload %s: %v", header.Filename, err)
	}
	return path, nil
}

// Remove deletes the given files best-effort. Failures are logged and never
// surfaced; a missing file is not an error.
func (s *FileStore) Remove(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warnf("Could not delete file %s: %v", path, err)
		}
	}
}

// Exists reports whether the file is present on disk.
func (s *FileStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
