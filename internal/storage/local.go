package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Allowed upload extensions for answer files
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".zip":  true,
}

var (
	ErrDisallowedExtension = fmt.Errorf("file extension not allowed")
	ErrEmptyFilename       = fmt.Errorf("filename is empty")
)

// FileStore persists student answer uploads
type FileStore interface {
	Save(ctx context.Context, studentID, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// LocalStore writes uploads under a base directory. Keys embed the student
// and upload time so nothing ever overwrites a previous submission.
type LocalStore struct {
	baseDir string
	logger  *slog.Logger
}

func NewLocalStore(baseDir string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

// Allowed reports whether the filename has a permitted extension
func Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedExtensions[ext]
}

// Save stores the upload and returns its key
func (s *LocalStore) Save(ctx context.Context, studentID, filename string, r io.Reader) (string, error) {
	cleaned := sanitize(filename)
	if cleaned == "" {
		return "", ErrEmptyFilename
	}
	if !Allowed(cleaned) {
		return "", ErrDisallowedExtension
	}

	key := fmt.Sprintf("%s_%s_%s", sanitize(studentID), time.Now().Format("20060102150405"), cleaned)
	path := filepath.Join(s.baseDir, key)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.InfoContext(ctx, "Stored answer upload",
		"key", key,
		"bytes", written)

	return key, nil
}

// Open returns a reader for a stored upload
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	clean := sanitize(key)
	if clean == "" {
		return nil, ErrEmptyFilename
	}
	f, err := os.Open(filepath.Join(s.baseDir, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return f, nil
}

// Remove deletes a stored upload; missing files are not an error
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	clean := sanitize(key)
	if clean == "" {
		return ErrEmptyFilename
	}
	err := os.Remove(filepath.Join(s.baseDir, clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// sanitize strips path separators so keys cannot escape the base directory
func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
