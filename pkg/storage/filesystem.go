package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists uploaded attachments on disk under a base directory.
// Stored files are referenced by their relative key, never by absolute path.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// SaveStream copies from reader into the file addressed by key.
func (s *LocalStorage) SaveStream(key string, r io.Reader) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return key, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Ping verifies the base directory is still reachable and writable.
func (s *LocalStorage) Ping() error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		return fmt.Errorf("stat uploads directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("uploads path %s is not a directory", s.baseDir)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(key string) string {
	path, err := s.resolve(key)
	if err != nil {
		return ""
	}
	return path
}

func (s *LocalStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
