package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps images on the local filesystem under a root directory.
// It holds no mutable state; callers writing the same key concurrently get
// whichever write the filesystem applies last.
type FileStore struct {
	root    string
	baseURL string
}

// NewFileStore creates the root directory if needed. baseURL is the
// prefix the files are served from, e.g. "/media".
func NewFileStore(root, baseURL string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &FileStore{root: abs, baseURL: baseURL}, nil
}

// Root returns the absolute media root.
func (s *FileStore) Root() string {
	return s.root
}

// Save writes data to the key's path, creating parent directories.
func (s *FileStore) Save(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(_ context.Context, key string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Exists checks if a file is stored under key.
func (s *FileStore) Exists(key string) bool {
	p, err := s.Path(key)
	if err != nil {
		return false
	}

	_, err = os.Stat(p)
	return err == nil
}

// URL returns the public URL of key.
func (s *FileStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

// Path returns the full filesystem path for key.
func (s *FileStore) Path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
