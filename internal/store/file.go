package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores one record per file under a base directory. Records are
// meant to be read and edited by hand, so keys map directly to file names.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the base directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

// Read implements Backend.
func (b *FileBackend) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Write implements Backend.
func (b *FileBackend) Write(_ context.Context, key string, data []byte) error {
	path := filepath.Join(b.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error { return nil }
