package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vikflow/vikflow/internal/utils"
)

// fileStore is a file-based secret store used by tests (selected through
// VIKFLOW_TEST_KEYRING_DIR). It must never be used in production.
type fileStore struct {
	mu  sync.Mutex
	dir string
}

func newFileStore(dir string) (*fileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path is required")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create secret directory: %w", err)
	}

	return &fileStore{dir: dir}, nil
}

// Backend implements Store.
func (f *fileStore) Backend() string { return "file" }

// IsAvailable implements Store.
func (f *fileStore) IsAvailable() error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("%w: directory not accessible: %v", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: path is not a directory", ErrUnavailable)
	}
	return nil
}

// keyPath returns the file path for a key, confined to the store directory.
func (f *fileStore) keyPath(key string) (string, error) {
	fullPath := filepath.Join(f.dir, utils.SanitizeKey(key))

	absDir, err := filepath.Abs(f.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) && absPath != absDir {
		return "", fmt.Errorf("invalid key: path traversal detected")
	}

	return fullPath, nil
}

// Set implements Store.
func (f *fileStore) Set(key, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return ErrNotFound
	}

	path, err := f.keyPath(key)
	if err != nil {
		return fmt.Errorf("failed to resolve key path: %w", err)
	}

	// Remove any existing file first so O_EXCL always creates a fresh one.
	_ = os.Remove(path)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create secret file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte(secret)); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}

	return nil
}

// Get implements Store.
func (f *fileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return "", ErrNotFound
	}

	path, err := f.keyPath(key)
	if err != nil {
		return "", fmt.Errorf("failed to resolve key path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return string(data), nil
}

// Delete implements Store.
func (f *fileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return nil
	}

	path, err := f.keyPath(key)
	if err != nil {
		return fmt.Errorf("failed to resolve key path: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	return nil
}
