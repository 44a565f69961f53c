package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the cache record name inside the temp directory
const DefaultFileName = "modclash-scan-cache.json.zst"

// FileStore keeps a single entry in one file. Saving an entry for another
// root replaces the previous one, and loading a different root is a miss.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file store at path.
// An empty path selects DefaultFileName in the OS temp directory.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join(os.TempDir(), DefaultFileName)
	}
	return &FileStore{path: path}
}

// Path returns the record location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record and returns it when it belongs to root
func (s *FileStore) Load(ctx context.Context, root string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}
	if entry.Root != root {
		return nil, ErrMiss
	}
	return entry, nil
}

// Save writes the record atomically using a temp file and rename
func (s *FileStore) Save(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize cache file: %w", err)
	}

	return nil
}

// Delete removes the record when it belongs to root
func (s *FileStore) Delete(ctx context.Context, root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	// Unreadable records are removed as well; they can never be hit
	if entry, err := decodeEntry(data); err == nil && entry.Root != root {
		return nil
	}
	return s.remove()
}

// Clear removes the record
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *FileStore) remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Close does nothing
func (s *FileStore) Close() error {
	return nil
}
