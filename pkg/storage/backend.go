package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file inside a mod
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Permissions  uint32
	RelativePath string
}

// Backend defines the interface for reading a mod root
// Every immediate subdirectory of the root is a mod
type Backend interface {
	// Root returns the absolute root path
	Root() string

	// ListMods returns the mod directory names in lexicographic order
	ListMods(ctx context.Context) ([]string, error)

	// ListFiles returns every regular file beneath a mod, paths relative to the mod
	ListFiles(ctx context.Context, mod string) ([]FileInfo, error)

	// Read opens a mod's file for reading
	Read(ctx context.Context, mod, path string) (io.ReadCloser, error)

	// Exists checks if a mod provides the given path
	Exists(ctx context.Context, mod, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, mod, path string) (*FileInfo, error)

	// Close releases any resources held by the backend
	Close() error
}
