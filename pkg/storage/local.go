package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidRoot is returned when the root is missing or not a directory
var ErrInvalidRoot = errors.New("invalid mod root")

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrInvalidRoot)
	}

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve path: %v", ErrInvalidRoot, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to access path: %v", ErrInvalidRoot, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: path is not a directory: %s", ErrInvalidRoot, absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

// ListMods returns the immediate subdirectories of the root, sorted by name.
// Plain files at the root level are not mods and are ignored.
func (l *Local) ListMods(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}

	var mods []string
	for _, e := range entries {
		if e.IsDir() || (e.Type()&fs.ModeSymlink != 0 && l.isDirLink(filepath.Join(l.rootPath, e.Name()))) {
			mods = append(mods, e.Name())
		}
	}
	sort.Strings(mods)

	return mods, nil
}

// isDirLink reports whether the symlink at p points to a directory
func (l *Local) isDirLink(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// ListFiles returns all files beneath a mod recursively. A symlinked mod
// directory is listed through its target, but symlinked directories inside
// the mod are neither followed nor reported, so link cycles cannot loop.
func (l *Local) ListFiles(ctx context.Context, mod string) ([]FileInfo, error) {
	modPath, err := l.modPath(mod)
	if err != nil {
		return nil, err
	}

	// WalkDir does not descend into a symlinked root
	if fi, err := os.Lstat(modPath); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(modPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mod %s: %w", mod, err)
		}
		modPath = resolved
	}

	var files []FileInfo

	err = filepath.WalkDir(modPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(modPath, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(p)
			if err == nil && target.IsDir() {
				return nil
			}
			// dangling links are still listed, like any other entry
			if err == nil {
				info = target
			}
		}

		files = append(files, FileInfo{
			Path:         p,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        false,
			Permissions:  uint32(info.Mode().Perm()),
			RelativePath: relPath,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list mod %s: %w", mod, err)
	}

	return files, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, mod, path string) (io.ReadCloser, error) {
	fullPath, err := l.filePath(mod, path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists checks if a file exists inside a mod
func (l *Local) Exists(ctx context.Context, mod, path string) (bool, error) {
	fullPath, err := l.filePath(mod, path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, mod, path string) (*FileInfo, error) {
	fullPath, err := l.filePath(mod, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Path:         fullPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: path,
	}, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func (l *Local) modPath(mod string) (string, error) {
	if mod == "" || mod == "." || mod == ".." || strings.ContainsAny(mod, `/\`) {
		return "", fmt.Errorf("invalid mod name: %q", mod)
	}
	return filepath.Join(l.rootPath, mod), nil
}

// filePath resolves a mod-relative path, refusing paths that escape the mod
func (l *Local) filePath(mod, path string) (string, error) {
	modPath, err := l.modPath(mod)
	if err != nil {
		return "", err
	}

	full := filepath.Join(modPath, path)
	rel, err := filepath.Rel(modPath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes mod directory: %s", path)
	}

	return full, nil
}
