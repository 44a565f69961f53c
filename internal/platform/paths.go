package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath cleans path and makes it absolute when possible
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	if abs, err := filepath.Abs(normalized); err == nil && !IsUNCPath(normalized) {
		return abs
	}
	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// ValidatePath checks if a path is syntactically valid for the current platform
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	if runtime.GOOS == "windows" {
		// skip the volume so "C:" is not reported
		rest := path[len(filepath.VolumeName(path)):]
		for _, char := range []string{"<", ">", ":", "\"", "|", "?", "*"} {
			if strings.Contains(rest, char) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// ValidateRoot checks that root names an existing, readable directory.
// The returned error is a *PathError.
func ValidateRoot(root string) error {
	if err := ValidatePath(root); err != nil {
		return err
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return &PathError{Path: root, Message: "directory does not exist", Err: err}
		}
		return &PathError{Path: root, Message: "cannot access directory", Err: err}
	}
	if !info.IsDir() {
		return &PathError{Path: root, Message: "not a directory"}
	}

	f, err := os.Open(root)
	if err != nil {
		return &PathError{Path: root, Message: "directory is not readable", Err: err}
	}
	f.Close()

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
	Err     error
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}

func (e *PathError) Unwrap() error {
	return e.Err
}
