package exclude

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesAny checks if a relative path matches any of the given patterns.
// Patterns support:
//   - Simple glob patterns: *.ytd, *.meta (matched against the base name)
//   - Directory patterns: stream/, textures/ (any path below such a directory)
//   - Path patterns: data/*.xml, **/horse*.ytd (doublestar, full path)
func MatchesAny(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	// Normalize path separators for cross-platform support
	normalizedPath := filepath.ToSlash(relativePath)
	baseName := filepath.Base(relativePath)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		normalizedPattern := filepath.ToSlash(pattern)

		if strings.HasSuffix(normalizedPattern, "/") {
			dirPattern := strings.TrimSuffix(normalizedPattern, "/")
			if strings.HasPrefix(normalizedPath, dirPattern+"/") ||
				strings.Contains(normalizedPath, "/"+dirPattern+"/") {
				return true
			}
			continue
		}

		if strings.Contains(normalizedPattern, "/") {
			if matched, err := doublestar.Match(normalizedPattern, normalizedPath); err == nil && matched {
				return true
			}
			continue
		}

		if matched, err := doublestar.Match(normalizedPattern, baseName); err == nil && matched {
			return true
		}
	}

	return false
}

// ValidatePatterns returns an error for the first malformed pattern
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}
