// Package exclude holds the set of conflict paths the user has suppressed.
package exclude

import (
	"sort"
	"sync"
)

// Set is a mutable set of excluded relative paths.
// It lives independently of any index: excluding a path that is not a
// conflict is legal and simply has no visible effect.
type Set struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

// New creates a set seeded with paths
func New(paths ...string) *Set {
	s := &Set{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

// Exclude adds path. It reports whether the path was newly added.
func (s *Set) Exclude(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// Restore removes path. It reports whether the path was present.
func (s *Set) Restore(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; !ok {
		return false
	}
	delete(s.paths, path)
	return true
}

// RestoreAll empties the set and returns how many paths were removed
func (s *Set) RestoreAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.paths)
	s.paths = make(map[string]struct{})
	return n
}

// Contains reports whether path is excluded
func (s *Set) Contains(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of excluded paths
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// List returns the excluded paths in sorted order
func (s *Set) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Partition splits paths into the active view (not excluded) and the
// excluded view (excluded), preserving input order in both
func (s *Set) Partition(paths []string) (active, excluded []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range paths {
		if _, ok := s.paths[p]; ok {
			excluded = append(excluded, p)
		} else {
			active = append(active, p)
		}
	}
	return active, excluded
}

// ExcludeMatching excludes every path in candidates matching any of the
// patterns and returns the number of newly excluded paths
func (s *Set) ExcludeMatching(candidates []string, patterns []string) (int, error) {
	if err := ValidatePatterns(patterns); err != nil {
		return 0, err
	}

	added := 0
	for _, p := range candidates {
		if MatchesAny(p, patterns) && s.Exclude(p) {
			added++
		}
	}
	return added, nil
}
