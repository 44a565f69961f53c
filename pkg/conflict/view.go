package conflict

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sdejongh/modclash/pkg/models"
)

// NoExtension labels paths without a file extension
const NoExtension = "No Extension"

// SortKey selects the row order of a view
type SortKey string

const (
	SortPath     SortKey = "path"
	SortMods     SortKey = "mods"
	SortCount    SortKey = "count"
	SortSeverity SortKey = "severity"
)

// ParseSortKey validates a user supplied sort key; "" selects SortPath
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(strings.ToLower(s)) {
	case SortPath, "":
		return SortPath, true
	case SortMods:
		return SortMods, true
	case SortCount:
		return SortCount, true
	case SortSeverity:
		return SortSeverity, true
	}
	return "", false
}

// Filter narrows and orders a view
type Filter struct {
	// Excluded selects the excluded view instead of the active one
	Excluded bool
	// Search matches case-insensitively against the path and mod names
	Search string
	// Extension keeps only paths with this extension (".ytd" or NoExtension)
	Extension string
	// Severity keeps only rows of this severity when set
	Severity models.Severity
	// DisabledExtensions hides rows whose extension is listed
	DisabledExtensions []string
	Sort               SortKey
	// Reverse inverts the chosen order
	Reverse bool
}

// Extension returns the extension of path including the dot, or NoExtension
func Extension(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return NoExtension
}

// Conflicts returns every conflict of the current scan with severity and
// exclusion state filled in, ordered by path
func (e *Engine) Conflicts() ([]models.Conflict, error) {
	idx, err := e.Index()
	if err != nil {
		return nil, err
	}
	conflicts := idx.Conflicts()
	for i := range conflicts {
		c := &conflicts[i]
		c.Severity = e.classifier.Classify(c.Path, c.Mods)
		c.Excluded = e.exclusions.Contains(c.Path)
	}
	return conflicts, nil
}

// Lookup returns the conflict at path, or false when path has fewer than
// two owners
func (e *Engine) Lookup(path string) (models.Conflict, bool) {
	idx, err := e.Index()
	if err != nil || !idx.IsConflict(path) {
		return models.Conflict{}, false
	}
	mods := idx.Owners(path)
	return models.Conflict{
		Path:     path,
		Mods:     mods,
		Severity: e.classifier.Classify(path, mods),
		Excluded: e.exclusions.Contains(path),
	}, true
}

// View returns the active or excluded conflicts matching f.
// The active view is every conflict not excluded; the excluded view is
// every excluded path that is still a conflict.
func (e *Engine) View(f Filter) ([]models.Conflict, error) {
	all, err := e.Conflicts()
	if err != nil {
		return nil, err
	}

	disabled := make(map[string]bool, len(f.DisabledExtensions))
	for _, ext := range f.DisabledExtensions {
		disabled[strings.ToLower(ext)] = true
	}
	term := strings.ToLower(f.Search)

	rows := make([]models.Conflict, 0, len(all))
	for _, c := range all {
		if c.Excluded != f.Excluded {
			continue
		}
		ext := Extension(c.Path)
		if disabled[strings.ToLower(ext)] {
			continue
		}
		if f.Extension != "" && !strings.EqualFold(f.Extension, ext) {
			continue
		}
		if f.Severity != "" && c.Severity != f.Severity {
			continue
		}
		if term != "" && !matchesSearch(c, term) {
			continue
		}
		rows = append(rows, c)
	}

	sortConflicts(rows, f.Sort, f.Reverse)
	return rows, nil
}

func matchesSearch(c models.Conflict, term string) bool {
	if strings.Contains(strings.ToLower(c.Path), term) {
		return true
	}
	for _, m := range c.Mods {
		if strings.Contains(strings.ToLower(m), term) {
			return true
		}
	}
	return false
}

// sortConflicts orders rows by key with path as the tie breaker.
// Count sorts descending; the others ascending.
func sortConflicts(rows []models.Conflict, key SortKey, reverse bool) {
	less := func(a, b *models.Conflict) bool {
		switch key {
		case SortMods:
			am, bm := strings.Join(a.Mods, ", "), strings.Join(b.Mods, ", ")
			if am != bm {
				return am < bm
			}
		case SortCount:
			if a.Count() != b.Count() {
				return a.Count() > b.Count()
			}
		case SortSeverity:
			if a.Severity.Rank() != b.Severity.Rank() {
				return a.Severity.Rank() < b.Severity.Rank()
			}
		}
		return a.Path < b.Path
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if reverse {
			return less(&rows[j], &rows[i])
		}
		return less(&rows[i], &rows[j])
	})
}
