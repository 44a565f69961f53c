package conflict

import (
	"sort"
	"strings"

	"github.com/sdejongh/modclash/pkg/models"
)

// Summary aggregates the active view
type Summary struct {
	ActiveConflicts  int                     `json:"active_conflicts"`
	AffectedMods     int                     `json:"affected_mods"`
	HighSeverity     int                     `json:"high_severity"`
	TextureConflicts int                     `json:"texture_conflicts"`
	Excluded         int                     `json:"excluded"`
	BySeverity       map[models.Severity]int `json:"by_severity"`
	// TextConflicts counts .gxt2 conflicts, which are usually harmless
	// string table overlaps
	TextConflicts int `json:"gxt2_conflicts"`
}

// HasTextConflicts reports whether .gxt2 conflicts are present
func (s *Summary) HasTextConflicts() bool {
	return s.TextConflicts > 0
}

// TypeGroup is the number of conflicts sharing one extension
type TypeGroup struct {
	Extension string   `json:"extension"`
	Count     int      `json:"count"`
	Paths     []string `json:"paths"`
}

// Summary computes counts over the active conflicts of the current scan.
// Excluded counts every excluded path, conflict or not.
func (e *Engine) Summary() (*Summary, error) {
	all, err := e.Conflicts()
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Excluded: e.exclusions.Len(),
		BySeverity: map[models.Severity]int{
			models.SeverityHigh:   0,
			models.SeverityMedium: 0,
			models.SeverityLow:    0,
		},
	}
	mods := make(map[string]struct{})

	for _, c := range all {
		if c.Excluded {
			continue
		}
		s.ActiveConflicts++
		s.BySeverity[c.Severity]++
		if c.Severity == models.SeverityHigh {
			s.HighSeverity++
		}
		if strings.HasSuffix(c.Path, ".ytd") {
			s.TextureConflicts++
		}
		if strings.HasSuffix(c.Path, ".gxt2") {
			s.TextConflicts++
		}
		for _, m := range c.Mods {
			mods[m] = struct{}{}
		}
	}
	s.AffectedMods = len(mods)

	return s, nil
}

// TypeGroups groups conflicts of one view by extension, largest group first
func (e *Engine) TypeGroups(excluded bool) ([]TypeGroup, error) {
	rows, err := e.View(Filter{Excluded: excluded})
	if err != nil {
		return nil, err
	}

	byExt := make(map[string]*TypeGroup)
	for _, c := range rows {
		ext := Extension(c.Path)
		g, ok := byExt[ext]
		if !ok {
			g = &TypeGroup{Extension: ext}
			byExt[ext] = g
		}
		g.Count++
		g.Paths = append(g.Paths, c.Path)
	}

	groups := make([]TypeGroup, 0, len(byExt))
	for _, g := range byExt {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Extension < groups[j].Extension
	})
	return groups, nil
}
