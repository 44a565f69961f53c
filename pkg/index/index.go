// Package index aggregates per-mod listings into path ownership and conflicts.
package index

import (
	"sort"

	"github.com/sdejongh/modclash/pkg/models"
)

// Index is an immutable snapshot of one scan.
// It is replaced wholesale by the next scan, never mutated in place.
type Index struct {
	ownership models.Ownership
	conflicts []string // sorted paths with more than one owner
	mods      []string // every mod that owns at least one path, sorted
	pairs     int
}

// Build groups (mod, path) pairs from listings in order. Mods are appended
// per path in arrival order and deduplicated.
func Build(listings []models.ModListing) *Index {
	own := make(models.Ownership)
	for _, l := range listings {
		if l.Err != nil {
			continue
		}
		for _, p := range l.Files {
			own[p] = appendUnique(own[p], l.Mod)
		}
	}
	return FromOwnership(own)
}

// FromOwnership builds an index from an existing ownership map, such as
// one restored from the scan cache. The map is copied.
func FromOwnership(own models.Ownership) *Index {
	idx := &Index{ownership: make(models.Ownership, len(own))}

	modSet := make(map[string]struct{})
	for path, mods := range own {
		var dedup []string
		for _, m := range mods {
			dedup = appendUnique(dedup, m)
		}
		idx.ownership[path] = dedup
		idx.pairs += len(dedup)

		if len(dedup) > 1 {
			idx.conflicts = append(idx.conflicts, path)
		}
		for _, m := range dedup {
			modSet[m] = struct{}{}
		}
	}
	sort.Strings(idx.conflicts)

	for m := range modSet {
		idx.mods = append(idx.mods, m)
	}
	sort.Strings(idx.mods)

	return idx
}

func appendUnique(mods []string, mod string) []string {
	for _, m := range mods {
		if m == mod {
			return mods
		}
	}
	return append(mods, mod)
}

// Ownership returns a copy of the raw path ownership
func (i *Index) Ownership() models.Ownership {
	return i.ownership.Clone()
}

// Owners returns the mods providing path, or nil
func (i *Index) Owners(path string) []string {
	mods := i.ownership[path]
	if mods == nil {
		return nil
	}
	out := make([]string, len(mods))
	copy(out, mods)
	return out
}

// IsConflict reports whether path is owned by more than one mod
func (i *Index) IsConflict(path string) bool {
	return len(i.ownership[path]) > 1
}

// ConflictPaths returns the conflicting paths in sorted order
func (i *Index) ConflictPaths() []string {
	out := make([]string, len(i.conflicts))
	copy(out, i.conflicts)
	return out
}

// Conflicts returns the conflict subset, sorted by path. Severity is left
// empty; it is derived by the caller.
func (i *Index) Conflicts() []models.Conflict {
	out := make([]models.Conflict, 0, len(i.conflicts))
	for _, p := range i.conflicts {
		out = append(out, models.Conflict{Path: p, Mods: i.Owners(p)})
	}
	return out
}

// ConflictCount returns the number of conflicting paths
func (i *Index) ConflictCount() int {
	return len(i.conflicts)
}

// PathCount returns the number of distinct paths
func (i *Index) PathCount() int {
	return len(i.ownership)
}

// PairCount returns the number of (mod, path) pairs
func (i *Index) PairCount() int {
	return i.pairs
}

// Mods returns every mod that provides at least one file, sorted
func (i *Index) Mods() []string {
	out := make([]string, len(i.mods))
	copy(out, i.mods)
	return out
}
