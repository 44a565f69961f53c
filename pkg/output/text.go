package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sdejongh/modclash/pkg/models"
)

// TextFormatter writes the plain report used for files and the clipboard
type TextFormatter struct{}

// NewTextFormatter creates a new plain text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Write renders the active and excluded sections
func (f *TextFormatter) Write(w io.Writer, r *Report) error {
	generated := r.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	fmt.Fprintf(w, "RDR2 LML Mod Conflict Report\n")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(w, "Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "LML Directory: %s\n\n", r.Root)
	fmt.Fprintf(w, "Total Conflicts: %d\n", len(r.Active))
	fmt.Fprintf(w, "Excluded Files: %d\n\n", excludedCount(r))

	fmt.Fprintf(w, "ACTIVE CONFLICTS:\n")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("-", 40))
	for _, c := range sortedByPath(r.Active) {
		writeTextConflict(w, c)
	}

	if len(r.Excluded) > 0 {
		fmt.Fprintf(w, "EXCLUDED FILES:\n")
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("-", 40))
		for _, c := range sortedByPath(r.Excluded) {
			writeTextConflict(w, c)
		}
	}

	return nil
}

func writeTextConflict(w io.Writer, c models.Conflict) {
	fmt.Fprintf(w, "File: %s\n", c.Path)
	fmt.Fprintf(w, "Severity: %s\n", c.Severity)
	fmt.Fprintf(w, "Conflicting Mods (%d):\n", len(c.Mods))
	mods := append([]string(nil), c.Mods...)
	sort.Strings(mods)
	for _, m := range mods {
		fmt.Fprintf(w, "  - %s\n", m)
	}
	fmt.Fprintf(w, "\n")
}

// Name returns the formatter name
func (f *TextFormatter) Name() string {
	return "text"
}

// excludedCount prefers the summary, which also counts excluded paths that
// are no longer conflicts
func excludedCount(r *Report) int {
	if r.Summary != nil {
		return r.Summary.Excluded
	}
	return len(r.Excluded)
}

func sortedByPath(rows []models.Conflict) []models.Conflict {
	out := append([]models.Conflict(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
