package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/sdejongh/modclash/pkg/models"
)

// HumanFormatter formats output for a terminal
type HumanFormatter struct {
	opts Options
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(opts Options) *HumanFormatter {
	return &HumanFormatter{opts: opts}
}

// styles are resolved per writer so non-terminals get plain text
type styles struct {
	header   lipgloss.Style
	faint    lipgloss.Style
	path     lipgloss.Style
	warn     lipgloss.Style
	errStyle lipgloss.Style
	severity map[models.Severity]lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	s := styles{
		header:   r.NewStyle(),
		faint:    r.NewStyle(),
		path:     r.NewStyle(),
		warn:     r.NewStyle(),
		errStyle: r.NewStyle(),
		severity: map[models.Severity]lipgloss.Style{
			models.SeverityHigh:   r.NewStyle(),
			models.SeverityMedium: r.NewStyle(),
			models.SeverityLow:    r.NewStyle(),
		},
	}
	if !color {
		return s
	}
	s.header = s.header.Bold(true).Foreground(lipgloss.Color("63"))
	s.faint = s.faint.Faint(true)
	s.path = s.path.Foreground(lipgloss.Color("39"))
	s.warn = s.warn.Foreground(lipgloss.Color("214"))
	s.errStyle = s.errStyle.Foreground(lipgloss.Color("197"))
	s.severity[models.SeverityHigh] = s.severity[models.SeverityHigh].Bold(true).Foreground(lipgloss.Color("#f38ba8"))
	s.severity[models.SeverityMedium] = s.severity[models.SeverityMedium].Foreground(lipgloss.Color("#fab387"))
	s.severity[models.SeverityLow] = s.severity[models.SeverityLow].Foreground(lipgloss.Color("#a6e3a1"))
	return s
}

// terminalWidth returns the width of w when it is a terminal, else 120
func terminalWidth(w io.Writer) int {
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 120
}

// Write renders scan statistics, the summary and the conflict table
func (f *HumanFormatter) Write(w io.Writer, r *Report) error {
	st := newStyles(w, f.opts.Color)
	width := f.opts.Width
	if width <= 0 {
		width = terminalWidth(w)
	}

	if r.Scan != nil {
		source := "walked"
		if r.Scan.FromCache {
			source = "from cache"
		}
		fmt.Fprintf(w, "%s\n", st.faint.Render(fmt.Sprintf(
			"Scanned %s: %d mods, %d files, %d unique paths (%s, %s)",
			r.Root, r.Scan.Stats.ModsScanned, r.Scan.Stats.FilesScanned,
			r.Scan.Stats.UniquePaths, source, formatDuration(r.Scan.Duration))))

		for _, e := range r.Scan.Errors {
			fmt.Fprintf(w, "%s\n", st.warn.Render(fmt.Sprintf("  skipped mod %s: %s", e.Mod, e.Error)))
		}
		fmt.Fprintln(w)
	}

	if r.Summary != nil {
		fmt.Fprintf(w, "%s\n", st.header.Render(SummaryLine(r)))
		if r.Summary.HasTextConflicts() {
			fmt.Fprintf(w, "%s\n", st.faint.Render(fmt.Sprintf(
				"Note: %d .gxt2 conflicts are usually harmless string table overlaps", r.Summary.TextConflicts)))
		}
		fmt.Fprintln(w)
	}

	if len(r.Active) == 0 {
		fmt.Fprintf(w, "No conflicts found\n")
	} else {
		f.writeTable(w, st, width, r.Active, r.Duplicates)
	}

	if len(r.Excluded) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.header.Render(fmt.Sprintf("Excluded (%d)", len(r.Excluded))))
		f.writeTable(w, st, width, r.Excluded, nil)
	}

	if len(r.Groups) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.header.Render("By file type"))
		for _, g := range r.Groups {
			fmt.Fprintf(w, "  %-14s %d\n", g.Extension, g.Count)
		}
	}

	return nil
}

func (f *HumanFormatter) writeTable(w io.Writer, st styles, width int, rows []models.Conflict, duplicates map[string]bool) {
	for _, c := range rows {
		sev := st.severity[c.Severity].Render(fmt.Sprintf("%-6s", c.Severity))
		mods := strings.Join(c.Mods, ", ")

		// severity, count and padding take 14 columns
		avail := width - 14
		path := truncate(c.Path, avail)
		rest := ""
		if room := avail - runeLen(path) - 2; room >= 4 {
			rest = "  " + truncate(mods, room)
		}

		marker := ""
		if duplicates != nil && duplicates[c.Path] {
			marker = st.faint.Render(" (identical)")
		}
		fmt.Fprintf(w, "%s %3d  %s%s%s\n", sev, c.Count(), st.path.Render(path), st.faint.Render(rest), marker)
	}
}

// SummaryLine renders the one-line summary
func SummaryLine(r *Report) string {
	s := r.Summary
	if s == nil {
		return ""
	}
	if s.ActiveConflicts == 0 && s.Excluded == 0 {
		return "No conflicts found"
	}
	return fmt.Sprintf("Total: %d conflicts | Affected mods: %d | High severity: %d | Texture conflicts: %d | Excluded: %d",
		s.ActiveConflicts, s.AffectedMods, s.HighSeverity, s.TextureConflicts, s.Excluded)
}

// truncate shortens s to max runes with a trailing ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func runeLen(s string) int {
	return len([]rune(s))
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
