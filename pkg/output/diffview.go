package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sdejongh/modclash/pkg/diff"
)

// DiffOptions control side-by-side rendering
type DiffOptions struct {
	LeftName  string
	RightName string
	Color     bool
	// Width overrides terminal detection when positive
	Width int
	// OnlyChanges hides unchanged line pairs
	OnlyChanges bool
}

// WriteDiff renders a positional comparison side by side
func WriteDiff(w io.Writer, res *diff.Result, opts DiffOptions) error {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle()
	changed := r.NewStyle()
	appended := r.NewStyle()
	if opts.Color {
		header = header.Bold(true).Foreground(lipgloss.Color("63"))
		changed = changed.Foreground(lipgloss.Color("#f38ba8"))
		appended = appended.Foreground(lipgloss.Color("#a6e3a1"))
	}

	if res.Binary {
		fmt.Fprintf(w, "Binary files cannot be compared line by line\n")
		return nil
	}

	width := opts.Width
	if width <= 0 {
		width = terminalWidth(w)
	}
	// two 5-column line numbers, a marker and separators
	col := (width - 17) / 2
	if col < 10 {
		col = 10
	}

	fmt.Fprintf(w, "%s\n", header.Render(fmt.Sprintf("%-*s | %s", col+7, truncate(opts.LeftName, col+7), opts.RightName)))

	n := len(res.Left)
	if len(res.Right) > n {
		n = len(res.Right)
	}
	for i := 0; i < n; i++ {
		left, right := lineAt(res.Left, i), lineAt(res.Right, i)
		if opts.OnlyChanges && left.Kind == diff.Unchanged && right.Kind == diff.Unchanged {
			continue
		}

		marker := " "
		style := r.NewStyle()
		switch {
		case left.Kind == diff.Changed || right.Kind == diff.Changed:
			marker, style = "~", changed
		case left.Kind == diff.Appended:
			marker, style = "<", appended
		case right.Kind == diff.Appended:
			marker, style = ">", appended
		}

		line := fmt.Sprintf("%5s %-*s %s %5s %s",
			lineNumber(left), col, truncate(expandTabs(left.Text), col), marker,
			lineNumber(right), truncate(expandTabs(right.Text), col))
		fmt.Fprintf(w, "%s\n", style.Render(line))
	}

	fmt.Fprintf(w, "\n%d changed, %d appended\n", res.Changed, res.Appended)
	return nil
}

func lineAt(lines []diff.Line, i int) diff.Line {
	if i < len(lines) {
		return lines[i]
	}
	return diff.Line{}
}

func lineNumber(l diff.Line) string {
	if l.Number == 0 {
		return ""
	}
	return fmt.Sprint(l.Number)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// WriteUnified writes a classic unified diff of the two texts
func WriteUnified(w io.Writer, leftName, rightName, left, right string, context int) error {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(left),
		B:        difflib.SplitLines(right),
		FromFile: leftName,
		ToFile:   rightName,
		Context:  context,
	}
	return difflib.WriteUnifiedDiff(w, ud)
}

// WriteMatches lists search matches of one side, marking the current one
func WriteMatches(w io.Writer, side string, lines []string, matches []diff.Match, current int) {
	if len(matches) == 0 {
		fmt.Fprintf(w, "%s: no matches\n", side)
		return
	}
	fmt.Fprintf(w, "%s: %d matches\n", side, len(matches))
	for i, m := range matches {
		marker := " "
		if i == current {
			marker = ">"
		}
		text := ""
		if m.Line-1 < len(lines) {
			text = lines[m.Line-1]
		}
		fmt.Fprintf(w, "%s %5d:%-4d %s\n", marker, m.Line, m.Column+1, truncate(strings.TrimSpace(text), 100))
	}
}
