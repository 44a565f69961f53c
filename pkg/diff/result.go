package diff

// LineKind classifies a line of one side of a comparison
type LineKind int

const (
	// Unchanged lines are equal to the line at the same index on the other side
	Unchanged LineKind = iota
	// Changed lines differ from the line at the same index on the other side
	Changed
	// Appended lines lie beyond the end of the shorter side
	Appended
)

func (k LineKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Appended:
		return "appended"
	default:
		return "unknown"
	}
}

// Line is one classified line. Number is 1-based.
type Line struct {
	Number int
	Text   string
	Kind   LineKind
}

// Result is the per-line classification of both sides
type Result struct {
	Left  []Line
	Right []Line

	// Binary is set when either side failed the binary probe; no lines are
	// classified then
	Binary bool

	// Changed counts indexes where both sides have a line and they differ
	Changed int

	// Appended counts lines past the end of the shorter side
	Appended int
}

// Identical reports whether the text of both sides is line-for-line equal.
// It is always false for binary pairs.
func (r *Result) Identical() bool {
	return !r.Binary && r.Changed == 0 && r.Appended == 0
}
