package diff

import (
	"unicode"
	"unicode/utf8"
)

// Match is one occurrence of a search term. Line is 1-based; Column and
// Length are byte offsets within the line.
type Match struct {
	// Offset is the byte offset of the match in the searched buffer
	Offset int
	Line   int
	Column int
	Length int
}

// Search returns every case-insensitive, non-overlapping occurrence of term
// in lines, in reading order. Offsets count each line break as one byte.
// An empty term has no matches.
func Search(lines []string, term string) []Match {
	if term == "" {
		return nil
	}

	var matches []Match
	start := 0
	for i, line := range lines {
		for col := 0; col < len(line); {
			if n, ok := prefixFold(line[col:], term); ok {
				matches = append(matches, Match{Offset: start + col, Line: i + 1, Column: col, Length: n})
				col += n
				continue
			}
			_, size := utf8.DecodeRuneInString(line[col:])
			col += size
		}
		start += len(line) + 1
	}
	return matches
}

// SearchText searches text split into lines. Offsets index text itself,
// whatever its line endings.
func SearchText(text, term string) []Match {
	matches := Search(SplitLines(text), term)
	if len(matches) == 0 {
		return matches
	}
	starts := lineStarts(text)
	for i := range matches {
		matches[i].Offset = starts[matches[i].Line-1] + matches[i].Column
	}
	return matches
}

// lineStarts returns the byte offset of every line SplitLines would produce
func lineStarts(text string) []int {
	var starts []int
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			starts = append(starts, start)
			start = i + 1
		case '\r':
			starts = append(starts, start)
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		starts = append(starts, start)
	}
	return starts
}

// prefixFold reports whether s starts with prefix under Unicode case
// folding, returning the number of bytes of s consumed
func prefixFold(s, prefix string) (int, bool) {
	i := 0
	for _, pr := range prefix {
		if i >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if !equalFoldRune(sr, pr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	// Walk the fold orbit of a looking for b
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// Navigator cycles through a fixed list of matches
type Navigator struct {
	matches []Match
	current int
}

// NewNavigator creates a navigator positioned before the first match
func NewNavigator(matches []Match) *Navigator {
	return &Navigator{matches: matches, current: -1}
}

// Len returns the number of matches
func (n *Navigator) Len() int {
	return len(n.matches)
}

// Index returns the current position, or -1 before the first move
func (n *Navigator) Index() int {
	return n.current
}

// Next moves to the following match, wrapping from the last to the first
func (n *Navigator) Next() (Match, bool) {
	if len(n.matches) == 0 {
		return Match{}, false
	}
	n.current = (n.current + 1) % len(n.matches)
	return n.matches[n.current], true
}

// Prev moves to the preceding match, wrapping from the first to the last.
// Before any move it selects the last match.
func (n *Navigator) Prev() (Match, bool) {
	if len(n.matches) == 0 {
		return Match{}, false
	}
	if n.current < 0 {
		n.current = len(n.matches) - 1
	} else {
		n.current = (n.current - 1 + len(n.matches)) % len(n.matches)
	}
	return n.matches[n.current], true
}
