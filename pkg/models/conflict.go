package models

import "strings"

// Severity is the derived importance of a conflict
type Severity string

const (
	// SeverityHigh marks conflicts likely to break the game
	SeverityHigh Severity = "High"
	// SeverityMedium marks conflicts worth reviewing
	SeverityMedium Severity = "Medium"
	// SeverityLow marks conflicts that are usually harmless
	SeverityLow Severity = "Low"
)

// Rank orders severities from most to least important (High=0)
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// ParseSeverity converts a user supplied severity name, case-insensitively.
// "high severity" style labels are accepted as well.
func ParseSeverity(s string) (Severity, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, " severity")
	switch s {
	case "high":
		return SeverityHigh, true
	case "medium":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	}
	return "", false
}

// Conflict is a relative path provided by more than one mod
type Conflict struct {
	// Path is the relative path shared by the mods
	Path string `json:"path"`

	// Mods are the owning mods in enumeration order
	Mods []string `json:"mods"`

	// Severity is derived from Path and Mods on every read
	Severity Severity `json:"severity"`

	// Excluded is true when the path is suppressed from the active view
	Excluded bool `json:"excluded,omitempty"`
}

// Count returns the number of owning mods
func (c *Conflict) Count() int {
	return len(c.Mods)
}

// Owns reports whether mod provides this path
func (c *Conflict) Owns(mod string) bool {
	for _, m := range c.Mods {
		if m == mod {
			return true
		}
	}
	return false
}
