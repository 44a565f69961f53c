// Package severity classifies conflicts with an ordered first-match rule table.
package severity

import (
	"strings"

	"github.com/sdejongh/modclash/pkg/models"
)

// Predicate decides whether a rule applies to a conflict
type Predicate func(path string, owners int) bool

// Rule is one row of the classification table.
// Result computes the severity when Match holds.
type Rule struct {
	Name   string
	Match  Predicate
	Result func(path string, owners int) models.Severity
}

// Classifier evaluates rules in order; the first match wins
type Classifier struct {
	rules    []Rule
	fallback models.Severity
}

// New creates a classifier with the given rules and fallback severity
func New(rules []Rule, fallback models.Severity) *Classifier {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Classifier{rules: cp, fallback: fallback}
}

// Default returns the classifier for RDR2 LML mods:
//
//	.meta or more than 4 owners          -> High
//	more than 2 owners or .xml/.dat/.ydd -> Medium
//	.ytd                                 -> High if more than 2 owners, else Medium
//	anything else                        -> Low
func Default() *Classifier {
	return New(DefaultRules(), models.SeverityLow)
}

// DefaultRules returns a fresh copy of the default rule table
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "metadata-or-crowded",
			Match: func(path string, owners int) bool {
				return strings.HasSuffix(path, ".meta") || owners > 4
			},
			Result: fixed(models.SeverityHigh),
		},
		{
			Name: "shared-or-data",
			Match: func(path string, owners int) bool {
				return owners > 2 || hasAnySuffix(path, ".xml", ".dat", ".ydd")
			},
			Result: fixed(models.SeverityMedium),
		},
		{
			// In the default order the High branch never fires: the rule above
			// already claims every path with more than 2 owners.
			Name: "texture",
			Match: func(path string, owners int) bool {
				return strings.HasSuffix(path, ".ytd")
			},
			Result: func(path string, owners int) models.Severity {
				if owners > 2 {
					return models.SeverityHigh
				}
				return models.SeverityMedium
			},
		},
	}
}

func fixed(s models.Severity) func(string, int) models.Severity {
	return func(string, int) models.Severity { return s }
}

func hasAnySuffix(path string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// Classify returns the severity of a path owned by the given mods
func (c *Classifier) Classify(path string, mods []string) models.Severity {
	sev, _ := c.Explain(path, mods)
	return sev
}

// Explain returns the severity and the name of the rule that produced it.
// The name is empty when the fallback applied.
func (c *Classifier) Explain(path string, mods []string) (models.Severity, string) {
	owners := len(mods)
	for _, r := range c.rules {
		if r.Match(path, owners) {
			return r.Result(path, owners), r.Name
		}
	}
	return c.fallback, ""
}

// Rules returns the rule names in evaluation order
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}
