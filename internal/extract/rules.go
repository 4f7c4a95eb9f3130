package extract

import (
	"regexp"

	"github.com/specdex/specdex/internal/domain"
)

// Rule maps raw-text variants of one numbering convention onto a canonical
// identifier form. The rule set is configuration data: it is supplied to the
// extractor as a fixed table, never inferred from the corpus at runtime.
type Rule struct {
	// Name labels the convention for diagnostics.
	Name string
	// Kinds restricts the rule to unit kinds; empty means any.
	Kinds []domain.UnitKind
	// Pattern matches a unit's heading. Group 1 captures the structural
	// number or code.
	Pattern *regexp.Regexp
	// QueryPattern matches identifier-shaped substrings in free query text.
	// Stricter than Pattern: a bare number in a question is not a clause
	// reference. Nil disables query scanning for the rule.
	QueryPattern *regexp.Regexp
	// Canonical is the output template; %s receives the captured value.
	Canonical string
	// Upper folds the captured value to upper case (drawing codes).
	Upper bool
}

// appliesTo reports whether the rule covers the unit kind.
func (r Rule) appliesTo(kind domain.UnitKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DefaultRules is the shipped normalization table. Ordering matters: rules
// are evaluated first to last and normalization takes the first match, which
// is what makes the mapping deterministic. The loose decimal clause rule is
// last so "Table 4" never normalizes as a clause.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:         "table",
			Kinds:        []domain.UnitKind{domain.UnitTable},
			Pattern:      regexp.MustCompile(`(?i)\btable\s+([A-Z]?\d+(?:\.\d+)*)\b`),
			QueryPattern: regexp.MustCompile(`(?i)\btable\s+([A-Z]?\d+(?:\.\d+)*)\b`),
			Canonical:    "Table %s",
			Upper:        true,
		},
		{
			Name:         "footnote",
			Kinds:        []domain.UnitKind{domain.UnitFootnote},
			Pattern:      regexp.MustCompile(`(?i)\b(?:foot)?note\s*(\d+)\b`),
			QueryPattern: regexp.MustCompile(`(?i)\b(?:foot)?note\s*(\d+)\b`),
			Canonical:    "Footnote %s",
		},
		{
			Name:         "drawing",
			Kinds:        []domain.UnitKind{domain.UnitDrawingSheet},
			Pattern:      regexp.MustCompile(`(?i)\b(?:drawing|dwg\.?|sheet)?\s*([A-Z]{1,3}\d{3,5})\b`),
			QueryPattern: regexp.MustCompile(`(?i)\b(?:drawing|dwg\.?|sheet)\s*([A-Za-z]{1,3}\d{3,5})\b|\b([A-Z]{1,3}\d{3,5})\b`),
			Canonical:    "Drawing %s",
			Upper:        true,
		},
		{
			Name:         "clause",
			Kinds:        []domain.UnitKind{domain.UnitClause},
			Pattern:      regexp.MustCompile(`(?i)^(?:clause|cl\.?|section)?\s*(\d+(?:\.\d+)*)\b`),
			QueryPattern: regexp.MustCompile(`(?i)\b(?:clause|cl\.?|section)\s*(\d+(?:\.\d+)*)\b`),
			Canonical:    "Cl. %s",
		},
	}
}
