// Package extract derives canonical structural identifiers from unit text.
// Extraction is conservative: a unit whose heading matches more than one
// plausible identifier yields Unidentified rather than a guess, because a
// wrong identifier produces a false citation and no identifier does not.
package extract

import (
	"fmt"
	"strings"

	"github.com/specdex/specdex/internal/domain"
)

// Extractor applies a fixed rule table to unit headings and query text.
type Extractor struct {
	rules []Rule
}

// New creates an extractor over the given rule table.
func New(rules []Rule) *Extractor {
	return &Extractor{rules: rules}
}

// NewDefault creates an extractor with the shipped rule table.
func NewDefault() *Extractor {
	return New(DefaultRules())
}

// Extract returns the canonical identifier for a unit, or Unidentified, along
// with the raw variant it matched. Only the heading line is considered; the
// body of a clause routinely cites other clauses and must not contribute.
func (e *Extractor) Extract(kind domain.UnitKind, text string) (domain.Identifier, string) {
	id, variant, _ := e.extract(kind, text)
	return id, variant
}

func (e *Extractor) extract(kind domain.UnitKind, text string) (domain.Identifier, string, bool) {
	head := headingLine(text)
	if head == "" {
		return domain.Unidentified, "", false
	}

	var (
		found   domain.Identifier
		variant string
	)
	for _, r := range e.rules {
		if !r.appliesTo(kind) {
			continue
		}
		for _, m := range r.Pattern.FindAllStringSubmatch(head, -1) {
			id := r.render(m[1])
			if id == found {
				continue
			}
			if found != domain.Unidentified {
				// Ambiguous heading: refuse to pick. Downgraded, not an error.
				return domain.Unidentified, "", true
			}
			found = id
			variant = strings.TrimSpace(m[0])
		}
	}
	return found, variant, false
}

// Normalize maps one raw-text variant to its canonical identifier. The
// mapping is deterministic and total: first matching rule in table order
// wins, and a string no rule matches maps to Unidentified. Normalizing an
// already-canonical identifier returns it unchanged.
func (e *Extractor) Normalize(raw string) domain.Identifier {
	collapsed := collapseWhitespace(raw)
	for _, r := range e.rules {
		if m := r.Pattern.FindStringSubmatch(collapsed); m != nil {
			return r.render(m[1])
		}
	}
	return domain.Unidentified
}

// FindAll scans free query text for identifier-shaped substrings, in order of
// appearance, deduplicated. Used by the query resolver's exact-match step.
func (e *Extractor) FindAll(text string) []domain.Identifier {
	collapsed := collapseWhitespace(text)

	type hit struct {
		pos int
		id  domain.Identifier
	}
	var hits []hit
	seen := make(map[domain.Identifier]bool)

	for _, r := range e.rules {
		if r.QueryPattern == nil {
			continue
		}
		idxs := r.QueryPattern.FindAllStringSubmatchIndex(collapsed, -1)
		for _, loc := range idxs {
			captured := firstGroup(collapsed, loc)
			if captured == "" {
				continue
			}
			id := r.render(captured)
			if seen[id] {
				continue
			}
			seen[id] = true
			hits = append(hits, hit{pos: loc[0], id: id})
		}
	}

	// Order of appearance in the query, not rule order.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].pos > hits[j].pos; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}

	ids := make([]domain.Identifier, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// render builds the canonical form from a captured value.
func (r Rule) render(captured string) domain.Identifier {
	v := strings.Trim(captured, ".")
	if r.Upper {
		v = strings.ToUpper(v)
	}
	return domain.Identifier(fmt.Sprintf(r.Canonical, v))
}

// firstGroup returns the first non-empty capture group of a submatch index set.
func firstGroup(s string, loc []int) string {
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return s[loc[i]:loc[i+1]]
		}
	}
	return ""
}

func headingLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return collapseWhitespace(t)
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Apply walks an arena and attaches identifiers in place. Called once by the
// ingest pipeline between parsing and indexing, before the snapshot is
// sealed. Returns the number of units downgraded to Unidentified because
// their heading was ambiguous, for review logging.
func (e *Extractor) Apply(arena *domain.Arena) int {
	ambiguous := 0
	for _, u := range arena.Units() {
		if u.Kind() == domain.UnitPage {
			continue
		}
		id, variant, amb := e.extract(u.Kind(), u.Text())
		if amb {
			ambiguous++
			continue
		}
		if !id.IsUnidentified() {
			arena.Replace(u.WithIdentifier(id, variant))
		}
	}
	return ambiguous
}
