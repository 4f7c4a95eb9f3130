// Package index builds and serves the two per-snapshot indexes: an exact
// identifier lookup and a semantic similarity index over unit text. Both are
// built together, published atomically, and never mutated afterwards, so a
// partial index state is never queryable.
package index

import (
	"math"
	"sort"
	"strings"

	"github.com/specdex/specdex/internal/domain"
)

// Entry is one semantic index entry: a vector keyed to its unit. A unit may
// own several entries when its text was chunked.
type Entry struct {
	Unit   domain.UnitKey
	Vector []float32
}

// Scored is a semantic candidate with its best similarity score.
type Scored struct {
	Unit  domain.UnitKey
	Score float64
}

// Index is the immutable published pair of indexes for one snapshot.
type Index struct {
	snap      *domain.Snapshot
	exact     map[domain.Identifier][]domain.UnitKey
	semantic  []Entry
	byDocKind map[domain.DocumentKind]int
}

// NewIndex assembles an index from a sealed snapshot and its semantic entries.
// The exact index is derived from the arena's extracted identifiers.
func NewIndex(snap *domain.Snapshot, semantic []Entry) *Index {
	exact := make(map[domain.Identifier][]domain.UnitKey)
	byDocKind := make(map[domain.DocumentKind]int)
	for _, u := range snap.Units().Units() {
		if doc, ok := snap.Document(u.Doc()); ok {
			byDocKind[doc.Kind()]++
		}
		if id := u.Identifier(); !id.IsUnidentified() {
			exact[id] = append(exact[id], u.Key())
		}
	}
	return &Index{snap: snap, exact: exact, semantic: semantic, byDocKind: byDocKind}
}

// Snapshot returns the indexed snapshot.
func (i *Index) Snapshot() *domain.Snapshot { return i.snap }

// Entries returns the semantic entries (persistence support).
func (i *Index) Entries() []Entry { return i.semantic }

// Exact returns the units carrying the given canonical identifier.
func (i *Index) Exact(id domain.Identifier) []domain.UnitKey {
	return i.exact[id]
}

// HasDocKind reports whether the snapshot holds any units from documents of
// the given kind. An empty kind matches any unit.
func (i *Index) HasDocKind(kind domain.DocumentKind) bool {
	if kind == "" {
		return i.snap.Units().Len() > 0
	}
	return i.byDocKind[kind] > 0
}

// Semantic returns the topK units by cosine similarity to the query vector,
// optionally filtered by document kind. Multiple chunks of one unit collapse
// to the unit's best score. Ties are resolved by unit kind priority then
// bounding ordinal, so rankings are reproducible.
func (i *Index) Semantic(query []float32, topK int, kindFilter domain.DocumentKind) []Scored {
	best := make(map[domain.UnitKey]float64)
	for _, e := range i.semantic {
		u, ok := i.snap.Units().Get(e.Unit)
		if !ok || !i.matchesKind(u, kindFilter) {
			continue
		}
		score := cosineSimilarity(query, e.Vector)
		if cur, seen := best[e.Unit]; !seen || score > cur {
			best[e.Unit] = score
		}
	}

	scored := make([]Scored, 0, len(best))
	for key, score := range best {
		scored = append(scored, Scored{Unit: key, Score: score})
	}

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		ua, _ := i.snap.Units().Get(scored[a].Unit)
		ub, _ := i.snap.Units().Get(scored[b].Unit)
		if pa, pb := ua.Kind().Priority(), ub.Kind().Priority(); pa != pb {
			return pa < pb
		}
		return ua.Ordinal() < ub.Ordinal()
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Literal returns units whose text contains the phrase, case-insensitively.
// This is the exact-tier fallback for quoted phrases, inherited from the
// literal page search the engine grew out of.
func (i *Index) Literal(phrase string, kindFilter domain.DocumentKind) []domain.UnitKey {
	needle := strings.ToLower(strings.TrimSpace(phrase))
	if needle == "" {
		return nil
	}
	var keys []domain.UnitKey
	for _, u := range i.snap.Units().Units() {
		if u.Kind() == domain.UnitPage {
			// Pages duplicate their child units' text; citing the child wins.
			continue
		}
		if !i.matchesKind(u, kindFilter) {
			continue
		}
		if strings.Contains(strings.ToLower(u.Text()), needle) {
			keys = append(keys, u.Key())
		}
	}
	if keys == nil {
		// Fall back to page units when no structural unit holds the phrase.
		for _, u := range i.snap.Units().Units() {
			if u.Kind() != domain.UnitPage || !i.matchesKind(u, kindFilter) {
				continue
			}
			if strings.Contains(strings.ToLower(u.Text()), needle) {
				keys = append(keys, u.Key())
			}
		}
	}
	return keys
}

func (i *Index) matchesKind(u domain.Unit, kindFilter domain.DocumentKind) bool {
	if kindFilter == "" {
		return true
	}
	doc, ok := i.snap.Document(u.Doc())
	return ok && doc.Kind() == kindFilter
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for k := range a {
		dot += float64(a[k]) * float64(b[k])
		na += float64(a[k]) * float64(a[k])
		nb += float64(b[k]) * float64(b[k])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
