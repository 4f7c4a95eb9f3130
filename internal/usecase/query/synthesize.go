package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/specdex/specdex/internal/domain"
)

// synthesize builds the extractive answer text: one line per citation, drawn
// strictly from the cited units' own snippets. Nothing outside the citation
// set contributes a word.
func synthesize(citations []domain.Citation) string {
	var b strings.Builder
	for i, c := range citations {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(citationLabel(c))
		b.WriteString(": ")
		b.WriteString(c.Snippet)
	}
	return b.String()
}

// citationLabel renders the proof pointer the way the transcript prints it.
func citationLabel(c domain.Citation) string {
	if c.Identifier.IsUnidentified() {
		return fmt.Sprintf("%s rev %s, p. %d", c.DocTitle, c.Revision, c.Page)
	}
	return fmt.Sprintf("%s (%s rev %s, p. %d)", c.Identifier, c.DocTitle, c.Revision, c.Page)
}

// makeSnippet compacts unit text into a readable excerpt and emphasizes the
// first occurrence of the query phrase when it appears verbatim.
func makeSnippet(text, query string, maxChars int) string {
	compact := strings.Join(strings.Fields(text), " ")

	q := strings.TrimSpace(query)
	if q != "" {
		// The byte offset comes from the lowered string; lowering can shift
		// offsets for some scripts, so only emphasize when the slice of the
		// original actually matches.
		i := strings.Index(strings.ToLower(compact), strings.ToLower(q))
		if i >= 0 && i+len(q) <= len(compact) && strings.EqualFold(compact[i:i+len(q)], q) {
			compact = compact[:i] + "**" + compact[i:i+len(q)] + "**" + compact[i+len(q):]
		}
	}

	if len(compact) > maxChars {
		end := maxChars
		for end > 0 && !utf8.RuneStart(compact[end]) {
			end--
		}
		cut := compact[:end]
		if j := strings.LastIndex(cut, " "); j > maxChars/2 {
			cut = cut[:j]
		}
		compact = cut + "…"
	}
	return compact
}
