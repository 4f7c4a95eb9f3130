// Package parser turns raw documents into ordered trees of addressable units.
// Parsing is structural only: it segments pages into clauses, tables and
// footnotes by shape, and leaves canonical identifier assignment to the
// extractor. Partial success is the default: a bad page yields a ParseError
// and the rest of the document is still indexed.
package parser

import (
	"regexp"
	"strings"

	"github.com/specdex/specdex/internal/domain"
)

// PageSeparator splits raw text into pages. PDF extraction emits one page per
// segment; plain-text ingestion may supply a single page.
const PageSeparator = "\f"

// letteredDepth is the synthetic nesting depth of "(a)"-style sub-clauses,
// deeper than any realistic decimal numbering.
const letteredDepth = 99

var (
	clauseHeading   = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+\S`)
	letteredHeading = regexp.MustCompile(`^\(([a-z])\)\s+\S`)
	tableHeading    = regexp.MustCompile(`(?i)^table\s+[A-Z]?\d+`)
	footnoteHeading = regexp.MustCompile(`(?i)^(?:note|footnote)\s*\d*\s*[:.–-]?\s`)
)

// Parse segments one document's raw text into units appended to the arena.
// docIdx is the document's position within the snapshot under construction.
// Returned parse errors are recoverable: units for the readable remainder of
// the document are still produced.
func Parse(
	arena *domain.Arena, docIdx int, title string,
	kind domain.DocumentKind, text string,
) []*domain.ParseError {
	pages := strings.Split(text, PageSeparator)

	var errs []*domain.ParseError
	for i, pageText := range pages {
		pageNo := i + 1
		if strings.TrimSpace(pageText) == "" {
			errs = append(errs, &domain.ParseError{
				Document: title,
				Page:     pageNo,
				Reason:   "no extractable text layer",
			})
			continue
		}

		switch kind {
		case domain.KindDrawing:
			arena.Append(domain.NewUnit(domain.UnitDrawingSheet, domain.NoParent, docIdx, pageText, pageNo))
		case domain.KindSpec, domain.KindTechNote:
			parsePage(arena, docIdx, pageText, pageNo)
		default:
			errs = append(errs, &domain.ParseError{
				Document: title,
				Page:     pageNo,
				Reason:   "unsupported document kind " + string(kind),
			})
		}
	}
	return errs
}

// parsePage emits the page unit, then clause/table/footnote units nested under
// it. Clause nesting follows decimal numbering depth; a lettered sub-clause
// nests under the innermost open clause.
func parsePage(arena *domain.Arena, docIdx int, pageText string, pageNo int) {
	pageKey := arena.Append(domain.NewUnit(domain.UnitPage, domain.NoParent, docIdx, pageText, pageNo))

	type openClause struct {
		depth int
		key   domain.UnitKey
	}
	var stack []openClause

	parentFor := func(depth int) domain.UnitKey {
		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return pageKey
		}
		return stack[len(stack)-1].key
	}
	innermost := func() domain.UnitKey {
		if len(stack) == 0 {
			return pageKey
		}
		return stack[len(stack)-1].key
	}

	for _, block := range segment(pageText) {
		head := block.lines[0]
		body := strings.Join(block.lines, "\n")

		switch block.kind {
		case domain.UnitClause:
			depth := 1
			if m := clauseHeading.FindStringSubmatch(head); m != nil {
				depth = strings.Count(m[1], ".") + 1
			} else if letteredHeading.MatchString(head) {
				// Lettered sub-clauses sit one level below the innermost
				// numbered clause and are siblings of each other.
				parent := parentFor(letteredDepth)
				key := arena.Append(domain.NewUnit(domain.UnitClause, parent, docIdx, body, pageNo))
				stack = append(stack, openClause{depth: letteredDepth, key: key})
				continue
			}
			parent := parentFor(depth)
			key := arena.Append(domain.NewUnit(domain.UnitClause, parent, docIdx, body, pageNo))
			stack = append(stack, openClause{depth: depth, key: key})
		case domain.UnitTable:
			arena.Append(domain.NewUnit(domain.UnitTable, innermost(), docIdx, body, pageNo))
		case domain.UnitFootnote:
			arena.Append(domain.NewUnit(domain.UnitFootnote, innermost(), docIdx, body, pageNo))
		}
	}
}

type block struct {
	kind  domain.UnitKind
	lines []string
}

// segment groups a page's lines into structural blocks. Lines before the
// first marker belong to the page unit alone and produce no block.
func segment(pageText string) []block {
	var blocks []block
	var cur *block

	for _, raw := range strings.Split(pageText, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)

		kind, isMarker := classify(trimmed)
		if isMarker {
			blocks = append(blocks, block{kind: kind, lines: []string{trimmed}})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if cur != nil && trimmed != "" {
			cur.lines = append(cur.lines, trimmed)
		}
	}
	return blocks
}

func classify(line string) (domain.UnitKind, bool) {
	switch {
	case line == "":
		return "", false
	case tableHeading.MatchString(line):
		return domain.UnitTable, true
	case footnoteHeading.MatchString(line):
		return domain.UnitFootnote, true
	case clauseHeading.MatchString(line), letteredHeading.MatchString(line):
		return domain.UnitClause, true
	}
	return "", false
}
