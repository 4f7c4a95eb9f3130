package domain

import "fmt"

// DocumentKind classifies an ingested document.
type DocumentKind string

const (
	KindSpec     DocumentKind = "spec"
	KindDrawing  DocumentKind = "drawing"
	KindTechNote DocumentKind = "tech-note"
)

// ParseDocumentKind validates a wire-level kind string.
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch DocumentKind(s) {
	case KindSpec, KindDrawing, KindTechNote:
		return DocumentKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

func (k DocumentKind) String() string { return string(k) }

// UnitKind classifies a retrieval unit inside a document.
type UnitKind string

const (
	UnitPage         UnitKind = "page"
	UnitClause       UnitKind = "clause"
	UnitTable        UnitKind = "table"
	UnitFootnote     UnitKind = "footnote"
	UnitDrawingSheet UnitKind = "drawing-sheet"
)

// Priority ranks unit kinds for tie-breaking between equally scored hits.
// Lower is stronger: a clause outranks a table, a table outranks a footnote,
// and whole pages and drawing sheets come last.
func (k UnitKind) Priority() int {
	switch k {
	case UnitClause:
		return 0
	case UnitTable:
		return 1
	case UnitFootnote:
		return 2
	case UnitPage:
		return 3
	case UnitDrawingSheet:
		return 4
	default:
		return 5
	}
}

// ParseUnitKind validates a wire-level unit kind string.
func ParseUnitKind(s string) (UnitKind, error) {
	switch UnitKind(s) {
	case UnitPage, UnitClause, UnitTable, UnitFootnote, UnitDrawingSheet:
		return UnitKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

func (k UnitKind) String() string { return string(k) }
