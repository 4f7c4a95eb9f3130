package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/specdex/specdex/internal/domain"
)

// ExtractPDF pulls the text layer out of a PDF, one segment per page joined
// with PageSeparator. Pages with no extractable text come back as empty
// segments so Parse reports them as the image-only degraded case and the
// page numbering of the readable remainder stays correct.
func ExtractPDF(title string, content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", title, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages fail to decode; surface them as empty segments.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, PageSeparator), nil
}

// ParsePDF extracts the PDF text layer and parses it. An unreadable file is a
// document-level ParseError; unreadable pages are page-level ones.
func ParsePDF(
	arena *domain.Arena, docIdx int, title string,
	kind domain.DocumentKind, content []byte,
) []*domain.ParseError {
	text, err := ExtractPDF(title, content)
	if err != nil {
		return []*domain.ParseError{{Document: title, Reason: err.Error()}}
	}
	return Parse(arena, docIdx, title, kind, text)
}
