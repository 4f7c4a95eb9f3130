package domain

import (
	"fmt"
	"time"
)

// Document is the metadata of one indexed source document. The raw bytes stay
// with the caller; once indexed the document is owned by its snapshot.
type Document struct {
	title    string
	kind     DocumentKind
	revision string
	ingested time.Time
}

// NewDocument validates and creates a Document.
func NewDocument(title string, kind DocumentKind, revision string, ingested time.Time) (Document, error) {
	if title == "" {
		return Document{}, fmt.Errorf("document title is required")
	}
	if _, err := ParseDocumentKind(string(kind)); err != nil {
		return Document{}, err
	}
	if revision == "" {
		return Document{}, fmt.Errorf("document revision label is required")
	}
	return Document{title: title, kind: kind, revision: revision, ingested: ingested.UTC()}, nil
}

// ReconstructDocument creates a Document without validation (storage hydration).
func ReconstructDocument(title string, kind DocumentKind, revision string, ingested time.Time) Document {
	return Document{title: title, kind: kind, revision: revision, ingested: ingested}
}

// Title returns the human-readable document title.
func (d Document) Title() string { return d.title }

// Kind returns the document kind.
func (d Document) Kind() DocumentKind { return d.kind }

// Revision returns the human-readable revision label.
func (d Document) Revision() string { return d.revision }

// IngestedAt returns the ingestion timestamp.
func (d Document) IngestedAt() time.Time { return d.ingested }
