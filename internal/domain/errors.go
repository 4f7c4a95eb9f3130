package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSnapshot signals a snapshot id that does not resolve.
	ErrUnknownSnapshot = errors.New("unknown snapshot")
	// ErrEmptyIndex signals a snapshot with no indexed units of the requested kind.
	ErrEmptyIndex = errors.New("empty index")
	// ErrIndexBuildConflict signals a concurrent build attempt on the same snapshot.
	ErrIndexBuildConflict = errors.New("index build conflict")
	// ErrPinNotFound signals a project with no pin set.
	ErrPinNotFound = errors.New("pin not found")
	// ErrUnsupportedKind signals a kind outside the closed document/unit kind set.
	ErrUnsupportedKind = errors.New("unsupported kind")
	// ErrNoDocuments signals an ingest request with nothing to index.
	ErrNoDocuments = errors.New("no documents")
	// ErrSessionNotFound signals a missing intake session.
	ErrSessionNotFound = errors.New("intake session not found")
	// ErrSessionTerminal signals an answer sent to a complete or abandoned session.
	ErrSessionTerminal = errors.New("intake session already terminal")
	// ErrSessionBusy signals a concurrent answer on one intake session.
	ErrSessionBusy = errors.New("intake session busy")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ParseError reports one unparseable page or structural unit. It is recoverable:
// ingestion keeps going and the caller receives the full list alongside the
// snapshot id, so one image-only page never blocks the rest of a corpus.
type ParseError struct {
	Document string
	Page     int
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("parse %s page %d: %s", e.Document, e.Page, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Document, e.Reason)
}

// BuildConflictError wraps ErrIndexBuildConflict with the contested snapshot id.
type BuildConflictError struct {
	SnapshotID string
}

func (e *BuildConflictError) Error() string {
	return fmt.Sprintf("%s: build already in flight for %s", ErrIndexBuildConflict.Error(), e.SnapshotID)
}

func (e *BuildConflictError) Unwrap() error { return ErrIndexBuildConflict }

// NewBuildConflict creates an index build conflict error.
func NewBuildConflict(snapshotID string) error {
	return &BuildConflictError{SnapshotID: snapshotID}
}
