package domain

import "time"

// Snapshot is an immutable, versioned collection of documents indexed
// together. Once published its unit set never changes; ingesting more
// documents produces a new snapshot with a new id.
type Snapshot struct {
	id      string
	created time.Time
	docs    []Document
	arena   *Arena
}

// NewSnapshot seals documents and their parsed unit arena under a snapshot id.
func NewSnapshot(id string, created time.Time, docs []Document, arena *Arena) *Snapshot {
	return &Snapshot{id: id, created: created.UTC(), docs: docs, arena: arena}
}

// ID returns the snapshot identifier.
func (s *Snapshot) ID() string { return s.id }

// CreatedAt returns the snapshot creation time.
func (s *Snapshot) CreatedAt() time.Time { return s.created }

// Documents returns the documents in ingestion order.
func (s *Snapshot) Documents() []Document { return s.docs }

// Document returns the document at index i.
func (s *Snapshot) Document(i int) (Document, bool) {
	if i < 0 || i >= len(s.docs) {
		return Document{}, false
	}
	return s.docs[i], true
}

// Units returns the unit arena.
func (s *Snapshot) Units() *Arena { return s.arena }
