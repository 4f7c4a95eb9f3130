package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/specdex/specdex/internal/domain"
)

// ChunkConfig shapes the embedding input for long units.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// Loader rehydrates a previously persisted snapshot and its semantic entries
// on a published-set miss. Optional.
type Loader interface {
	Load(ctx context.Context, snapshotID string) (*domain.Snapshot, []Entry, error)
}

// Saver persists a freshly built index so it survives a restart. Optional.
type Saver interface {
	Save(ctx context.Context, idx *Index) error
}

// Store holds the published indexes. Builds are single-writer per snapshot
// id: a concurrent build of the same id is rejected with
// ErrIndexBuildConflict, never interleaved. Publication swaps the map entry
// under the lock, so readers see either the whole index or none of it.
type Store struct {
	embedder domain.Embedder
	chunk    ChunkConfig
	loader   Loader
	saver    Saver

	mu        sync.RWMutex
	published map[string]*Index
	building  map[string]bool
}

// NewStore creates an index store.
func NewStore(embedder domain.Embedder, chunk ChunkConfig) *Store {
	return &Store{
		embedder:  embedder,
		chunk:     chunk,
		published: make(map[string]*Index),
		building:  make(map[string]bool),
	}
}

// WithPersistence attaches a save/load backend.
func (s *Store) WithPersistence(loader Loader, saver Saver) *Store {
	s.loader = loader
	s.saver = saver
	return s
}

// Build embeds the snapshot's units, assembles both indexes and publishes
// them atomically. Rebuilding an already-published snapshot id is idempotent:
// the prior index for that id is replaced in one step. Returns the published
// index.
func (s *Store) Build(ctx context.Context, snap *domain.Snapshot) (*Index, error) {
	id := snap.ID()

	s.mu.Lock()
	if s.building[id] {
		s.mu.Unlock()
		return nil, domain.NewBuildConflict(id)
	}
	s.building[id] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.building, id)
		s.mu.Unlock()
	}()

	entries, err := s.embedUnits(ctx, snap)
	if err != nil {
		return nil, err
	}
	idx := NewIndex(snap, entries)

	if s.saver != nil {
		if err := s.saver.Save(ctx, idx); err != nil {
			return nil, fmt.Errorf("persist snapshot %s: %w", id, err)
		}
	}

	s.mu.Lock()
	s.published[id] = idx
	s.mu.Unlock()

	return idx, nil
}

// Get returns the published index for a snapshot id, rehydrating from the
// persistence backend when the process restarted since the build.
func (s *Store) Get(ctx context.Context, snapshotID string) (*Index, error) {
	s.mu.RLock()
	idx, ok := s.published[snapshotID]
	s.mu.RUnlock()
	if ok {
		return idx, nil
	}

	if s.loader == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSnapshot, snapshotID)
	}
	snap, entries, err := s.loader.Load(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	idx = NewIndex(snap, entries)

	s.mu.Lock()
	// A concurrent Get may have loaded it first; either copy is identical.
	if cur, ok := s.published[snapshotID]; ok {
		idx = cur
	} else {
		s.published[snapshotID] = idx
	}
	s.mu.Unlock()

	return idx, nil
}

// embedUnits produces semantic entries for every non-empty unit. Page units
// longer than the chunk size contribute several entries.
func (s *Store) embedUnits(ctx context.Context, snap *domain.Snapshot) ([]Entry, error) {
	var entries []Entry
	for _, u := range snap.Units().Units() {
		for _, chunk := range chunkText(u.Text(), s.chunk.Size, s.chunk.Overlap) {
			res, err := s.embedder.Embed(ctx, chunk)
			if err != nil {
				return nil, fmt.Errorf("embed unit %d: %w", u.Key(), err)
			}
			entries = append(entries, Entry{Unit: u.Key(), Vector: res.Embedding})
		}
	}
	return entries, nil
}
