// Package registry owns snapshot identity and project pins. Snapshot ids are
// content-derived, so re-indexing byte-identical input yields the same id. A
// pin binds a project to one snapshot and moves only on an explicit re-pin:
// ingesting new documents never touches existing pins, which is what keeps a
// project's answers stable while the corpus moves on.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/specdex/specdex/internal/db"
	"github.com/specdex/specdex/internal/domain"
)

// Latest is the project id alias for the most recently published snapshot.
const Latest = "latest"

// Input is one document's contribution to a snapshot id.
type Input struct {
	Title    string
	Kind     domain.DocumentKind
	Revision string
	Content  []byte
}

// ComputeSnapshotID derives a deterministic snapshot id from document
// content. Inputs are sorted by (title, revision) first, so ingestion order
// does not change the id.
func ComputeSnapshotID(inputs []Input) string {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Title != sorted[j].Title {
			return sorted[i].Title < sorted[j].Title
		}
		return sorted[i].Revision < sorted[j].Revision
	})

	h := sha256.New()
	var lenBuf [8]byte
	writeField := func(b []byte) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
		h.Write(lenBuf[:])
		h.Write(b)
	}
	for _, in := range sorted {
		writeField([]byte(in.Title))
		writeField([]byte(in.Kind))
		writeField([]byte(in.Revision))
		writeField(in.Content)
	}

	sum := h.Sum(nil)
	return "snap-" + hex.EncodeToString(sum[:16])
}

// Verifier checks that a snapshot id is stored before a pin may reference it.
type Verifier interface {
	Exists(ctx context.Context, snapshotID string) (bool, error)
}

// Registry is the pin table plus the latest pointer. Pin and resolve are
// mutually exclusive per project id and independent across projects.
type Registry struct {
	store    db.Store
	verifier Verifier
	prefix   string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a registry over the given store.
func New(store db.Store, verifier Verifier, keyPrefix string) *Registry {
	return &Registry{
		store:    store,
		verifier: verifier,
		prefix:   keyPrefix,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *Registry) pinKey(projectID string) string { return r.prefix + "pin:" + projectID }
func (r *Registry) latestKey() string              { return r.prefix + "latest" }

// projectLock returns the mutex for one project id.
func (r *Registry) projectLock(projectID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[projectID] = l
	}
	return l
}

// RegisterLatest records a freshly published snapshot as the latest. Pins are
// untouched.
func (r *Registry) RegisterLatest(ctx context.Context, snapshotID string) error {
	if err := r.store.Set(ctx, r.latestKey(), []byte(snapshotID)); err != nil {
		return fmt.Errorf("set latest: %w", err)
	}
	return nil
}

// Pin binds a project to a snapshot. The snapshot must exist. Re-pinning is
// the only way a pin moves.
func (r *Registry) Pin(ctx context.Context, projectID, snapshotID string) error {
	if projectID == "" || projectID == Latest {
		return fmt.Errorf("invalid project id %q", projectID)
	}

	l := r.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	ok, err := r.verifier.Exists(ctx, snapshotID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSnapshot, snapshotID)
	}

	if err := r.store.Set(ctx, r.pinKey(projectID), []byte(snapshotID)); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Unpin removes a project's pin. The project falls back to latest.
func (r *Registry) Unpin(ctx context.Context, projectID string) error {
	l := r.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	if err := r.store.Del(ctx, r.pinKey(projectID)); err != nil {
		return fmt.Errorf("del pin: %w", err)
	}
	return nil
}

// Resolve maps a project id (or Latest, or empty) to a snapshot id. A pinned
// project resolves to its pin regardless of later ingests; an unpinned one
// falls back to latest.
func (r *Registry) Resolve(ctx context.Context, projectID string) (string, error) {
	if projectID == "" || projectID == Latest {
		return r.latest(ctx)
	}

	l := r.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	data, err := r.store.Get(ctx, r.pinKey(projectID))
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return "", fmt.Errorf("get pin: %w", err)
	}
	return r.latest(ctx)
}

// ResolvePin returns a project's pin without the latest fallback.
func (r *Registry) ResolvePin(ctx context.Context, projectID string) (string, error) {
	data, err := r.store.Get(ctx, r.pinKey(projectID))
	if errors.Is(err, db.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", domain.ErrPinNotFound, projectID)
	}
	if err != nil {
		return "", fmt.Errorf("get pin: %w", err)
	}
	return string(data), nil
}

func (r *Registry) latest(ctx context.Context) (string, error) {
	data, err := r.store.Get(ctx, r.latestKey())
	if errors.Is(err, db.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: no snapshots published", domain.ErrUnknownSnapshot)
	}
	if err != nil {
		return "", fmt.Errorf("get latest: %w", err)
	}
	return string(data), nil
}
