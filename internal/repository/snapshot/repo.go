// Package snapshot persists published snapshots and their semantic entries so
// previously issued citations stay resolvable across restarts.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/specdex/specdex/internal/db"
	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/index"
)

// Meta is a catalog row for one stored snapshot.
type Meta struct {
	ID        string
	CreatedAt time.Time
	Documents int
	Units     int
}

// Repo stores snapshots as JSON blobs in the db.Store.
type Repo struct {
	store  db.Store
	prefix string
}

// New creates a snapshot repository.
func New(store db.Store, keyPrefix string) *Repo {
	return &Repo{store: store, prefix: keyPrefix}
}

func (r *Repo) key(id string) string { return r.prefix + "snap:" + id }

// Save persists an index's snapshot and vectors. Saving the same snapshot id
// twice is idempotent by construction: identical input produces identical
// bytes.
func (r *Repo) Save(ctx context.Context, idx *index.Index) error {
	data, err := json.Marshal(toDTO(idx))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.store.Set(ctx, r.key(idx.Snapshot().ID()), data); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Load rehydrates a snapshot and its semantic entries.
func (r *Repo) Load(ctx context.Context, snapshotID string) (*domain.Snapshot, []index.Entry, error) {
	data, err := r.store.Get(ctx, r.key(snapshotID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownSnapshot, snapshotID)
		}
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}

	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, nil, fmt.Errorf("unmarshal snapshot %s: %w", snapshotID, err)
	}
	snap, entries := fromDTO(dto)
	return snap, entries, nil
}

// List returns catalog metadata for all stored snapshots, newest first.
func (r *Repo) List(ctx context.Context) ([]Meta, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"snap:*")
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}

	metas := make([]Meta, 0, len(keys))
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and get
			}
			return nil, fmt.Errorf("load snapshot %s: %w", k, err)
		}
		var dto snapshotDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot %s: %w", strings.TrimPrefix(k, r.prefix), err)
		}
		metas = append(metas, Meta{
			ID:        dto.ID,
			CreatedAt: dto.CreatedAt,
			Documents: len(dto.Documents),
			Units:     len(dto.Units),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.After(metas[j].CreatedAt)
		}
		return metas[i].ID < metas[j].ID
	})
	return metas, nil
}

// Exists reports whether a snapshot id is stored.
func (r *Repo) Exists(ctx context.Context, snapshotID string) (bool, error) {
	_, err := r.store.Get(ctx, r.key(snapshotID))
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check snapshot: %w", err)
	}
	return true, nil
}
