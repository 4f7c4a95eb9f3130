package ingest

import (
	"context"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/index"
)

// IndexBuilder builds and publishes both indexes for a sealed snapshot.
type IndexBuilder interface {
	Build(ctx context.Context, snap *domain.Snapshot) (*index.Index, error)
}

// Catalog records a published snapshot as the latest.
type Catalog interface {
	RegisterLatest(ctx context.Context, snapshotID string) error
}

// IdentifierTagger attaches canonical identifiers to parsed units. It
// returns the number of units left unidentified due to ambiguous headings.
type IdentifierTagger interface {
	Apply(arena *domain.Arena) int
}
