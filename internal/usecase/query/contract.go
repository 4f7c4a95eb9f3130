package query

import (
	"context"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/index"
)

// IndexProvider serves published indexes by snapshot id.
type IndexProvider interface {
	Get(ctx context.Context, snapshotID string) (*index.Index, error)
}

// SnapshotResolver maps a project id (or "latest") to a snapshot id.
type SnapshotResolver interface {
	Resolve(ctx context.Context, projectID string) (string, error)
}

// IdentifierScanner finds identifier-shaped substrings in free query text.
type IdentifierScanner interface {
	FindAll(text string) []domain.Identifier
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Answerer optionally rewords the extractive synthesis. It receives the
// question and the cited unit texts and must stay within them; the citation
// set is fixed before it runs and it cannot add or remove citations.
type Answerer interface {
	Polish(ctx context.Context, question string, contexts []string) (string, error)
}
