// Package ingest runs the indexing pipeline: structural parsing, identifier
// extraction, snapshot sealing and index publication. Versioning is
// append-only: every ingest produces a new snapshot and existing pins never
// move.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/logger"
	"github.com/specdex/specdex/internal/metrics"
	"github.com/specdex/specdex/internal/parser"
	"github.com/specdex/specdex/internal/registry"
)

// Document is one ingestion input: metadata plus either raw text (pages
// separated by form feed) or PDF bytes.
type Document struct {
	Title    string
	Kind     domain.DocumentKind
	Revision string
	Text     string
	PDF      []byte
}

// Result reports one ingest run. ParseErrors are recoverable per-unit
// failures; the snapshot covers everything that did parse.
type Result struct {
	SnapshotID  string
	Units       int
	ParseErrors []*domain.ParseError
}

// Service is the ingestion pipeline.
type Service struct {
	builder IndexBuilder
	catalog Catalog
	tagger  IdentifierTagger
	now     func() time.Time
}

// New creates an ingest service.
func New(builder IndexBuilder, catalog Catalog, tagger IdentifierTagger) *Service {
	return &Service{builder: builder, catalog: catalog, tagger: tagger, now: time.Now}
}

// WithClock overrides the clock (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ingest parses, extracts, indexes and publishes one batch of documents as a
// new immutable snapshot. The snapshot id is derived from content, so
// re-ingesting byte-identical input republishes the same id.
func (s *Service) Ingest(ctx context.Context, docs []Document) (Result, error) {
	if len(docs) == 0 {
		return Result{}, domain.ErrNoDocuments
	}

	ingestedAt := s.now().UTC()
	arena := &domain.Arena{}
	metaDocs := make([]domain.Document, 0, len(docs))
	inputs := make([]registry.Input, 0, len(docs))
	var parseErrs []*domain.ParseError

	for i, d := range docs {
		meta, err := domain.NewDocument(d.Title, d.Kind, d.Revision, ingestedAt)
		if err != nil {
			return Result{}, fmt.Errorf("document %d: %w", i, err)
		}
		metaDocs = append(metaDocs, meta)

		content := []byte(d.Text)
		if len(d.PDF) > 0 {
			content = d.PDF
			parseErrs = append(parseErrs, parser.ParsePDF(arena, i, d.Title, d.Kind, d.PDF)...)
		} else {
			parseErrs = append(parseErrs, parser.Parse(arena, i, d.Title, d.Kind, d.Text)...)
		}
		inputs = append(inputs, registry.Input{
			Title:    d.Title,
			Kind:     d.Kind,
			Revision: d.Revision,
			Content:  content,
		})
	}

	ambiguous := s.tagger.Apply(arena)
	if ambiguous > 0 {
		logger.FromContext(ctx).Warn("ambiguous identifiers downgraded to unidentified",
			zap.Int("count", ambiguous),
		)
	}

	for _, u := range arena.Units() {
		metrics.UnitsParsedTotal.WithLabelValues(string(u.Kind())).Inc()
	}
	metrics.ParseErrorsTotal.Add(float64(len(parseErrs)))

	id := registry.ComputeSnapshotID(inputs)
	snap := domain.NewSnapshot(id, ingestedAt, metaDocs, arena)

	if _, err := s.builder.Build(ctx, snap); err != nil {
		return Result{}, fmt.Errorf("build index: %w", err)
	}
	if err := s.catalog.RegisterLatest(ctx, id); err != nil {
		return Result{}, fmt.Errorf("register snapshot: %w", err)
	}
	metrics.SnapshotsBuiltTotal.Inc()

	logger.FromContext(ctx).Info("snapshot published",
		zap.String("snapshot_id", id),
		zap.Int("documents", len(docs)),
		zap.Int("units", arena.Len()),
		zap.Int("parse_errors", len(parseErrs)),
	)

	return Result{SnapshotID: id, Units: arena.Len(), ParseErrors: parseErrs}, nil
}
