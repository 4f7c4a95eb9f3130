// Package query resolves free-text questions against one snapshot, returning
// answers whose every citation traces to a retrieved unit. The resolver never
// fabricates a citation: exact identifier hits outrank semantic hits, ties
// break deterministically, and when nothing clears the confidence floor the
// outcome is a hard refusal rather than a guess.
package query

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/index"
	"github.com/specdex/specdex/internal/logger"
	"github.com/specdex/specdex/internal/metrics"
)

// Request is one query resolution input. SnapshotID wins over ProjectID;
// with neither set, the latest snapshot is used.
type Request struct {
	Query      string
	ProjectID  string
	SnapshotID string
	Kind       domain.DocumentKind
}

// Config holds resolver tuning.
type Config struct {
	TopK            int
	ConfidenceFloor float64
	SnippetChars    int
}

// Service is the query resolver.
type Service struct {
	provider IndexProvider
	resolver SnapshotResolver
	scanner  IdentifierScanner
	embedder Embedder
	answerer Answerer
	cfg      Config
}

// New creates a query service. answerer may be nil; synthesis is then purely
// extractive.
func New(
	provider IndexProvider, resolver SnapshotResolver,
	scanner IdentifierScanner, embedder Embedder, cfg Config,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = 240
	}
	return &Service{provider: provider, resolver: resolver, scanner: scanner, embedder: embedder, cfg: cfg}
}

// WithAnswerer attaches the optional answer polisher.
func (s *Service) WithAnswerer(a Answerer) *Service {
	s.answerer = a
	return s
}

// Resolve answers one query. It is a pure function of snapshot state and the
// request: no side effects beyond metrics and logging.
func (s *Service) Resolve(ctx context.Context, req Request) (domain.Answer, error) {
	start := time.Now()
	answer, err := s.resolve(ctx, req)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeError).Inc()
	case answer.Refused:
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeRefused).Inc()
	default:
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeAnswered).Inc()
	}
	return answer, err
}

func (s *Service) resolve(ctx context.Context, req Request) (domain.Answer, error) {
	if strings.TrimSpace(req.Query) == "" {
		return domain.Answer{}, fmt.Errorf("query text is required")
	}

	snapID := req.SnapshotID
	if snapID == "" {
		var err error
		snapID, err = s.resolver.Resolve(ctx, req.ProjectID)
		if err != nil {
			return domain.Answer{}, err
		}
	}

	idx, err := s.provider.Get(ctx, snapID)
	if err != nil {
		return domain.Answer{}, err
	}
	if !idx.HasDocKind(req.Kind) {
		if req.Kind == "" {
			return domain.Answer{}, fmt.Errorf("%w: snapshot %s has no units", domain.ErrEmptyIndex, snapID)
		}
		return domain.Answer{}, fmt.Errorf("%w: snapshot %s has no %s units", domain.ErrEmptyIndex, snapID, req.Kind)
	}

	// Step 1: exact identifier lookup for identifier-shaped substrings.
	exactKeys := s.exactCandidates(idx, req)

	// Step 2: semantic retrieval.
	semantic, err := s.semanticCandidates(ctx, idx, req)
	if err != nil {
		return domain.Answer{}, err
	}

	// Steps 3-4: merge. Exact hits always outrank semantic hits; semantic
	// ordering (score, kind priority, ordinal) comes pre-sorted from the index.
	selected, confidence := s.selectCitations(exactKeys, semantic)

	// Step 6: refuse below the confidence floor rather than guess.
	if len(selected) == 0 || confidence < s.cfg.ConfidenceFloor {
		logger.FromContext(ctx).Info("query refused",
			zap.String("snapshot_id", snapID),
			zap.Float64("confidence", confidence),
		)
		return domain.Refusal(snapID, "no confident answer in the pinned snapshot", confidence), nil
	}

	// Step 5: synthesize strictly from the selected units.
	citations := s.buildCitations(idx, snapID, req.Query, selected)
	text := synthesize(citations)
	if s.answerer != nil {
		text = s.polish(ctx, req.Query, idx, selected, text)
	}

	return domain.Answer{
		Text:       text,
		Citations:  citations,
		Confidence: confidence,
		SnapshotID: snapID,
	}, nil
}

// exactCandidates resolves identifier-shaped substrings and quoted phrases to
// unit keys. Both feed the exact tier.
func (s *Service) exactCandidates(idx *index.Index, req Request) []domain.UnitKey {
	var keys []domain.UnitKey
	seen := make(map[domain.UnitKey]bool)
	add := func(key domain.UnitKey) {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, id := range s.scanner.FindAll(req.Query) {
		for _, key := range idx.Exact(id) {
			if u, ok := idx.Snapshot().Units().Get(key); ok && matchesDocKind(idx, u, req.Kind) {
				add(key)
			}
		}
	}
	for _, phrase := range quotedPhrases(req.Query) {
		for _, key := range idx.Literal(phrase, req.Kind) {
			add(key)
		}
	}
	return keys
}

func (s *Service) semanticCandidates(
	ctx context.Context, idx *index.Index, req Request,
) ([]index.Scored, error) {
	res, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return idx.Semantic(res.Embedding, s.cfg.TopK, req.Kind), nil
}

// selectCitations picks the minimal sufficient citation set. When exact hits
// exist they are the answer's proof and confidence is certain; otherwise the
// best semantic hits above the floor are kept, capped to keep the set minimal.
func (s *Service) selectCitations(
	exactKeys []domain.UnitKey, semantic []index.Scored,
) ([]domain.UnitKey, float64) {
	if len(exactKeys) > 0 {
		return exactKeys, 1.0
	}

	const maxSemanticCitations = 3
	var (
		selected   []domain.UnitKey
		confidence float64
	)
	for i, sc := range semantic {
		if i == 0 {
			confidence = sc.Score
		}
		if sc.Score < s.cfg.ConfidenceFloor || len(selected) >= maxSemanticCitations {
			break
		}
		selected = append(selected, sc.Unit)
	}
	return selected, confidence
}

// buildCitations assembles the proof pointers, each carrying enough document
// metadata to be rendered without re-querying the index.
func (s *Service) buildCitations(
	idx *index.Index, snapID, query string, keys []domain.UnitKey,
) []domain.Citation {
	citations := make([]domain.Citation, 0, len(keys))
	for _, key := range keys {
		u, ok := idx.Snapshot().Units().Get(key)
		if !ok {
			continue
		}
		doc, _ := idx.Snapshot().Document(u.Doc())
		citations = append(citations, domain.Citation{
			Unit:       key,
			Identifier: u.Identifier(),
			SnapshotID: snapID,
			DocTitle:   doc.Title(),
			Revision:   doc.Revision(),
			Page:       u.Page(),
			Snippet:    makeSnippet(u.Text(), query, s.cfg.SnippetChars),
		})
	}
	return citations
}

// polish lets the configured answerer reword the synthesis from the cited
// unit texts. Failure falls back to the extractive text; citations are fixed
// either way.
func (s *Service) polish(
	ctx context.Context, question string, idx *index.Index,
	selected []domain.UnitKey, fallback string,
) string {
	contexts := make([]string, 0, len(selected))
	for _, key := range selected {
		if u, ok := idx.Snapshot().Units().Get(key); ok {
			contexts = append(contexts, u.Text())
		}
	}
	text, err := s.answerer.Polish(ctx, question, contexts)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.FromContext(ctx).Warn("answer polish failed, using extractive synthesis", zap.Error(err))
		}
		return fallback
	}
	return text
}

func matchesDocKind(idx *index.Index, u domain.Unit, kind domain.DocumentKind) bool {
	if kind == "" {
		return true
	}
	doc, ok := idx.Snapshot().Document(u.Doc())
	return ok && doc.Kind() == kind
}

var quotedRe = regexp.MustCompile(`"([^"]+)"|\x60([^\x60]+)\x60`)

// quotedPhrases pulls literal phrases out of a query for the exact-tier
// phrase search.
func quotedPhrases(query string) []string {
	var phrases []string
	for _, m := range quotedRe.FindAllStringSubmatch(query, -1) {
		p := m[1]
		if p == "" {
			p = m[2]
		}
		if strings.TrimSpace(p) != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}
