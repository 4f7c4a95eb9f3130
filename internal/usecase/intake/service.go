// Package intake drives the guided form: a finite state machine over an
// ordered checklist, each accepted field backed by a retrieval lookup. The
// audit trail is linear: fields are never revisited, and a
// correction means a new session, not a backward transition.
package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/logger"
	"github.com/specdex/specdex/internal/usecase/query"
)

// Phase is the session lifecycle phase.
type Phase string

const (
	// PhaseAwaitingField means the session waits on the current field.
	PhaseAwaitingField Phase = "awaiting-field"
	// PhaseComplete means every required field is filled.
	PhaseComplete Phase = "complete"
	// PhaseAbandoned means the caller cancelled the session.
	PhaseAbandoned Phase = "abandoned"
)

// FieldAnswer is one collected value with its supporting proof. CitationGap
// marks a field that was accepted without supporting citations, so the final
// output can flag it.
type FieldAnswer struct {
	FieldID     string
	Value       string
	Citations   []domain.Citation
	CitationGap bool
}

// Session is the immutable view of one intake session returned to callers.
type Session struct {
	ID         string
	ProjectID  string
	SnapshotID string
	Checklist  []Field
	Answers    []FieldAnswer
	Phase      Phase
	FieldIndex int
}

// Current returns the field the session is waiting on.
func (s Session) Current() (Field, bool) {
	if s.Phase != PhaseAwaitingField || s.FieldIndex >= len(s.Checklist) {
		return Field{}, false
	}
	return s.Checklist[s.FieldIndex], true
}

// QueryResolver looks up supporting citations for a field requirement.
type QueryResolver interface {
	Resolve(ctx context.Context, req query.Request) (domain.Answer, error)
}

// SnapshotResolver pins the whole session to one snapshot at start.
type SnapshotResolver interface {
	Resolve(ctx context.Context, projectID string) (string, error)
}

type session struct {
	Session
	mu   sync.Mutex
	busy bool
}

// Service owns intake sessions. A session is single-owner: concurrent answers
// to the same session are rejected, sessions are independent of each other.
type Service struct {
	queries   QueryResolver
	snapshots SnapshotResolver

	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates an intake service.
func New(queries QueryResolver, snapshots SnapshotResolver) *Service {
	return &Service{queries: queries, snapshots: snapshots, sessions: make(map[string]*session)}
}

// Start opens a session over the checklist, resolving the project's snapshot
// once so every field lookup in the session sees the same corpus.
func (s *Service) Start(ctx context.Context, projectID string, checklist []Field) (Session, error) {
	if len(checklist) == 0 {
		return Session{}, fmt.Errorf("checklist is required")
	}

	snapID, err := s.snapshots.Resolve(ctx, projectID)
	if err != nil {
		return Session{}, err
	}

	sess := &session{Session: Session{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		SnapshotID: snapID,
		Checklist:  checklist,
		Phase:      PhaseAwaitingField,
	}}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.view(), nil
}

// Answer accepts a value for the current field and advances the machine. The
// field's lookup runs against the session snapshot; a missing or refused
// lookup records a citation gap but never blocks acceptance.
func (s *Service) Answer(ctx context.Context, sessionID, value string) (Session, error) {
	if strings.TrimSpace(value) == "" {
		return Session{}, fmt.Errorf("field value is required")
	}

	sess, err := s.get(sessionID)
	if err != nil {
		return Session{}, err
	}

	sess.mu.Lock()
	if sess.busy {
		sess.mu.Unlock()
		return Session{}, domain.ErrSessionBusy
	}
	if sess.Phase != PhaseAwaitingField {
		sess.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionTerminal, sess.Phase)
	}
	field := sess.Checklist[sess.FieldIndex]
	sess.busy = true
	sess.mu.Unlock()

	answer, lookupErr := s.queries.Resolve(ctx, query.Request{
		Query:      field.Lookup,
		SnapshotID: sess.SnapshotID,
	})

	fa := FieldAnswer{FieldID: field.ID, Value: strings.TrimSpace(value)}
	switch {
	case lookupErr != nil:
		logger.FromContext(ctx).Warn("intake lookup failed, recording citation gap",
			zap.String("session_id", sessionID),
			zap.String("field_id", field.ID),
			zap.Error(lookupErr),
		)
		fa.CitationGap = true
	case answer.Refused, len(answer.Citations) == 0:
		fa.CitationGap = true
	default:
		fa.Citations = answer.Citations
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.busy = false
	// The session may have been abandoned while the lookup was in flight.
	// A terminal session never accepts the late answer.
	if sess.Phase != PhaseAwaitingField {
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionTerminal, sess.Phase)
	}
	sess.Answers = append(sess.Answers, fa)
	sess.FieldIndex++
	if sess.FieldIndex >= len(sess.Checklist) {
		sess.Phase = PhaseComplete
	}
	return sess.viewLocked(), nil
}

// Abandon cancels a session. Reachable from any non-terminal state.
func (s *Service) Abandon(_ context.Context, sessionID string) (Session, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Session{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.Phase == PhaseComplete || sess.Phase == PhaseAbandoned {
		return Session{}, fmt.Errorf("%w: %s", domain.ErrSessionTerminal, sess.Phase)
	}
	sess.Phase = PhaseAbandoned
	return sess.viewLocked(), nil
}

// Get returns the current session state.
func (s *Service) Get(_ context.Context, sessionID string) (Session, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Session{}, err
	}
	return sess.view(), nil
}

func (s *Service) get(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

func (s *session) view() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *session) viewLocked() Session {
	v := s.Session
	v.Checklist = append([]Field(nil), s.Checklist...)
	v.Answers = append([]FieldAnswer(nil), s.Answers...)
	return v
}
