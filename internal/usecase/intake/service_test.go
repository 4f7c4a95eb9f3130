package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/usecase/query"
)

// --- Mocks ---

type mockQueries struct {
	mu       sync.Mutex
	answers  map[string]domain.Answer
	err      error
	requests []query.Request
	block    chan struct{}
}

func (m *mockQueries) Resolve(_ context.Context, req query.Request) (domain.Answer, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	if a, ok := m.answers[req.Query]; ok {
		return a, nil
	}
	return domain.Answer{
		SnapshotID: req.SnapshotID,
		Text:       "found",
		Citations:  []domain.Citation{{Identifier: "Cl. 1", SnapshotID: req.SnapshotID}},
		Confidence: 0.8,
	}, nil
}

type mockSnapshots struct {
	snapID string
	err    error
}

func (m *mockSnapshots) Resolve(_ context.Context, _ string) (string, error) {
	return m.snapID, m.err
}

func newTestService(queries *mockQueries) *Service {
	return New(queries, &mockSnapshots{snapID: "snap-s"})
}

// --- Tests ---

func TestSession_FullCulvertFlow(t *testing.T) {
	queries := &mockQueries{}
	svc := newTestService(queries)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "bridge-14", CulvertChecklist())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.Phase != PhaseAwaitingField || sess.FieldIndex != 0 {
		t.Fatalf("initial state = %s/%d", sess.Phase, sess.FieldIndex)
	}
	if sess.SnapshotID != "snap-s" {
		t.Errorf("session snapshot = %q", sess.SnapshotID)
	}
	cur, ok := sess.Current()
	if !ok || cur.ID != "flow_rate" {
		t.Fatalf("current field = %+v ok=%v", cur, ok)
	}

	values := []string{"2.4", "Class 4", "0.6", "SD1246"}
	for i, v := range values {
		sess, err = svc.Answer(ctx, sess.ID, v)
		if err != nil {
			t.Fatalf("Answer %d: %v", i, err)
		}
	}

	if sess.Phase != PhaseComplete {
		t.Fatalf("final phase = %s", sess.Phase)
	}
	if len(sess.Answers) != 4 {
		t.Fatalf("answers = %d", len(sess.Answers))
	}
	for i, a := range sess.Answers {
		if a.Value != values[i] {
			t.Errorf("answer %d value = %q, want %q", i, a.Value, values[i])
		}
		if a.CitationGap || len(a.Citations) == 0 {
			t.Errorf("answer %d missing citations: %+v", i, a)
		}
	}

	// Every lookup ran against the session snapshot, not latest.
	for _, req := range queries.requests {
		if req.SnapshotID != "snap-s" {
			t.Errorf("lookup used snapshot %q", req.SnapshotID)
		}
	}
}

func TestSession_CitationGapOnRefusal(t *testing.T) {
	queries := &mockQueries{answers: map[string]domain.Answer{
		CulvertChecklist()[0].Lookup: domain.Refusal("snap-s", "no confident answer", 0.1),
	}}
	svc := newTestService(queries)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "bridge-14", CulvertChecklist())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess, err = svc.Answer(ctx, sess.ID, "2.4")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if len(sess.Answers) != 1 || !sess.Answers[0].CitationGap {
		t.Fatalf("expected a citation gap: %+v", sess.Answers)
	}
	if sess.Phase != PhaseAwaitingField || sess.FieldIndex != 1 {
		t.Errorf("gap must not block progress: %s/%d", sess.Phase, sess.FieldIndex)
	}
}

func TestSession_CitationGapOnLookupError(t *testing.T) {
	queries := &mockQueries{err: errors.New("index gone")}
	svc := newTestService(queries)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, "p", CulvertChecklist())
	sess, err := svc.Answer(ctx, sess.ID, "2.4")
	if err != nil {
		t.Fatalf("lookup failure must not fail the answer: %v", err)
	}
	if !sess.Answers[0].CitationGap {
		t.Error("expected a citation gap")
	}
}

func TestSession_AbandonFromIntermediateState(t *testing.T) {
	svc := newTestService(&mockQueries{})
	ctx := context.Background()

	sess, _ := svc.Start(ctx, "p", CulvertChecklist())
	sess, err := svc.Answer(ctx, sess.ID, "2.4")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	sess, err = svc.Abandon(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if sess.Phase != PhaseAbandoned {
		t.Fatalf("phase = %s", sess.Phase)
	}
	// The partial trail is preserved.
	if len(sess.Answers) != 1 {
		t.Errorf("answers after abandon = %d", len(sess.Answers))
	}

	if _, err := svc.Answer(ctx, sess.ID, "Class 4"); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Errorf("answer after abandon: %v", err)
	}
	if _, err := svc.Abandon(ctx, sess.ID); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Errorf("double abandon: %v", err)
	}
}

func TestSession_CompleteIsTerminal(t *testing.T) {
	svc := newTestService(&mockQueries{})
	ctx := context.Background()

	checklist := CulvertChecklist()[:1]
	sess, _ := svc.Start(ctx, "p", checklist)
	sess, err := svc.Answer(ctx, sess.ID, "2.4")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if sess.Phase != PhaseComplete {
		t.Fatalf("phase = %s", sess.Phase)
	}

	if _, err := svc.Answer(ctx, sess.ID, "again"); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Errorf("answer after completion: %v", err)
	}
	if _, err := svc.Abandon(ctx, sess.ID); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Errorf("abandon after completion: %v", err)
	}
}

func TestSession_ConcurrentAnswerRejected(t *testing.T) {
	queries := &mockQueries{block: make(chan struct{})}
	svc := newTestService(queries)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, "p", CulvertChecklist())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Answer(ctx, sess.ID, "2.4")
		done <- err
	}()

	// Wait until the first answer is inside its lookup.
	for {
		queries.mu.Lock()
		n := len(queries.requests)
		queries.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := svc.Answer(ctx, sess.ID, "rushed"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Errorf("concurrent answer: %v", err)
	}

	close(queries.block)
	if err := <-done; err != nil {
		t.Fatalf("first answer: %v", err)
	}
}

func TestSession_AbandonDuringLookupWins(t *testing.T) {
	queries := &mockQueries{block: make(chan struct{})}
	svc := newTestService(queries)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, "p", CulvertChecklist())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Answer(ctx, sess.ID, "2.4")
		done <- err
	}()

	// Wait until the answer is inside its lookup.
	for {
		queries.mu.Lock()
		n := len(queries.requests)
		queries.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	abandoned, err := svc.Abandon(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if abandoned.Phase != PhaseAbandoned {
		t.Fatalf("phase after abandon = %s", abandoned.Phase)
	}

	// The in-flight answer must be discarded, not appended over the
	// terminal state.
	close(queries.block)
	if err := <-done; !errors.Is(err, domain.ErrSessionTerminal) {
		t.Fatalf("late answer: %v", err)
	}

	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Phase != PhaseAbandoned {
		t.Errorf("final phase = %s, want %s", got.Phase, PhaseAbandoned)
	}
	if len(got.Answers) != 0 {
		t.Errorf("abandoned session recorded %d answers", len(got.Answers))
	}
}

func TestSession_NotFound(t *testing.T) {
	svc := newTestService(&mockQueries{})
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get: %v", err)
	}
	if _, err := svc.Answer(ctx, "nope", "v"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Answer: %v", err)
	}
	if _, err := svc.Abandon(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Abandon: %v", err)
	}
}

func TestSession_SessionsAreIndependent(t *testing.T) {
	svc := newTestService(&mockQueries{})
	ctx := context.Background()

	a, _ := svc.Start(ctx, "p1", CulvertChecklist())
	b, _ := svc.Start(ctx, "p2", CulvertChecklist())
	if a.ID == b.ID {
		t.Fatal("session ids collide")
	}

	if _, err := svc.Abandon(ctx, a.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	got, err := svc.Get(ctx, b.ID)
	if err != nil || got.Phase != PhaseAwaitingField {
		t.Errorf("session b affected: %+v %v", got, err)
	}
}
