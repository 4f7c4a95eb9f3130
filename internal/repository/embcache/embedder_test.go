package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/specdex/specdex/internal/db"
	"github.com/specdex/specdex/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	calls  int
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

type mockStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

// --- Tests ---

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, -0.5, 2.25},
		TotalTokens: 7,
	}}
	store := newMockStore()
	cached := New(inner, store, "specdex:", nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "compaction requirements")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls after miss: got %d, want 1", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss tokens: got %d, want 7", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "compaction requirements")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls after hit: got %d, want 1", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit tokens: got %d, want 0", second.TotalTokens)
	}
	if len(second.Embedding) != 3 {
		t.Fatalf("hit embedding length: got %d, want 3", len(second.Embedding))
	}
	for i, v := range first.Embedding {
		if second.Embedding[i] != v {
			t.Errorf("embedding[%d]: got %v, want %v", i, second.Embedding[i], v)
		}
	}
}

func TestCachedEmbedder_DistinctTextsDistinctKeys(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	store := newMockStore()
	cached := New(inner, store, "specdex:", nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "one"); err != nil {
		t.Fatalf("embed one: %v", err)
	}
	if _, err := cached.Embed(context.Background(), "two"); err != nil {
		t.Fatalf("embed two: %v", err)
	}

	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
	if len(store.data) != 2 {
		t.Errorf("cached entries: got %d, want 2", len(store.data))
	}
}

func TestCachedEmbedder_InnerErrorPropagates(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &mockEmbedder{err: innerErr}
	cached := New(inner, newMockStore(), "specdex:", nil, zap.NewNop())

	_, err := cached.Embed(context.Background(), "text")
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestCachedEmbedder_StoreFailuresFallThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	store := newMockStore()
	store.getErr = errors.New("connection reset")
	store.setErr = errors.New("connection reset")
	cached := New(inner, store, "specdex:", nil, zap.NewNop())

	// A broken cache degrades to pass-through, never to an error.
	for i := 0; i < 2; i++ {
		res, err := cached.Embed(context.Background(), "text")
		if err != nil {
			t.Fatalf("embed %d: %v", i, err)
		}
		if len(res.Embedding) != 2 {
			t.Errorf("embed %d length: got %d, want 2", i, len(res.Embedding))
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
}

func TestCachedEmbedder_CorruptCacheEntryIgnored(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	store := newMockStore()
	cached := New(inner, store, "specdex:", nil, zap.NewNop())

	store.data[cached.cacheKey("text")] = []byte{1, 2, 3} // not a multiple of 4

	res, err := cached.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls: got %d, want 1", inner.calls)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("embedding length: got %d, want 1", len(res.Embedding))
	}
}
