package hashembed

import (
	"context"
	"math"
	"testing"
)

func TestEmbed_Deterministic(t *testing.T) {
	e := New(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "minimum cover depth over culvert pipes")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(ctx, "minimum cover depth over culvert pipes")
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
	if a.TotalTokens != 6 {
		t.Errorf("TotalTokens = %d, want 6", a.TotalTokens)
	}
}

func TestEmbed_Normalized(t *testing.T) {
	e := New(32)
	res, err := e.Embed(context.Background(), "reinforced concrete pipe class requirements")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 32 {
		t.Fatalf("dimensions = %d", len(res.Embedding))
	}

	var sum float64
	for _, v := range res.Embedding {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("norm^2 = %v, want 1", sum)
	}
}

func TestEmbed_SimilarTextScoresCloser(t *testing.T) {
	e := New(128)
	ctx := context.Background()

	q, _ := e.Embed(ctx, "culvert pipe cover depth")
	near, _ := e.Embed(ctx, "minimum cover depth over culvert pipe installations")
	far, _ := e.Embed(ctx, "asphalt binder viscosity grading")

	if cos(q.Embedding, near.Embedding) <= cos(q.Embedding, far.Embedding) {
		t.Error("related text did not score above unrelated text")
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	e := New(16)
	res, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 16 {
		t.Errorf("dimensions = %d", len(res.Embedding))
	}
}

func cos(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
