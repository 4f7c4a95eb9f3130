package index

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/specdex/specdex/internal/domain"
)

// --- Fixtures ---

// testSnapshot builds a two-document snapshot: a spec with a clause tree and
// a drawing set with one sheet.
func testSnapshot(t *testing.T) *domain.Snapshot {
	t.Helper()

	arena := &domain.Arena{}
	page := arena.Append(domain.NewUnit(domain.UnitPage, domain.NoParent, 0,
		"8 Materials 8.3 Tolerances 8.3.2 Thickness EME layer thickness shall be within tolerance", 4))
	arena.Append(domain.NewUnit(domain.UnitClause, page, 0, "8 Materials", 4))
	c83 := arena.Append(domain.NewUnit(domain.UnitClause, 1, 0, "8.3 Tolerances", 4))
	c832 := arena.Append(domain.NewUnit(domain.UnitClause, c83, 0,
		"8.3.2 Thickness\nEME layer thickness shall be within tolerance", 4))
	tbl := arena.Append(domain.NewUnit(domain.UnitTable, c832, 0, "Table 4\nThickness tolerances", 4))
	sheet := arena.Append(domain.NewUnit(domain.UnitDrawingSheet, domain.NoParent, 1, "SD1246 Culvert end wall", 1))

	tag := func(key domain.UnitKey, id domain.Identifier, raw string) {
		u, _ := arena.Get(key)
		arena.Replace(u.WithIdentifier(id, raw))
	}
	tag(c832, "Cl. 8.3.2", "8.3.2")
	tag(c83, "Cl. 8.3", "8.3")
	tag(tbl, "Table 4", "Table 4")
	tag(sheet, "Drawing SD1246", "SD1246")

	spec, err := domain.NewDocument("Pavement Spec", domain.KindSpec, "B", time.Now())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	dwg, err := domain.NewDocument("Standard Drawings", domain.KindDrawing, "3", time.Now())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}

	return domain.NewSnapshot("snap-test", time.Now(), []domain.Document{spec, dwg}, arena)
}

// --- Tests ---

func TestIndex_Exact(t *testing.T) {
	idx := NewIndex(testSnapshot(t), nil)

	keys := idx.Exact("Cl. 8.3.2")
	if len(keys) != 1 {
		t.Fatalf("Exact(Cl. 8.3.2) = %v", keys)
	}
	u, _ := idx.Snapshot().Units().Get(keys[0])
	if u.Identifier() != "Cl. 8.3.2" {
		t.Errorf("resolved unit identifier = %q", u.Identifier())
	}

	if keys := idx.Exact("Cl. 99"); keys != nil {
		t.Errorf("Exact(Cl. 99) = %v, want nil", keys)
	}
}

func TestIndex_HasDocKind(t *testing.T) {
	idx := NewIndex(testSnapshot(t), nil)

	if !idx.HasDocKind("") {
		t.Error("empty filter should match any unit")
	}
	if !idx.HasDocKind(domain.KindSpec) || !idx.HasDocKind(domain.KindDrawing) {
		t.Error("expected spec and drawing units present")
	}
	if idx.HasDocKind(domain.KindTechNote) {
		t.Error("no tech-note units were indexed")
	}
}

func TestSemantic_TieBreakByKindPriorityThenOrdinal(t *testing.T) {
	snap := testSnapshot(t)
	// Identical vectors: the clause must outrank the table, the table the page.
	v := []float32{1, 0}
	entries := []Entry{
		{Unit: 0, Vector: v}, // page
		{Unit: 4, Vector: v}, // table
		{Unit: 3, Vector: v}, // clause 8.3.2
		{Unit: 2, Vector: v}, // clause 8.3
	}
	idx := NewIndex(snap, entries)

	scored := idx.Semantic([]float32{1, 0}, 10, "")
	if len(scored) != 4 {
		t.Fatalf("expected 4 scored units, got %d", len(scored))
	}
	// Clauses first (by ordinal among themselves), then table, then page.
	wantOrder := []domain.UnitKey{2, 3, 4, 0}
	for i, want := range wantOrder {
		if scored[i].Unit != want {
			t.Errorf("rank %d = unit %d, want %d", i, scored[i].Unit, want)
		}
	}
}

func TestSemantic_ChunksCollapseToBestScore(t *testing.T) {
	snap := testSnapshot(t)
	entries := []Entry{
		{Unit: 3, Vector: []float32{1, 0}},
		{Unit: 3, Vector: []float32{0, 1}},
	}
	idx := NewIndex(snap, entries)

	scored := idx.Semantic([]float32{1, 0}, 10, "")
	if len(scored) != 1 {
		t.Fatalf("chunked unit appeared %d times", len(scored))
	}
	if scored[0].Score < 0.99 {
		t.Errorf("best chunk score = %v, want ~1", scored[0].Score)
	}
}

func TestSemantic_KindFilter(t *testing.T) {
	snap := testSnapshot(t)
	entries := []Entry{
		{Unit: 3, Vector: []float32{1, 0}},
		{Unit: 5, Vector: []float32{1, 0}},
	}
	idx := NewIndex(snap, entries)

	scored := idx.Semantic([]float32{1, 0}, 10, domain.KindDrawing)
	if len(scored) != 1 || scored[0].Unit != 5 {
		t.Fatalf("drawing filter returned %v", scored)
	}
}

func TestLiteral_PrefersStructuralUnits(t *testing.T) {
	idx := NewIndex(testSnapshot(t), nil)

	keys := idx.Literal("EME layer thickness", "")
	if len(keys) != 1 {
		t.Fatalf("Literal = %v", keys)
	}
	u, _ := idx.Snapshot().Units().Get(keys[0])
	if u.Kind() == domain.UnitPage {
		t.Error("page unit cited although a clause holds the phrase")
	}

	if keys := idx.Literal("no such phrase anywhere", ""); keys != nil {
		t.Errorf("Literal miss = %v, want nil", keys)
	}
}

func TestChunkText(t *testing.T) {
	text := "abcdefghij"
	chunks := chunkText(text, 4, 1)
	want := []string{"abcd", "defg", "ghij"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}

	if got := chunkText("short", 100, 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short text chunked: %v", got)
	}
}

func TestChunkText_RuneBoundaries(t *testing.T) {
	// Two-byte runes: byte-based windows would split them mid-sequence.
	chunks := chunkText(strings.Repeat("±", 10), 4, 1)
	want := []string{"±±±±", "±±±±", "±±±±"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
		if !utf8.ValidString(chunks[i]) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, chunks[i])
		}
	}
}
