package domain

import (
	"testing"
	"time"
)

func TestArena_AppendAssignsKeysAndOrdinals(t *testing.T) {
	arena := &Arena{}

	k0 := arena.Append(NewUnit(UnitPage, NoParent, 0, "page one", 1))
	k1 := arena.Append(NewUnit(UnitClause, k0, 0, "8 Materials", 1))
	k2 := arena.Append(NewUnit(UnitClause, k1, 0, "8.3 Tolerances", 1))

	if k0 != 0 || k1 != 1 || k2 != 2 {
		t.Fatalf("expected sequential keys, got %d %d %d", k0, k1, k2)
	}

	prev := -1
	for _, u := range arena.Units() {
		if u.Ordinal() <= prev {
			t.Fatalf("ordinal %d not strictly increasing after %d", u.Ordinal(), prev)
		}
		prev = u.Ordinal()
	}
}

func TestArena_ReplaceKeepsKey(t *testing.T) {
	arena := &Arena{}
	key := arena.Append(NewUnit(UnitClause, NoParent, 0, "8.3.2 Thickness", 4))

	u, _ := arena.Get(key)
	arena.Replace(u.WithIdentifier("Cl. 8.3.2", "8.3.2"))

	got, ok := arena.Get(key)
	if !ok {
		t.Fatalf("unit lost after replace")
	}
	if got.Identifier() != "Cl. 8.3.2" {
		t.Errorf("identifier = %q, want %q", got.Identifier(), "Cl. 8.3.2")
	}
	if got.Key() != key || got.Ordinal() != int(key) {
		t.Errorf("replace changed key/ordinal: key=%d ordinal=%d", got.Key(), got.Ordinal())
	}
}

func TestReconstructArena_PreservesKeys(t *testing.T) {
	units := []Unit{
		ReconstructUnit(0, UnitPage, Unidentified, "", NoParent, 0, "p1", 1, 0),
		ReconstructUnit(1, UnitClause, "Cl. 2", "2", 0, 0, "2 Scope", 1, 1),
	}
	arena := ReconstructArena(units)

	u, ok := arena.Get(1)
	if !ok || u.Identifier() != "Cl. 2" || u.Parent() != 0 {
		t.Fatalf("reconstructed unit wrong: %+v ok=%v", u, ok)
	}
}

func TestUnitKind_Priority(t *testing.T) {
	order := []UnitKind{UnitClause, UnitTable, UnitFootnote, UnitPage, UnitDrawingSheet}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Errorf("%s should outrank %s", order[i-1], order[i])
		}
	}
}

func TestParseDocumentKind(t *testing.T) {
	for _, valid := range []string{"spec", "drawing", "tech-note"} {
		if _, err := ParseDocumentKind(valid); err != nil {
			t.Errorf("ParseDocumentKind(%q): %v", valid, err)
		}
	}
	if _, err := ParseDocumentKind("memo"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNewDocument_Validation(t *testing.T) {
	if _, err := NewDocument("", KindSpec, "A", time.Now()); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := NewDocument("Spec", KindSpec, "", time.Now()); err == nil {
		t.Error("expected error for empty revision")
	}
	if _, err := NewDocument("Spec", "memo", "A", time.Now()); err == nil {
		t.Error("expected error for bad kind")
	}
	if _, err := NewDocument("Spec", KindSpec, "A", time.Now()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
