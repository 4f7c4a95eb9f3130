package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specdex/specdex/internal/db/memory"
	"github.com/specdex/specdex/internal/domain"
	"github.com/specdex/specdex/internal/index"
)

func testIndex(t *testing.T, id string, created time.Time) *index.Index {
	t.Helper()

	arena := &domain.Arena{}
	page := arena.Append(domain.NewUnit(domain.UnitPage, domain.NoParent, 0, "8.3 Tolerances apply", 4))
	clause := arena.Append(domain.NewUnit(domain.UnitClause, page, 0, "8.3 Tolerances", 4))
	u, _ := arena.Get(clause)
	arena.Replace(u.WithIdentifier("Cl. 8.3", "8.3"))

	doc, err := domain.NewDocument("Pavement Spec", domain.KindSpec, "B", created)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	snap := domain.NewSnapshot(id, created, []domain.Document{doc}, arena)
	entries := []index.Entry{{Unit: clause, Vector: []float32{0.5, 0.5}}}
	return index.NewIndex(snap, entries)
}

func TestRepo_SaveLoadRoundTrip(t *testing.T) {
	repo := New(memory.NewStore(), "specdex:")
	ctx := context.Background()
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	if err := repo.Save(ctx, testIndex(t, "snap-a", created)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snap, entries, err := repo.Load(ctx, "snap-a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.ID() != "snap-a" || !snap.CreatedAt().Equal(created) {
		t.Errorf("snapshot meta = %s %v", snap.ID(), snap.CreatedAt())
	}
	if snap.Units().Len() != 2 {
		t.Fatalf("units = %d, want 2", snap.Units().Len())
	}

	u, ok := snap.Units().Get(1)
	if !ok || u.Identifier() != "Cl. 8.3" || u.Parent() != 0 {
		t.Errorf("hydrated unit wrong: %+v ok=%v", u, ok)
	}
	if len(entries) != 1 || entries[0].Unit != 1 {
		t.Errorf("entries = %+v", entries)
	}

	doc, _ := snap.Document(0)
	if doc.Title() != "Pavement Spec" || doc.Kind() != domain.KindSpec || doc.Revision() != "B" {
		t.Errorf("hydrated document wrong: %+v", doc)
	}
}

func TestRepo_LoadUnknown(t *testing.T) {
	repo := New(memory.NewStore(), "specdex:")
	_, _, err := repo.Load(context.Background(), "snap-missing")
	if !errors.Is(err, domain.ErrUnknownSnapshot) {
		t.Fatalf("err = %v, want ErrUnknownSnapshot", err)
	}
}

func TestRepo_ListNewestFirst(t *testing.T) {
	repo := New(memory.NewStore(), "specdex:")
	ctx := context.Background()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	if err := repo.Save(ctx, testIndex(t, "snap-old", older)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, testIndex(t, "snap-new", newer)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	metas, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("metas = %d, want 2", len(metas))
	}
	if metas[0].ID != "snap-new" || metas[1].ID != "snap-old" {
		t.Errorf("order = %s, %s", metas[0].ID, metas[1].ID)
	}
	if metas[0].Documents != 1 || metas[0].Units != 2 {
		t.Errorf("meta counts = %+v", metas[0])
	}
}

func TestRepo_Exists(t *testing.T) {
	repo := New(memory.NewStore(), "specdex:")
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "snap-a")
	if err != nil || ok {
		t.Fatalf("Exists before save = %v, %v", ok, err)
	}

	if err := repo.Save(ctx, testIndex(t, "snap-a", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ok, err = repo.Exists(ctx, "snap-a")
	if err != nil || !ok {
		t.Fatalf("Exists after save = %v, %v", ok, err)
	}
}
