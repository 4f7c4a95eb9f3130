package memory

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/specdex/specdex/internal/db"
)

func TestStore_GetSetDel(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("Get missing: %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// Returned slice is a copy; mutating it must not affect the store.
	got[0] = 'X'
	again, _ := s.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("stored value mutated through a returned slice: %q", again)
	}

	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("Get after del: %v", err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Errorf("Del of missing key: %v", err)
	}
}

func TestStore_Scan(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for _, k := range []string{"specdex:snap:a", "specdex:snap:b", "specdex:pin:p1"} {
		if err := s.Set(ctx, k, []byte("x")); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	keys, err := s.Scan(ctx, "specdex:snap:*")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "specdex:snap:a" || keys[1] != "specdex:snap:b" {
		t.Errorf("Scan = %v", keys)
	}
}
