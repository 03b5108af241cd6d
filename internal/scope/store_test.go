package scope

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bankview/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "scope.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_EmptyReportsNoActiveAnalysis(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Current(context.Background())
	if !errors.Is(err, core.ErrNoActiveAnalysis) {
		t.Fatalf("Current on empty store = %v, want ErrNoActiveAnalysis", err)
	}
}

func TestStore_SetAndCurrent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "an-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "an-123" {
		t.Errorf("Current = %q, want an-123", got)
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "an-old"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "an-new"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "an-new" {
		t.Errorf("Current = %q, want an-new (new upload replaces old scope)", got)
	}
}

func TestStore_SetRejectsEmptyID(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set(context.Background(), "  "); err == nil {
		t.Fatal("Set with blank id should fail")
	}
}

func TestStore_Clear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "an-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	_, err := store.Current(ctx)
	if !errors.Is(err, core.ErrNoActiveAnalysis) {
		t.Fatalf("Current after Clear = %v, want ErrNoActiveAnalysis", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scope.db")
	ctx := context.Background()

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Set(ctx, "an-persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	store.Close()

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Current(ctx)
	if err != nil {
		t.Fatalf("Current after reopen: %v", err)
	}
	if got != "an-persisted" {
		t.Errorf("Current = %q, want an-persisted", got)
	}
}
