package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"audiopack/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Begin(ctx, journal.Run{ID: "run-1", Command: "build", StartedAt: start, Packages: []string{"ui", "vo"}}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	running, err := store.Get(ctx, "run-1")
	if err != nil || running == nil {
		t.Fatalf("Get: %v %v", running, err)
	}
	if running.Status != journal.StatusRunning || running.Duration() != 0 {
		t.Fatalf("unexpected running row %+v", running)
	}

	err = store.Finish(ctx, journal.Run{
		ID: "run-1", Status: journal.StatusFailed, FinishedAt: start.Add(90 * time.Second),
		Items: 10, Reused: 7, Encoded: 2, Failed: 1, Passes: 2, Remediated: 1, Bytes: 4096, Error: "encode failed",
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	done, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != journal.StatusFailed || done.Items != 10 || done.Bytes != 4096 || done.Error != "encode failed" {
		t.Fatalf("unexpected finished row %+v", done)
	}
	if done.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %v", done.Duration())
	}
	if len(done.Packages) != 2 || done.Packages[1] != "vo" {
		t.Fatalf("unexpected packages %v", done.Packages)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	store := openStore(t)
	run, err := store.Get(context.Background(), "missing")
	if err != nil || run != nil {
		t.Fatalf("expected nil, nil; got %v, %v", run, err)
	}
}

func TestRecentAndPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Begin(ctx, journal.Run{ID: id, Command: "build", StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order %+v", runs)
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil || removed != 2 {
		t.Fatalf("Prune removed %d, err %v", removed, err)
	}
	runs, _ = store.Recent(ctx, 10)
	if len(runs) != 1 || runs[0].ID != "c" {
		t.Fatalf("unexpected runs after prune %+v", runs)
	}
}

func TestBeginRequiresID(t *testing.T) {
	store := openStore(t)
	if err := store.Begin(context.Background(), journal.Run{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestOpenMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := journal.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = first.Close()
	second, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = second.Close()
}

func TestOpenRejectsNewerJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := journal.Open(path); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
