//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"knapsackga/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "knapsack.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := sampleRun()
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run.Seed = 7
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	loaded, ok, err := store.GetRun(ctx, run.ID)
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(run, loaded); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}

	history := [][]int{{1, 2, 3}}
	if err := store.SaveFitnessHistory(ctx, run.ID, history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	gotHistory, ok, err := store.GetFitnessHistory(ctx, run.ID)
	if err != nil || !ok {
		t.Fatalf("get history: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(history, gotHistory); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	diagnostics := [][]model.GenerationDiagnostics{{{Generation: 1, BestFitness: 3, FeasibleCount: 4}}}
	if err := store.SaveGenerationDiagnostics(ctx, run.ID, diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	gotDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, run.ID)
	if err != nil || !ok {
		t.Fatalf("get diagnostics: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(diagnostics, gotDiagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "knapsack.db"))
	if err := store.SaveRun(context.Background(), sampleRun()); err == nil {
		t.Fatal("expected uninitialized store error")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected missing path error")
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(SQLiteStoreKind, filepath.Join(t.TempDir(), "knapsack.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
