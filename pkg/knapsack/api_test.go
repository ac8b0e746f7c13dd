package knapsack

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"knapsackga/internal/evo"
	"knapsackga/internal/model"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func testInstances() []model.Instance {
	return []model.Instance{
		{ID: "1", Capacity: 10, Items: []model.Item{{Weight: 2, Value: 3}, {Weight: 3, Value: 4}, {Weight: 4, Value: 5}, {Weight: 5, Value: 6}}},
		{ID: "2", Capacity: 0, Items: []model.Item{{Weight: 1, Value: 5}, {Weight: 2, Value: 7}}},
	}
}

func testConfig() evo.Config {
	cfg := evo.DefaultConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 10
	cfg.Seed = 42
	return cfg
}

func TestClientSolveRunsAndExport(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	var report bytes.Buffer
	metricsPath := filepath.Join(base, "knapsack.prom")
	summary, err := client.Solve(ctx, SolveRequest{
		Instances:   testInstances(),
		Config:      testConfig(),
		Verify:      true,
		Report:      &report,
		MetricsFile: metricsPath,
		Plot:        true,
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if summary.RunID == "" || summary.Seed != 42 {
		t.Fatalf("unexpected summary identity: %+v", summary)
	}
	if len(summary.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(summary.Cases))
	}
	first := summary.Cases[0]
	if len(first.BestByGeneration) != testConfig().Generations+1 {
		t.Fatalf("unexpected history length %d", len(first.BestByGeneration))
	}
	if first.Optimum == nil || *first.Optimum != 13 || first.Result.BestFitness > 13 {
		t.Fatalf("unexpected verification for case 1: %+v", first)
	}
	if summary.Cases[1].Result.BestFitness != 0 || len(summary.Cases[1].Result.SelectedIndices) != 0 {
		t.Fatalf("expected empty result for zero capacity: %+v", summary.Cases[1].Result)
	}
	if summary.Summary.VerifiedCases != 2 {
		t.Fatalf("expected 2 verified cases, got %+v", summary.Summary)
	}
	if !strings.Contains(report.String(), "Test Case 1:") || !strings.Contains(report.String(), "Test Case 2:") {
		t.Fatalf("unexpected report:\n%s", report.String())
	}
	for _, path := range []string{metricsPath, summary.ChartPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected file %s: %v", path, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID || runs[0].Cases != 2 {
		t.Fatalf("expected run %s in runs list: %+v", summary.RunID, runs)
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if diff := cmp.Diff([][]int{summary.Cases[0].BestByGeneration, summary.Cases[1].BestByGeneration}, history); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID, Case: 1, Limit: 3})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(diagnostics) != 1 || len(diagnostics[0]) != 3 || diagnostics[0][2].Generation != 2 {
		t.Fatalf("unexpected diagnostics selection: %+v", diagnostics)
	}

	run, err := client.Run(ctx, summary.RunID, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(run.Cases) != 2 || run.Seed != 42 {
		t.Fatalf("unexpected run record: %+v", run)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("exported %s, want %s", exported.RunID, summary.RunID)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "results.json")); err != nil {
		t.Fatalf("expected exported results: %v", err)
	}
}

func TestClientReadsArtifactsFromEarlierProcess(t *testing.T) {
	base := t.TempDir()
	opts := Options{StoreKind: "memory", RunsDir: filepath.Join(base, "runs")}

	writer, err := New(opts)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	summary, err := writer.Solve(context.Background(), SolveRequest{Instances: testInstances()[:1], Config: testConfig()})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	reader, err := New(opts)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	history, err := reader.FitnessHistory(context.Background(), FitnessHistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if diff := cmp.Diff([][]int{summary.Cases[0].BestByGeneration}, history); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	run, err := reader.Run(context.Background(), "", true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.ID != summary.RunID || len(run.Cases) != 1 {
		t.Fatalf("unexpected run from artifacts: %+v", run)
	}
	path, err := reader.Plot(context.Background(), PlotRequest{Latest: true, OutPath: filepath.Join(base, "chart.html")})
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected chart: %v", err)
	}
}

func TestClientSolveDeterministicForSeed(t *testing.T) {
	client, _ := newTestClient(t)
	a, err := client.Solve(context.Background(), SolveRequest{Instances: testInstances(), Config: testConfig()})
	if err != nil {
		t.Fatalf("first solve: %v", err)
	}
	b, err := client.Solve(context.Background(), SolveRequest{Instances: testInstances(), Config: testConfig()})
	if err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if a.RunID == b.RunID {
		t.Fatal("expected distinct run ids")
	}
	if diff := cmp.Diff(a.Cases, b.Cases); diff != "" {
		t.Fatalf("solves diverged (-first +second):\n%s", diff)
	}
}

func TestClientValidation(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Solve(ctx, SolveRequest{Config: testConfig()}); err == nil {
		t.Fatal("expected error for no instances")
	}
	bad := testConfig()
	bad.PopulationSize = 5
	if _, err := client.Solve(ctx, SolveRequest{Instances: testInstances(), Config: bad}); err == nil {
		t.Fatal("expected invalid config error")
	}
	if _, err := client.Solve(ctx, SolveRequest{Instances: []model.Instance{{Capacity: 3}}, Config: testConfig()}); err == nil {
		t.Fatal("expected invalid instance error")
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected run id/latest conflict error")
	}
	if _, err := client.Diagnostics(ctx, DiagnosticsRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs error")
	}
	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatal("expected export selector error")
	}
	if _, err := New(Options{StoreKind: "bogus"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestClientSolveRejectsInvalidCaseBeforeRunning(t *testing.T) {
	client, base := newTestClient(t)
	instances := []model.Instance{
		testInstances()[0],
		{ID: "2", Capacity: 5},
	}

	var report bytes.Buffer
	_, err := client.Solve(context.Background(), SolveRequest{Instances: instances, Config: testConfig(), Report: &report})
	if !errors.Is(err, evo.ErrInvalidInstance) {
		t.Fatalf("expected ErrInvalidInstance, got %v", err)
	}
	if !strings.Contains(err.Error(), "case 2") {
		t.Fatalf("expected failing case in error, got %v", err)
	}
	if report.Len() != 0 {
		t.Fatalf("expected no report output, got %q", report.String())
	}
	if _, err := os.Stat(filepath.Join(base, "runs")); !os.IsNotExist(err) {
		t.Fatalf("expected no run artifacts, stat err=%v", err)
	}
}

func TestSelectCases(t *testing.T) {
	series := [][]int{{1, 2, 3}, {4, 5}}
	got, err := selectCases(series, 2, 1)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if diff := cmp.Diff([][]int{{4}}, got); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	if _, err := selectCases(series, 3, 0); err == nil {
		t.Fatal("expected out of range error")
	}
}
