package stats

import (
	"math"
	"testing"
)

func TestBuildRunSummary(t *testing.T) {
	artifacts := sampleArtifacts("run-1")
	summary := BuildRunSummary(artifacts.Cases, artifacts.BestByGeneration)

	if summary.Cases != 2 || summary.TotalValue != 13 || summary.TotalWeight != 10 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.VerifiedCases != 1 || summary.OptimalCases != 1 || summary.MeanGap != 0 {
		t.Fatalf("unexpected verification figures: %+v", summary)
	}
	if summary.InitFallbacks != 1 {
		t.Fatalf("expected 1 init fallback, got %d", summary.InitFallbacks)
	}
	// Convergence generations are 1 and 0.
	if summary.MeanConvergenceGeneration != 0.5 {
		t.Fatalf("expected mean convergence 0.5, got %v", summary.MeanConvergenceGeneration)
	}
	if math.Abs(summary.StdConvergenceGeneration-math.Sqrt(0.5)) > 1e-9 {
		t.Fatalf("unexpected convergence std: %v", summary.StdConvergenceGeneration)
	}
}

func TestBuildRunSummaryGap(t *testing.T) {
	artifacts := sampleArtifacts("run-1")
	optimum := 20
	artifacts.Cases[0].Optimum = &optimum
	summary := BuildRunSummary(artifacts.Cases, nil)
	if summary.OptimalCases != 0 || math.Abs(summary.MeanGap-0.35) > 1e-9 || math.Abs(summary.MaxGap-0.35) > 1e-9 {
		t.Fatalf("unexpected gap figures: %+v", summary)
	}
}

func TestConvergenceGeneration(t *testing.T) {
	cases := map[int][]int{
		0: {5, 5, 5},
		2: {1, 3, 7, 7},
		3: {0, 1, 2, 3},
	}
	for want, series := range cases {
		if got := ConvergenceGeneration(series); got != want {
			t.Fatalf("convergence(%v)=%d, want %d", series, got, want)
		}
	}
	if ConvergenceGeneration(nil) != 0 {
		t.Fatal("expected 0 for empty series")
	}
}
