package evo

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"knapsackga/internal/model"
)

func TestRankOrderIsStable(t *testing.T) {
	got := RankOrder([]int{5, 1, 3, 0, 1, 5})
	want := []int{3, 1, 4, 2, 0, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rank order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankThresholds(t *testing.T) {
	got := RankThresholds(4)
	want := []float64{0.25, 0.5, 0.75, 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("thresholds mismatch (-want +got):\n%s", diff)
	}
}

func TestRankSelectorScriptedDraws(t *testing.T) {
	// Fitnesses 10, 4, 9, 0: ascending order is indices 3, 1, 2, 0.
	p := mustProblem(t, model.Instance{Capacity: 10, Items: []model.Item{
		{Weight: 1, Value: 10},
		{Weight: 1, Value: 4},
		{Weight: 1, Value: 9},
		{Weight: 20, Value: 50},
	}})
	population := []model.Chromosome{
		bits(t, "1000"),
		bits(t, "0100"),
		bits(t, "0010"),
		bits(t, "0001"),
	}
	rng := &scriptedRandom{t: t, floats: []float64{0.0, 0.25, 0.3, 0.99}}

	selected, err := RankSelector{}.Select(rng, p, population)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []string{"0001", "0001", "0100", "1000"}
	got := make([]string, len(selected))
	for i, c := range selected {
		got[i] = c.String()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestRankSelectorReturnsMembers(t *testing.T) {
	p := mustProblem(t, fourItemInstance())
	population, _ := Initializer{MaxAttempts: 100}.Population(NewRandomSource(7), p, 20)

	selected, err := RankSelector{}.Select(NewRandomSource(7), p, population)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(selected) != len(population) {
		t.Fatalf("expected %d selected, got %d", len(population), len(selected))
	}
	for i, c := range selected {
		found := false
		for _, member := range population {
			if &c[0] == &member[0] {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("selected %d is not a population member", i)
		}
	}
}

func TestRankSelectorFavorsHigherRanks(t *testing.T) {
	p := mustProblem(t, model.Instance{Capacity: 10, Items: []model.Item{{Weight: 1, Value: 1}, {Weight: 1, Value: 2}}})
	low, high := bits(t, "10"), bits(t, "01")
	population := []model.Chromosome{high, low, low, low}

	rng := NewRandomSource(42)
	highCount, draws := 0, 0
	for i := 0; i < 500; i++ {
		selected, err := RankSelector{}.Select(rng, p, population)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		for _, c := range selected {
			draws++
			if c.Equal(high) {
				highCount++
			}
		}
	}
	// The single best individual owns the top rank band of width 1/4.
	share := float64(highCount) / float64(draws)
	if share < 0.21 || share > 0.29 {
		t.Fatalf("expected top-rank share near 0.25, got %.3f", share)
	}
}

func TestRankSelectorValidation(t *testing.T) {
	p := mustProblem(t, fourItemInstance())
	if _, err := (RankSelector{}).Select(nil, p, []model.Chromosome{bits(t, "0000")}); err == nil {
		t.Fatal("expected nil random source error")
	}
	if _, err := (RankSelector{}).Select(NewRandomSource(1), p, nil); err == nil {
		t.Fatal("expected empty population error")
	}
}
