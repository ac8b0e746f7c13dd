package evo

import (
	"fmt"
	"sort"

	"knapsackga/internal/model"
)

// Selector resamples a population into a mating pool of the same size.
type Selector interface {
	Name() string
	Select(rng RandomSource, p Problem, population []model.Chromosome) ([]model.Chromosome, error)
}

// RankSelector is linear rank selection. Individuals are stable-sorted by
// ascending fitness, so ties keep their population order, and rank i gets the
// cumulative threshold (i+1)/N. Each draw r in [0, 1) picks the lowest rank
// whose threshold is >= r.
//
// Every rank band has width 1/N, so the scheme depends only on ordering and
// not on fitness magnitude; it is not fitness-proportional roulette.
type RankSelector struct{}

func (RankSelector) Name() string {
	return "rank_linear"
}

// Select returns members of population; the result aliases the input
// chromosomes and callers must copy before mutating.
func (RankSelector) Select(rng RandomSource, p Problem, population []model.Chromosome) ([]model.Chromosome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	n := len(population)
	if n == 0 {
		return nil, fmt.Errorf("population is empty")
	}

	fitness := make([]int, n)
	for i, c := range population {
		fitness[i] = p.Fitness(c)
	}
	order := RankOrder(fitness)
	thresholds := RankThresholds(n)

	selected := make([]model.Chromosome, n)
	for slot := range selected {
		r := rng.Float64()
		rank := sort.Search(n, func(i int) bool { return thresholds[i] >= r })
		if rank == n {
			rank = n - 1
		}
		selected[slot] = population[order[rank]]
	}
	return selected, nil
}

// RankOrder returns population indices sorted by ascending fitness with ties
// in original order.
func RankOrder(fitness []int) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fitness[order[a]] < fitness[order[b]]
	})
	return order
}

// RankThresholds is the step sequence 1/n, 2/n, ..., 1.
func RankThresholds(n int) []float64 {
	thresholds := make([]float64, n)
	for i := range thresholds {
		thresholds[i] = float64(i+1) / float64(n)
	}
	return thresholds
}
