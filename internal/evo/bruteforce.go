package evo

import (
	"fmt"

	"knapsackga/internal/model"
)

// MaxBruteForceItems bounds exhaustive search to 2^20 subsets.
const MaxBruteForceItems = 20

// BruteForce returns an optimal selection by enumerating every subset. Among
// equal optima the one with the lowest bitmask wins.
func BruteForce(instance model.Instance) (model.Solution, error) {
	problem, err := NewProblem(instance)
	if err != nil {
		return model.Solution{}, err
	}
	n := problem.Len()
	if n > MaxBruteForceItems {
		return model.Solution{}, fmt.Errorf("brute force supports at most %d items, got %d", MaxBruteForceItems, n)
	}

	bestMask, bestValue := uint32(0), 0
	for mask := uint32(1); mask < uint32(1)<<n; mask++ {
		weight, value := 0, 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				weight += problem.Items[i].Weight
				value += problem.Items[i].Value
			}
		}
		if weight <= problem.Capacity && value > bestValue {
			bestMask, bestValue = mask, value
		}
	}

	c := make(model.Chromosome, n)
	for i := range c {
		c[i] = bestMask&(1<<i) != 0
	}
	return model.Solution{Chromosome: c, Fitness: bestValue}, nil
}
