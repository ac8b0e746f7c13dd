package evo

import "knapsackga/internal/model"

type Crossover interface {
	Name() string
	Cross(rng RandomSource, parent1, parent2 model.Chromosome) model.Chromosome
}

// OnePointCrossover takes parent1's genes before a uniform cut point and
// parent2's genes from the cut on. With probability 1-Rate the child is a
// plain copy of parent1. The child never shares storage with either parent.
type OnePointCrossover struct {
	Rate float64
}

func (OnePointCrossover) Name() string {
	return "one_point"
}

func (o OnePointCrossover) Cross(rng RandomSource, parent1, parent2 model.Chromosome) model.Chromosome {
	child := parent1.Clone()
	if rng.Float64() >= o.Rate || len(parent1) == 0 {
		return child
	}
	cut := rng.Intn(len(parent1))
	copy(child[cut:], parent2[cut:])
	return child
}
