package evo

import "knapsackga/internal/model"

// Initializer draws feasible chromosomes by rejection sampling: every gene is
// an independent fair coin and overweight draws are discarded whole.
type Initializer struct {
	MaxAttempts int
}

// Chromosome returns a feasible chromosome. When MaxAttempts draws are all
// overweight it returns the empty selection and fallback=true.
func (in Initializer) Chromosome(rng RandomSource, p Problem) (c model.Chromosome, fallback bool) {
	attempts := in.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxInitAttempts
	}
	for attempt := 0; attempt < attempts; attempt++ {
		candidate := make(model.Chromosome, p.Len())
		weight := 0
		for i := range candidate {
			if rng.Float64() < 0.5 {
				candidate[i] = true
				weight += p.Items[i].Weight
			}
		}
		if weight <= p.Capacity {
			return candidate, false
		}
	}
	return make(model.Chromosome, p.Len()), true
}

// Population draws size chromosomes and reports how many fell back.
func (in Initializer) Population(rng RandomSource, p Problem, size int) ([]model.Chromosome, int) {
	population := make([]model.Chromosome, size)
	fallbacks := 0
	for i := range population {
		c, fallback := in.Chromosome(rng, p)
		if fallback {
			fallbacks++
		}
		population[i] = c
	}
	return population, fallbacks
}
