package evo

import "knapsackga/internal/model"

type Mutation interface {
	Name() string
	Mutate(rng RandomSource, c model.Chromosome)
}

// BitFlipMutation flips each gene independently when its draw is below Rate.
// Feasibility is not restored; overweight offspring simply score zero.
type BitFlipMutation struct {
	Rate float64
}

func (BitFlipMutation) Name() string {
	return "bit_flip"
}

func (m BitFlipMutation) Mutate(rng RandomSource, c model.Chromosome) {
	for i := range c {
		if rng.Float64() < m.Rate {
			c[i] = !c[i]
		}
	}
}
