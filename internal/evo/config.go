package evo

import "fmt"

const (
	DefaultPopulationSize  = 100
	DefaultGenerations     = 100
	DefaultMutationRate    = 0.1
	DefaultCrossoverRate   = 0.7
	DefaultMaxInitAttempts = 1000

	DefaultSelection = "rank_linear"
	DefaultCrossover = "one_point"
	DefaultMutation  = "bit_flip"
)

// Config holds the GA parameters for a run. Seed 0 means seed from the clock.
// Operator names are resolved through the operator registry; empty names
// select the defaults.
type Config struct {
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	MutationRate    float64 `json:"mutation_rate"`
	CrossoverRate   float64 `json:"crossover_rate"`
	MaxInitAttempts int     `json:"max_init_attempts"`
	Seed            int64   `json:"seed"`

	Selection string `json:"selection,omitempty"`
	Crossover string `json:"crossover,omitempty"`
	Mutation  string `json:"mutation,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:  DefaultPopulationSize,
		Generations:     DefaultGenerations,
		MutationRate:    DefaultMutationRate,
		CrossoverRate:   DefaultCrossoverRate,
		MaxInitAttempts: DefaultMaxInitAttempts,
		Selection:       DefaultSelection,
		Crossover:       DefaultCrossover,
		Mutation:        DefaultMutation,
	}
}

// WithOperatorDefaults fills empty operator names.
func (c Config) WithOperatorDefaults() Config {
	if c.Selection == "" {
		c.Selection = DefaultSelection
	}
	if c.Crossover == "" {
		c.Crossover = DefaultCrossover
	}
	if c.Mutation == "" {
		c.Mutation = DefaultMutation
	}
	return c
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.PopulationSize%2 != 0 {
		return fmt.Errorf("%w: population size must be even, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("%w: generations must be > 0, got %d", ErrInvalidConfig, c.Generations)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1], got %v", ErrInvalidConfig, c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate must be in [0, 1], got %v", ErrInvalidConfig, c.CrossoverRate)
	}
	if c.MaxInitAttempts <= 0 {
		return fmt.Errorf("%w: max init attempts must be > 0, got %d", ErrInvalidConfig, c.MaxInitAttempts)
	}
	return nil
}
