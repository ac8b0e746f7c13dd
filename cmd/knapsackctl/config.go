package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"knapsackga/internal/evo"
)

// gaFlags are the GA parameter overrides accepted by solve. Only flags set on
// the command line override the config file.
type gaFlags struct {
	configPath      string
	populationSize  int
	generations     int
	mutationRate    float64
	crossoverRate   float64
	maxInitAttempts int
	seed            int64
	selection       string
	crossover       string
	mutation        string
}

func (g *gaFlags) register(fs *pflag.FlagSet) {
	defaults := evo.DefaultConfig()
	fs.StringVar(&g.configPath, "config", "", "YAML or JSON file with GA parameters")
	fs.IntVar(&g.populationSize, "pop", defaults.PopulationSize, "population size, must be even")
	fs.IntVar(&g.generations, "gens", defaults.Generations, "generations per test case")
	fs.Float64Var(&g.mutationRate, "mutation-rate", defaults.MutationRate, "per-gene flip probability")
	fs.Float64Var(&g.crossoverRate, "crossover-rate", defaults.CrossoverRate, "one-point crossover probability")
	fs.IntVar(&g.maxInitAttempts, "max-init-attempts", defaults.MaxInitAttempts, "rejection sampling attempts per initial chromosome")
	fs.Int64Var(&g.seed, "seed", 0, "random seed, 0 seeds from the clock")
	fs.StringVar(&g.selection, "selection", defaults.Selection, "selection operator")
	fs.StringVar(&g.crossover, "crossover", defaults.Crossover, "crossover operator")
	fs.StringVar(&g.mutation, "mutation", defaults.Mutation, "mutation operator")
}

// resolve layers defaults, the config file and explicitly set flags, then
// validates the result.
func (g *gaFlags) resolve(fs *pflag.FlagSet) (evo.Config, error) {
	cfg := evo.DefaultConfig()
	if g.configPath != "" {
		loaded, err := loadConfigFile(g.configPath)
		if err != nil {
			return evo.Config{}, err
		}
		cfg = loaded
	}

	if fs.Changed("pop") {
		cfg.PopulationSize = g.populationSize
	}
	if fs.Changed("gens") {
		cfg.Generations = g.generations
	}
	if fs.Changed("mutation-rate") {
		cfg.MutationRate = g.mutationRate
	}
	if fs.Changed("crossover-rate") {
		cfg.CrossoverRate = g.crossoverRate
	}
	if fs.Changed("max-init-attempts") {
		cfg.MaxInitAttempts = g.maxInitAttempts
	}
	if fs.Changed("seed") {
		cfg.Seed = g.seed
	}
	if fs.Changed("selection") {
		cfg.Selection = g.selection
	}
	if fs.Changed("crossover") {
		cfg.Crossover = g.crossover
	}
	if fs.Changed("mutation") {
		cfg.Mutation = g.mutation
	}

	cfg = cfg.WithOperatorDefaults()
	if err := cfg.Validate(); err != nil {
		return evo.Config{}, err
	}
	return cfg, nil
}

// loadConfigFile decodes a config file over the defaults, so omitted keys keep
// their default values. Unknown keys are rejected.
func loadConfigFile(path string) (evo.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return evo.Config{}, err
	}
	cfg := evo.DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return evo.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
