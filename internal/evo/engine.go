package evo

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"

	"knapsackga/internal/model"
)

// Observer is notified after every evaluated generation, generation 0 being
// the initial population. population is owned by the engine and is only valid
// for the duration of the call.
type Observer interface {
	ObserveGeneration(ctx context.Context, diag model.GenerationDiagnostics, population []model.Chromosome)
}

type EngineConfig struct {
	Params Config
	// Rand is shared by every stochastic step of every Run. When nil a source
	// seeded from Params.Seed is created.
	Rand      RandomSource
	Selector  Selector
	Crossover Crossover
	Mutation  Mutation
	Observer  Observer
}

type RunResult struct {
	Best             model.Solution
	Result           model.Result
	BestByGeneration []int
	Diagnostics      []model.GenerationDiagnostics
	InitFallbacks    int
	FinalPopulation  []model.Chromosome
}

// Engine drives the generational loop. It is not safe for concurrent use.
type Engine struct {
	cfg         Config
	rng         RandomSource
	initializer Initializer
	selector    Selector
	crossover   Crossover
	mutation    Mutation
	observer    Observer
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	cfg.Params = cfg.Params.WithOperatorDefaults()
	if cfg.Rand == nil {
		cfg.Rand = NewRandomSource(ResolveSeed(cfg.Params.Seed))
	}
	var err error
	if cfg.Selector == nil {
		if cfg.Selector, err = ResolveSelector(cfg.Params.Selection, cfg.Params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if cfg.Crossover == nil {
		if cfg.Crossover, err = ResolveCrossover(cfg.Params.Crossover, cfg.Params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if cfg.Mutation == nil {
		if cfg.Mutation, err = ResolveMutation(cfg.Params.Mutation, cfg.Params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	return &Engine{
		cfg:         cfg.Params,
		rng:         cfg.Rand,
		initializer: Initializer{MaxAttempts: cfg.Params.MaxInitAttempts},
		selector:    cfg.Selector,
		crossover:   cfg.Crossover,
		mutation:    cfg.Mutation,
		observer:    cfg.Observer,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Run optimizes one instance. The best solution is reset on every call while
// the random stream carries over, so consecutive calls replay identically
// only when the engine is rebuilt with the same seed.
// BestByGeneration[0] and Diagnostics[0] describe the initial population;
// entry g describes bred generation g.
func (e *Engine) Run(ctx context.Context, instance model.Instance) (RunResult, error) {
	problem, err := NewProblem(instance)
	if err != nil {
		return RunResult{}, err
	}
	logger := klog.FromContext(ctx).WithValues("instance", instance.ID, "items", problem.Len(), "capacity", problem.Capacity)

	population, fallbacks := e.initializer.Population(e.rng, problem, e.cfg.PopulationSize)
	if fallbacks > 0 {
		logger.V(1).Info("Initializer exhausted attempts, using empty selection", "fallbacks", fallbacks, "maxAttempts", e.initializer.MaxAttempts)
	}

	best := model.Solution{Chromosome: make(model.Chromosome, problem.Len())}
	bestHistory := make([]int, 0, e.cfg.Generations+1)
	diagnostics := make([]model.GenerationDiagnostics, 0, e.cfg.Generations+1)

	record := func(gen int) {
		fitness := scorePopulation(problem, population)
		best = improveBest(best, population, fitness)
		diag := summarizeGeneration(problem, gen, best.Fitness, population, fitness)
		bestHistory = append(bestHistory, best.Fitness)
		diagnostics = append(diagnostics, diag)
		if e.observer != nil {
			e.observer.ObserveGeneration(ctx, diag, population)
		}
		logger.V(4).Info("Generation evaluated", "generation", gen, "best", best.Fitness, "generationBest", diag.GenerationBest, "mean", diag.MeanFitness, "feasible", diag.FeasibleCount)
	}

	record(0)
	for gen := 1; gen <= e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		population, err = e.nextGeneration(problem, population)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		record(gen)
	}

	result := problem.Result(best.Chromosome)
	logger.V(2).Info("Run complete", "bestFitness", best.Fitness, "totalWeight", result.TotalWeight, "selected", len(result.SelectedIndices))

	return RunResult{
		Best:             best,
		Result:           result,
		BestByGeneration: bestHistory,
		Diagnostics:      diagnostics,
		InitFallbacks:    fallbacks,
		FinalPopulation:  population,
	}, nil
}

// nextGeneration selects a mating pool and fully replaces the population with
// two children per consecutive pair, one per prefix donor.
func (e *Engine) nextGeneration(p Problem, population []model.Chromosome) ([]model.Chromosome, error) {
	selected, err := e.selector.Select(e.rng, p, population)
	if err != nil {
		return nil, err
	}
	if len(selected) != len(population) {
		return nil, fmt.Errorf("selector %s returned %d individuals, want %d", e.selector.Name(), len(selected), len(population))
	}

	next := make([]model.Chromosome, 0, len(selected))
	for i := 0; i+1 < len(selected); i += 2 {
		first := e.crossover.Cross(e.rng, selected[i], selected[i+1])
		second := e.crossover.Cross(e.rng, selected[i+1], selected[i])
		e.mutation.Mutate(e.rng, first)
		e.mutation.Mutate(e.rng, second)
		next = append(next, first, second)
	}
	return next, nil
}

func scorePopulation(p Problem, population []model.Chromosome) []int {
	fitness := make([]int, len(population))
	for i, c := range population {
		fitness[i] = p.Fitness(c)
	}
	return fitness
}

// improveBest replaces best only on strict improvement and stores a copy, so
// later mutation of the live population cannot reach it.
func improveBest(best model.Solution, population []model.Chromosome, fitness []int) model.Solution {
	for i, f := range fitness {
		if f > best.Fitness {
			best = model.Solution{Chromosome: population[i].Clone(), Fitness: f}
		}
	}
	return best
}

func summarizeGeneration(p Problem, generation, bestEver int, population []model.Chromosome, fitness []int) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{Generation: generation, BestFitness: bestEver}
	if len(fitness) == 0 {
		return diag
	}

	values := make([]float64, len(fitness))
	genotypes := make(map[string]struct{}, len(population))
	diag.MinFitness = fitness[0]
	for i, f := range fitness {
		values[i] = float64(f)
		if f > diag.GenerationBest {
			diag.GenerationBest = f
		}
		if f < diag.MinFitness {
			diag.MinFitness = f
		}
		if p.Feasible(population[i]) {
			diag.FeasibleCount++
		}
		genotypes[population[i].String()] = struct{}{}
	}
	diag.MeanFitness, diag.FitnessStdDev = stat.MeanStdDev(values, nil)
	diag.DistinctGenotypes = len(genotypes)
	return diag
}
