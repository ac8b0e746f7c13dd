package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

type (
	SelectorFactory  func(cfg Config) Selector
	CrossoverFactory func(cfg Config) Crossover
	MutationFactory  func(cfg Config) Mutation
)

type operatorRegistry[F any] struct {
	kind string
	mu   sync.RWMutex
	m    map[string]F
}

func newOperatorRegistry[F any](kind string) *operatorRegistry[F] {
	return &operatorRegistry[F]{kind: kind, m: make(map[string]F)}
}

func (r *operatorRegistry[F]) register(name string, factory F, isNil bool) error {
	if name == "" {
		return fmt.Errorf("%s name is required", r.kind)
	}
	if isNil {
		return fmt.Errorf("%s factory is required", r.kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s %s", ErrOperatorExists, r.kind, name)
	}
	r.m[name] = factory
	return nil
}

func (r *operatorRegistry[F]) lookup(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.m[name]
	if !ok {
		return factory, fmt.Errorf("%w: %s %s", ErrOperatorNotFound, r.kind, name)
	}
	return factory, nil
}

func (r *operatorRegistry[F]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *operatorRegistry[F]) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = make(map[string]F)
}

var (
	selectors  = newOperatorRegistry[SelectorFactory]("selector")
	crossovers = newOperatorRegistry[CrossoverFactory]("crossover")
	mutations  = newOperatorRegistry[MutationFactory]("mutation")
)

func init() {
	registerBuiltinOperators()
}

func registerBuiltinOperators() {
	_ = RegisterSelector(RankSelector{}.Name(), func(Config) Selector { return RankSelector{} })
	_ = RegisterCrossover(OnePointCrossover{}.Name(), func(cfg Config) Crossover {
		return OnePointCrossover{Rate: cfg.CrossoverRate}
	})
	_ = RegisterMutation(BitFlipMutation{}.Name(), func(cfg Config) Mutation {
		return BitFlipMutation{Rate: cfg.MutationRate}
	})
}

func RegisterSelector(name string, factory SelectorFactory) error {
	return selectors.register(name, factory, factory == nil)
}

func RegisterCrossover(name string, factory CrossoverFactory) error {
	return crossovers.register(name, factory, factory == nil)
}

func RegisterMutation(name string, factory MutationFactory) error {
	return mutations.register(name, factory, factory == nil)
}

// ResolveSelector builds the selector registered under name from cfg.
func ResolveSelector(name string, cfg Config) (Selector, error) {
	factory, err := selectors.lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(cfg), nil
}

func ResolveCrossover(name string, cfg Config) (Crossover, error) {
	factory, err := crossovers.lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(cfg), nil
}

func ResolveMutation(name string, cfg Config) (Mutation, error) {
	factory, err := mutations.lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(cfg), nil
}

// ListOperators returns the registered names per operator kind, sorted.
func ListOperators() map[string][]string {
	return map[string][]string{
		selectors.kind:  selectors.names(),
		crossovers.kind: crossovers.names(),
		mutations.kind:  mutations.names(),
	}
}

func resetOperatorRegistryForTests() {
	selectors.reset()
	crossovers.reset()
	mutations.reset()
	registerBuiltinOperators()
}
