package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"knapsackga/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	history     map[string][][]int
	diagnostics map[string][][]model.GenerationDiagnostics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][][]int)
	s.diagnostics = make(map[string][][]model.GenerationDiagnostics)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return copyRun(run), true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history [][]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.history[runID] = copySeries(history)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([][]int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return copySeries(history), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics [][]model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.diagnostics[runID] = copySeries(diagnostics)
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([][]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return copySeries(diagnostics), true, nil
}

func copySeries[T any](series [][]T) [][]T {
	copied := make([][]T, len(series))
	for i, values := range series {
		copied[i] = slices.Clone(values)
	}
	return copied
}

func copyRun(run model.RunRecord) model.RunRecord {
	cases := make([]model.CaseRecord, len(run.Cases))
	for i, c := range run.Cases {
		c.Instance.Items = slices.Clone(c.Instance.Items)
		c.Best.Chromosome = c.Best.Chromosome.Clone()
		c.Result.SelectedIndices = slices.Clone(c.Result.SelectedIndices)
		if c.Optimum != nil {
			optimum := *c.Optimum
			c.Optimum = &optimum
		}
		cases[i] = c
	}
	run.Cases = cases
	return run
}
