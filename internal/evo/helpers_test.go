package evo

import (
	"testing"

	"knapsackga/internal/model"
)

// scriptedRandom replays fixed draws and fails the test when exhausted.
type scriptedRandom struct {
	t      *testing.T
	floats []float64
	ints   []int
}

func (s *scriptedRandom) Float64() float64 {
	s.t.Helper()
	if len(s.floats) == 0 {
		s.t.Fatal("scripted random: float draws exhausted")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRandom) Intn(n int) int {
	s.t.Helper()
	if len(s.ints) == 0 {
		s.t.Fatal("scripted random: int draws exhausted")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 || v >= n {
		s.t.Fatalf("scripted random: int draw %d out of [0, %d)", v, n)
	}
	return v
}

// constRandom always returns the same float draw.
type constRandom float64

func (c constRandom) Float64() float64 { return float64(c) }
func (constRandom) Intn(int) int       { return 0 }

func bits(t *testing.T, s string) model.Chromosome {
	t.Helper()
	c, ok := model.ParseChromosome(s)
	if !ok {
		t.Fatalf("bad chromosome literal %q", s)
	}
	return c
}

func fourItemInstance() model.Instance {
	return model.Instance{
		ID:       "four",
		Capacity: 10,
		Items: []model.Item{
			{Weight: 2, Value: 3},
			{Weight: 3, Value: 4},
			{Weight: 4, Value: 5},
			{Weight: 5, Value: 6},
		},
	}
}

func mustProblem(t *testing.T, instance model.Instance) Problem {
	t.Helper()
	p, err := NewProblem(instance)
	if err != nil {
		t.Fatalf("new problem: %v", err)
	}
	return p
}
