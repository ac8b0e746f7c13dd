package evo

import (
	"fmt"

	"knapsackga/internal/model"
)

// Problem binds an instance to the fitness function. It never mutates the
// chromosomes it scores.
type Problem struct {
	Capacity int
	Items    []model.Item
}

func NewProblem(instance model.Instance) (Problem, error) {
	if len(instance.Items) == 0 {
		return Problem{}, fmt.Errorf("%w: instance has no items", ErrInvalidInstance)
	}
	if instance.Capacity < 0 {
		return Problem{}, fmt.Errorf("%w: capacity must be >= 0, got %d", ErrInvalidInstance, instance.Capacity)
	}
	for i, item := range instance.Items {
		if item.Weight < 0 || item.Value < 0 {
			return Problem{}, fmt.Errorf("%w: item %d has negative weight or value", ErrInvalidInstance, i)
		}
	}
	return Problem{Capacity: instance.Capacity, Items: instance.Items}, nil
}

func (p Problem) Len() int {
	return len(p.Items)
}

// Fitness is the total selected value, or 0 when the selection is overweight.
func (p Problem) Fitness(c model.Chromosome) int {
	weight, value := p.totals(c)
	if weight > p.Capacity {
		return 0
	}
	return value
}

func (p Problem) Feasible(c model.Chromosome) bool {
	return p.TotalWeight(c) <= p.Capacity
}

func (p Problem) TotalWeight(c model.Chromosome) int {
	weight, _ := p.totals(c)
	return weight
}

func (p Problem) TotalValue(c model.Chromosome) int {
	_, value := p.totals(c)
	return value
}

func (p Problem) SelectedIndices(c model.Chromosome) []int {
	indices := make([]int, 0, len(c))
	for i, gene := range c {
		if gene {
			indices = append(indices, i)
		}
	}
	return indices
}

// Result derives the reported totals for c.
func (p Problem) Result(c model.Chromosome) model.Result {
	weight, value := p.totals(c)
	return model.Result{
		BestFitness:     p.Fitness(c),
		SelectedIndices: p.SelectedIndices(c),
		TotalWeight:     weight,
		TotalValue:      value,
	}
}

func (p Problem) totals(c model.Chromosome) (weight, value int) {
	for i, gene := range c {
		if !gene {
			continue
		}
		weight += p.Items[i].Weight
		value += p.Items[i].Value
	}
	return weight, value
}
