// Package metrics exposes solver progress as Prometheus metrics. Solves are
// batch jobs, so metrics are exported through the node-exporter textfile
// format rather than served.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"knapsackga/internal/evo"
	"knapsackga/internal/model"
)

const namespace = "knapsack_ga"

type Recorder struct {
	registry *prometheus.Registry

	bestFitness       *prometheus.GaugeVec
	generationBest    *prometheus.GaugeVec
	feasibleRatio     *prometheus.GaugeVec
	distinctGenotypes *prometheus.GaugeVec
	generations       *prometheus.CounterVec
	initFallbacks     *prometheus.CounterVec
	casesSolved       prometheus.Counter
}

func NewRecorder() *Recorder {
	caseLabel := []string{"case"}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best-ever fitness of the case so far.",
		}, caseLabel),
		generationBest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_best_fitness",
			Help:      "Best fitness within the latest generation.",
		}, caseLabel),
		feasibleRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feasible_ratio",
			Help:      "Share of the latest generation within capacity.",
		}, caseLabel),
		distinctGenotypes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distinct_genotypes",
			Help:      "Number of distinct chromosomes in the latest generation.",
		}, caseLabel),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Evaluated generations, including the initial population.",
		}, caseLabel),
		initFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "init_fallbacks_total",
			Help:      "Initial chromosomes replaced by the empty selection.",
		}, caseLabel),
		casesSolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cases_solved_total",
			Help:      "Test cases run to completion.",
		}),
	}
	r.registry.MustRegister(
		r.bestFitness,
		r.generationBest,
		r.feasibleRatio,
		r.distinctGenotypes,
		r.generations,
		r.initFallbacks,
		r.casesSolved,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ForCase returns an observer that labels every sample with caseID.
func (r *Recorder) ForCase(caseID string) evo.Observer {
	return caseObserver{recorder: r, caseID: caseID}
}

// CaseSolved records the outcome of a finished case.
func (r *Recorder) CaseSolved(caseID string, result evo.RunResult) {
	r.initFallbacks.WithLabelValues(caseID).Add(float64(result.InitFallbacks))
	r.bestFitness.WithLabelValues(caseID).Set(float64(result.Best.Fitness))
	r.casesSolved.Inc()
}

// WriteTextfile writes the current samples to path in the text exposition
// format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics path is required")
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

type caseObserver struct {
	recorder *Recorder
	caseID   string
}

func (o caseObserver) ObserveGeneration(_ context.Context, diag model.GenerationDiagnostics, population []model.Chromosome) {
	r := o.recorder
	r.generations.WithLabelValues(o.caseID).Inc()
	r.bestFitness.WithLabelValues(o.caseID).Set(float64(diag.BestFitness))
	r.generationBest.WithLabelValues(o.caseID).Set(float64(diag.GenerationBest))
	r.distinctGenotypes.WithLabelValues(o.caseID).Set(float64(diag.DistinctGenotypes))
	if len(population) > 0 {
		r.feasibleRatio.WithLabelValues(o.caseID).Set(float64(diag.FeasibleCount) / float64(len(population)))
	}
}
