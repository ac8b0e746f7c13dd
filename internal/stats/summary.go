package stats

import (
	"gonum.org/v1/gonum/stat"

	"knapsackga/internal/model"
)

// RunSummary aggregates a run across its cases. Gap figures only cover cases
// with a known optimum and are relative: (optimum-best)/optimum.
type RunSummary struct {
	Cases                     int     `json:"cases"`
	TotalValue                int     `json:"total_value"`
	TotalWeight               int     `json:"total_weight"`
	InitFallbacks             int     `json:"init_fallbacks"`
	VerifiedCases             int     `json:"verified_cases"`
	OptimalCases              int     `json:"optimal_cases"`
	MeanGap                   float64 `json:"mean_gap"`
	MaxGap                    float64 `json:"max_gap"`
	MeanConvergenceGeneration float64 `json:"mean_convergence_generation"`
	StdConvergenceGeneration  float64 `json:"std_convergence_generation"`
}

func BuildRunSummary(cases []model.CaseRecord, bestByGeneration [][]int) RunSummary {
	summary := RunSummary{Cases: len(cases)}
	gaps := make([]float64, 0, len(cases))
	for _, c := range cases {
		summary.TotalValue += c.Result.TotalValue
		summary.TotalWeight += c.Result.TotalWeight
		summary.InitFallbacks += c.InitFallbacks
		if c.Optimum == nil {
			continue
		}
		summary.VerifiedCases++
		if c.Best.Fitness >= *c.Optimum {
			summary.OptimalCases++
		}
		gap := 0.0
		if *c.Optimum > 0 {
			gap = float64(*c.Optimum-c.Best.Fitness) / float64(*c.Optimum)
		}
		gaps = append(gaps, gap)
		if gap > summary.MaxGap {
			summary.MaxGap = gap
		}
	}
	if len(gaps) > 0 {
		summary.MeanGap = stat.Mean(gaps, nil)
	}

	convergence := make([]float64, 0, len(bestByGeneration))
	for _, series := range bestByGeneration {
		if len(series) == 0 {
			continue
		}
		convergence = append(convergence, float64(ConvergenceGeneration(series)))
	}
	switch len(convergence) {
	case 0:
	case 1:
		summary.MeanConvergenceGeneration = convergence[0]
	default:
		summary.MeanConvergenceGeneration, summary.StdConvergenceGeneration = stat.MeanStdDev(convergence, nil)
	}
	return summary
}

// ConvergenceGeneration is the first generation whose best-ever fitness equals
// the final one.
func ConvergenceGeneration(series []int) int {
	if len(series) == 0 {
		return 0
	}
	final := series[len(series)-1]
	for gen, best := range series {
		if best == final {
			return gen
		}
	}
	return len(series) - 1
}
