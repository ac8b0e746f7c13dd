package storage

import (
	"context"

	"knapsackga/internal/model"
)

// Store persists solver runs. Per-case series are indexed by the case's
// position in RunRecord.Cases.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history [][]int) error
	GetFitnessHistory(ctx context.Context, runID string) ([][]int, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics [][]model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([][]model.GenerationDiagnostics, bool, error)
}
