// Package knapsack is the programmatic entry point to the solver: it runs
// instances through the GA engine, persists every run and serves run history
// back to callers such as knapsackctl.
package knapsack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"knapsackga/internal/evo"
	"knapsackga/internal/metrics"
	"knapsackga/internal/model"
	"knapsackga/internal/stats"
	"knapsackga/internal/storage"
	"knapsackga/internal/testcase"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "knapsack.db"
	defaultRunsLimit  = 20
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
}

type Client struct {
	store       storage.Store
	storeKind   string
	initialized bool

	runsDir    string
	exportsDir string
}

type SolveRequest struct {
	Instances []model.Instance
	// InputPath is recorded in the run config only.
	InputPath string
	Config    evo.Config
	// Verify computes the exact optimum for instances small enough to
	// enumerate.
	Verify bool
	// Report receives the text report of every case as it completes.
	Report io.Writer
	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string
	Plot        bool
}

type CaseSummary struct {
	CaseIndex        int
	Result           model.Result
	BestByGeneration []int
	InitFallbacks    int
	Optimum          *int
}

type SolveSummary struct {
	RunID        string
	Seed         int64
	ArtifactsDir string
	ChartPath    string
	Cases        []CaseSummary
	Summary      stats.RunSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID         string
	CreatedAtUTC  string
	Cases         int
	Seed          int64
	Population    int
	Generations   int
	TotalValue    int
	VerifiedCases int
	OptimalCases  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// FitnessHistoryRequest selects a run and optionally one case (1-based).
// Limit caps the generations returned per case.
type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Case   int
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Case   int
	Limit  int
}

type PlotRequest struct {
	RunID   string
	Latest  bool
	OutPath string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		storeKind:  storeKind,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", c.storeKind, err)
	}
	c.initialized = true
	return nil
}

// Solve runs every instance in order on one engine, so all cases draw from a
// single random stream seeded once per run. Every instance is validated before
// the first case runs.
func (c *Client) Solve(ctx context.Context, req SolveRequest) (SolveSummary, error) {
	if len(req.Instances) == 0 {
		return SolveSummary{}, errors.New("at least one instance is required")
	}
	if err := req.Config.Validate(); err != nil {
		return SolveSummary{}, err
	}
	for i, instance := range req.Instances {
		if _, err := evo.NewProblem(instance); err != nil {
			return SolveSummary{}, fmt.Errorf("case %d: %w", i+1, err)
		}
	}
	if err := c.Init(ctx); err != nil {
		return SolveSummary{}, err
	}

	cfg := req.Config.WithOperatorDefaults()
	cfg.Seed = evo.ResolveSeed(cfg.Seed)
	runID := uuid.NewString()
	logger := klog.FromContext(ctx).WithValues("runID", runID)
	ctx = klog.NewContext(ctx, logger)

	var recorder *metrics.Recorder
	if req.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}
	source := evo.NewRandomSource(cfg.Seed)

	started := time.Now()
	cases := make([]model.CaseRecord, 0, len(req.Instances))
	history := make([][]int, 0, len(req.Instances))
	diagnostics := make([][]model.GenerationDiagnostics, 0, len(req.Instances))
	summaries := make([]CaseSummary, 0, len(req.Instances))
	for i, instance := range req.Instances {
		caseID := instance.ID
		if caseID == "" {
			caseID = strconv.Itoa(i + 1)
		}
		engineCfg := evo.EngineConfig{Params: cfg, Rand: source}
		if recorder != nil {
			engineCfg.Observer = recorder.ForCase(caseID)
		}
		engine, err := evo.NewEngine(engineCfg)
		if err != nil {
			return SolveSummary{}, err
		}
		result, err := engine.Run(ctx, instance)
		if err != nil {
			return SolveSummary{}, fmt.Errorf("case %d: %w", i+1, err)
		}
		if recorder != nil {
			recorder.CaseSolved(caseID, result)
		}

		record := model.CaseRecord{
			CaseIndex:     i,
			Instance:      instance,
			Best:          result.Best,
			Result:        result.Result,
			InitFallbacks: result.InitFallbacks,
		}
		if req.Verify {
			record.Optimum = verify(logger, i+1, instance, result.Best.Fitness)
		}
		if req.Report != nil {
			if err := testcase.WriteReport(req.Report, i+1, instance, result.Result); err != nil {
				return SolveSummary{}, fmt.Errorf("write report: %w", err)
			}
		}

		cases = append(cases, record)
		history = append(history, result.BestByGeneration)
		diagnostics = append(diagnostics, result.Diagnostics)
		summaries = append(summaries, CaseSummary{
			CaseIndex:        i,
			Result:           result.Result,
			BestByGeneration: append([]int(nil), result.BestByGeneration...),
			InitFallbacks:    result.InitFallbacks,
			Optimum:          record.Optimum,
		})
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	run := storage.StampVersion(model.RunRecord{
		ID:           runID,
		CreatedAtUTC: createdAt,
		Seed:         cfg.Seed,
		Cases:        cases,
	})
	if err := c.store.SaveRun(ctx, run); err != nil {
		return SolveSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return SolveSummary{}, fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return SolveSummary{}, fmt.Errorf("save generation diagnostics: %w", err)
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:           runID,
			InputPath:       req.InputPath,
			Cases:           len(cases),
			PopulationSize:  cfg.PopulationSize,
			Generations:     cfg.Generations,
			MutationRate:    cfg.MutationRate,
			CrossoverRate:   cfg.CrossoverRate,
			MaxInitAttempts: cfg.MaxInitAttempts,
			Seed:            cfg.Seed,
			Selection:       cfg.Selection,
			Crossover:       cfg.Crossover,
			Mutation:        cfg.Mutation,
			StoreKind:       c.storeKind,
		},
		Cases:                 cases,
		BestByGeneration:      history,
		GenerationDiagnostics: diagnostics,
	})
	if err != nil {
		return SolveSummary{}, err
	}
	summary := stats.BuildRunSummary(cases, history)
	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:          runID,
		Cases:          len(cases),
		PopulationSize: cfg.PopulationSize,
		Generations:    cfg.Generations,
		Seed:           cfg.Seed,
		TotalValue:     summary.TotalValue,
		VerifiedCases:  summary.VerifiedCases,
		OptimalCases:   summary.OptimalCases,
		CreatedAtUTC:   createdAt,
	}); err != nil {
		return SolveSummary{}, err
	}

	out := SolveSummary{
		RunID:        runID,
		Seed:         cfg.Seed,
		ArtifactsDir: filepath.Clean(runDir),
		Cases:        summaries,
		Summary:      summary,
	}
	if req.Plot {
		chartPath, err := stats.WriteConvergenceChart(c.runsDir, runID, "")
		if err != nil {
			return SolveSummary{}, fmt.Errorf("plot: %w", err)
		}
		out.ChartPath = filepath.Clean(chartPath)
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(req.MetricsFile); err != nil {
			return SolveSummary{}, fmt.Errorf("write metrics: %w", err)
		}
	}

	logger.V(1).Info("Run persisted", "cases", len(cases), "seed", cfg.Seed, "dir", out.ArtifactsDir, "elapsed", time.Since(started))
	return out, nil
}

func verify(logger klog.Logger, caseNumber int, instance model.Instance, best int) *int {
	if len(instance.Items) > evo.MaxBruteForceItems {
		logger.V(1).Info("Skipping exact verification", "case", caseNumber, "items", len(instance.Items), "maxItems", evo.MaxBruteForceItems)
		return nil
	}
	optimum, err := evo.BruteForce(instance)
	if err != nil {
		logger.Error(err, "Exact verification failed", "case", caseNumber)
		return nil
	}
	if best < optimum.Fitness {
		logger.V(1).Info("GA result below optimum", "case", caseNumber, "best", best, "optimum", optimum.Fitness)
	}
	value := optimum.Fitness
	return &value
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:         e.RunID,
			CreatedAtUTC:  e.CreatedAtUTC,
			Cases:         e.Cases,
			Seed:          e.Seed,
			Population:    e.PopulationSize,
			Generations:   e.Generations,
			TotalValue:    e.TotalValue,
			VerifiedCases: e.VerifiedCases,
			OptimalCases:  e.OptimalCases,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// FitnessHistory reads the store first and falls back to the run directory,
// which also covers runs recorded by an earlier process on the memory store.
func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([][]int, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessHistory(c.runsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	return selectCases(history, req.Case, req.Limit)
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([][]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.runsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	return selectCases(diagnostics, req.Case, req.Limit)
}

// Run returns the full record of a stored run.
func (c *Client) Run(ctx context.Context, runID string, latest bool) (model.RunRecord, error) {
	runID, err := c.resolveRunID(runID, latest)
	if err != nil {
		return model.RunRecord{}, err
	}
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if ok {
		return run, nil
	}

	cfg, ok, err := stats.ReadRunConfig(c.runsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	cases, found, err := stats.ReadResults(c.runsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok || !found {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return storage.StampVersion(model.RunRecord{ID: runID, Seed: cfg.Seed, Cases: cases}), nil
}

func (c *Client) Plot(_ context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return "", err
	}
	path, err := stats.WriteConvergenceChart(c.runsDir, runID, req.OutPath)
	if err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if !latest {
		if runID == "" {
			return "", errors.New("run id or latest is required")
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

// selectCases narrows per-case series to one 1-based case when caseNumber is
// set and truncates each series to limit entries when limit is set.
func selectCases[T any](series [][]T, caseNumber, limit int) ([][]T, error) {
	if caseNumber < 0 || caseNumber > len(series) {
		return nil, fmt.Errorf("case %d out of range [1, %d]", caseNumber, len(series))
	}
	if caseNumber > 0 {
		series = series[caseNumber-1 : caseNumber]
	}
	out := make([][]T, len(series))
	for i, values := range series {
		if limit > 0 && len(values) > limit {
			values = values[:limit]
		}
		out[i] = append([]T(nil), values...)
	}
	return out, nil
}
