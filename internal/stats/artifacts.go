package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"knapsackga/internal/model"
)

const (
	runIndexFile              = "run_index.json"
	configFile                = "config.json"
	resultsFile               = "results.json"
	fitnessHistoryFile        = "fitness_history.json"
	generationDiagnosticsFile = "generation_diagnostics.json"
	summaryFile               = "summary.json"
	bestSeriesFile            = "best_series.csv"
	ConvergenceChartFile      = "convergence.html"
)

type RunConfig struct {
	RunID           string  `json:"run_id"`
	InputPath       string  `json:"input_path,omitempty"`
	Cases           int     `json:"cases"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	MutationRate    float64 `json:"mutation_rate"`
	CrossoverRate   float64 `json:"crossover_rate"`
	MaxInitAttempts int     `json:"max_init_attempts"`
	Seed            int64   `json:"seed"`
	Selection       string  `json:"selection"`
	Crossover       string  `json:"crossover"`
	Mutation        string  `json:"mutation"`
	StoreKind       string  `json:"store_kind"`
}

type RunArtifacts struct {
	Config                RunConfig                       `json:"config"`
	Cases                 []model.CaseRecord              `json:"cases"`
	BestByGeneration      [][]int                         `json:"best_by_generation"`
	GenerationDiagnostics [][]model.GenerationDiagnostics `json:"generation_diagnostics,omitempty"`
}

type fitnessHistoryFileBody struct {
	BestByGeneration [][]int `json:"best_by_generation"`
	FinalBest        []int   `json:"final_best"`
}

type RunIndexEntry struct {
	RunID          string `json:"run_id"`
	Cases          int    `json:"cases"`
	PopulationSize int    `json:"population_size"`
	Generations    int    `json:"generations"`
	Seed           int64  `json:"seed"`
	TotalValue     int    `json:"total_value"`
	OptimalCases   int    `json:"optimal_cases"`
	VerifiedCases  int    `json:"verified_cases"`
	CreatedAtUTC   string `json:"created_at_utc"`
}

// WriteRunArtifacts lays out one run directory under baseDir and returns its
// path. Existing files for the same run id are overwritten.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if len(artifacts.BestByGeneration) != len(artifacts.Cases) {
		return "", fmt.Errorf("fitness history covers %d cases, want %d", len(artifacts.BestByGeneration), len(artifacts.Cases))
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	finalBest := make([]int, len(artifacts.Cases))
	for i, c := range artifacts.Cases {
		finalBest[i] = c.Best.Fitness
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, resultsFile), artifacts.Cases); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), fitnessHistoryFileBody{BestByGeneration: artifacts.BestByGeneration, FinalBest: finalBest}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, generationDiagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), BuildRunSummary(artifacts.Cases, artifacts.BestByGeneration)); err != nil {
		return "", err
	}
	if err := writeBestSeries(filepath.Join(runDir, bestSeriesFile), artifacts.BestByGeneration); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory into outDir/<runID>. The
// convergence chart is copied when present.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{configFile, resultsFile, fitnessHistoryFile, generationDiagnosticsFile, summaryFile, bestSeriesFile}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	chartPath := filepath.Join(src, ConvergenceChartFile)
	if _, err := os.Stat(chartPath); err == nil {
		if err := copyFile(chartPath, filepath.Join(dst, ConvergenceChartFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = strings.TrimSpace(runID)
	}
	if cfg.RunID != strings.TrimSpace(runID) {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, strings.TrimSpace(runID))
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, configFile), cfg)
}

func ReadResults(baseDir, runID string) ([]model.CaseRecord, bool, error) {
	var cases []model.CaseRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, resultsFile), &cases)
	return cases, ok, err
}

func ReadFitnessHistory(baseDir, runID string) ([][]int, bool, error) {
	var body fitnessHistoryFileBody
	ok, err := readJSON(filepath.Join(baseDir, runID, fitnessHistoryFile), &body)
	return body.BestByGeneration, ok, err
}

func ReadGenerationDiagnostics(baseDir, runID string) ([][]model.GenerationDiagnostics, bool, error) {
	var diagnostics [][]model.GenerationDiagnostics
	ok, err := readJSON(filepath.Join(baseDir, runID, generationDiagnosticsFile), &diagnostics)
	return diagnostics, ok, err
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	var summary RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &summary)
	return summary, ok, err
}

// writeBestSeries writes one row per case and generation, generation 0 being
// the initial population.
func writeBestSeries(path string, bestByGeneration [][]int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"case", "generation", "best_fitness"}); err != nil {
		return err
	}
	for c, series := range bestByGeneration {
		for gen, best := range series {
			if err := writer.Write([]string{strconv.Itoa(c + 1), strconv.Itoa(gen), strconv.Itoa(best)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadBestSeries parses best_series.csv back into per-case series.
func ReadBestSeries(baseDir, runID string) ([][]int, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, bestSeriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return [][]int{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 3 {
		return nil, false, fmt.Errorf("best series header must have at least 3 columns")
	}

	var series [][]int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 3 {
			return nil, false, fmt.Errorf("best series row must have at least 3 columns")
		}
		caseNumber, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, false, err
		}
		if caseNumber < 1 {
			return nil, false, fmt.Errorf("best series case must be >= 1, got %d", caseNumber)
		}
		for len(series) < caseNumber {
			series = append(series, []int{})
		}
		series[caseNumber-1] = append(series[caseNumber-1], value)
	}
	return series, true, nil
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
