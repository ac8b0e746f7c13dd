package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"knapsackga/internal/evo"
	"knapsackga/internal/model"
	"knapsackga/internal/testcase"
	"knapsackga/pkg/knapsack"
)

// runSelector is the --run-id/--latest pair shared by the read commands.
type runSelector struct {
	runID  string
	latest bool
}

func (s *runSelector) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&s.latest, "latest", false, "use the most recent run")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	cmd.MarkFlagsOneRequired("run-id", "latest")
}

func newSolveCommand(opts *globalOptions) *cobra.Command {
	ga := &gaFlags{}
	var (
		inputPath   string
		verify      bool
		plot        bool
		metricsFile string
		quiet       bool
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve every test case in an input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ga.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			instances, err := readInstances(inputPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			out := cmd.OutOrStdout()
			req := knapsack.SolveRequest{
				Instances:   instances,
				InputPath:   inputPath,
				Config:      cfg,
				Verify:      verify,
				MetricsFile: metricsFile,
				Plot:        plot,
			}
			if !quiet {
				req.Report = out
			}
			klog.V(1).InfoS("Solving", "cases", len(instances), "population", cfg.PopulationSize, "generations", cfg.Generations, "store", opts.storeKind)
			summary, err := client.Solve(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "run_id=%s seed=%d cases=%d total_value=%s artifacts=%s\n",
				summary.RunID, summary.Seed, len(summary.Cases), humanize.Comma(int64(summary.Summary.TotalValue)), summary.ArtifactsDir)
			if verify {
				fmt.Fprintf(out, "verified=%d optimal=%d mean_gap=%.4f max_gap=%.4f\n",
					summary.Summary.VerifiedCases, summary.Summary.OptimalCases, summary.Summary.MeanGap, summary.Summary.MaxGap)
			}
			if summary.ChartPath != "" {
				fmt.Fprintf(out, "chart=%s\n", summary.ChartPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "test case file, - for stdin")
	cmd.Flags().BoolVar(&verify, "verify", false, "compare each case with the exact optimum when small enough")
	cmd.Flags().BoolVar(&plot, "plot", false, "render a convergence chart into the run directory")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "skip the per-case report")
	_ = cmd.MarkFlagRequired("input")
	ga.register(cmd.Flags())
	return cmd
}

func readInstances(path string, stdin io.Reader) ([]model.Instance, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = bufio.NewReader(f)
	}
	instances, err := testcase.ParseCases(r)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, errors.New("input contains no test cases")
	}
	return instances, nil
}

func newRunsCommand(opts *globalOptions) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			items, err := client.Runs(cmd.Context(), knapsack.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSONOut(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tCREATED\tCASES\tSEED\tPOP\tGENS\tTOTAL VALUE\tOPTIMAL")
			for _, item := range items {
				optimal := "-"
				if item.VerifiedCases > 0 {
					optimal = fmt.Sprintf("%d/%d", item.OptimalCases, item.VerifiedCases)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
					item.RunID, relativeTime(item.CreatedAtUTC), item.Cases, item.Seed, item.Population, item.Generations,
					humanize.Comma(int64(item.TotalValue)), optimal)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs list as JSON")
	return cmd
}

func relativeTime(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(created)
}

func newFitnessCommand(opts *globalOptions) *cobra.Command {
	var (
		sel       runSelector
		caseIndex int
		limit     int
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Print best-ever fitness per generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			history, err := client.FitnessHistory(cmd.Context(), knapsack.FitnessHistoryRequest{
				RunID:  sel.runID,
				Latest: sel.latest,
				Case:   caseIndex,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSONOut(out, history)
			}
			for i, series := range history {
				number := caseNumber(caseIndex, i)
				for gen, best := range series {
					fmt.Fprintf(out, "case=%d generation=%d best=%d\n", number, gen, best)
				}
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().IntVar(&caseIndex, "case", 0, "1-based case number, 0 for all")
	cmd.Flags().IntVar(&limit, "limit", 0, "max generations per case, 0 for all")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit history as JSON")
	return cmd
}

func newDiagnosticsCommand(opts *globalOptions) *cobra.Command {
	var (
		sel       runSelector
		caseIndex int
		limit     int
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Print per-generation population statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			diagnostics, err := client.Diagnostics(cmd.Context(), knapsack.DiagnosticsRequest{
				RunID:  sel.runID,
				Latest: sel.latest,
				Case:   caseIndex,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSONOut(out, diagnostics)
			}
			for i, series := range diagnostics {
				number := caseNumber(caseIndex, i)
				for _, d := range series {
					fmt.Fprintf(out, "case=%d generation=%d best=%d generation_best=%d mean=%.3f min=%d std=%.3f feasible=%d distinct=%d\n",
						number, d.Generation, d.BestFitness, d.GenerationBest, d.MeanFitness, d.MinFitness, d.FitnessStdDev, d.FeasibleCount, d.DistinctGenotypes)
				}
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().IntVar(&caseIndex, "case", 0, "1-based case number, 0 for all")
	cmd.Flags().IntVar(&limit, "limit", 0, "max generations per case, 0 for all")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit diagnostics as JSON")
	return cmd
}

func newPlotCommand(opts *globalOptions) *cobra.Command {
	var (
		sel     runSelector
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a convergence chart for a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			path, err := client.Plot(cmd.Context(), knapsack.PlotRequest{RunID: sel.runID, Latest: sel.latest, OutPath: outPath})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chart=%s\n", path)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&outPath, "out", "", "output HTML path, defaults to the run directory")
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		sel    runSelector
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to another directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			exported, err := client.Export(cmd.Context(), knapsack.ExportRequest{RunID: sel.runID, Latest: sel.latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "export destination, defaults to --exports-dir")
	return cmd
}

func newOperatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List registered GA operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			operators := evo.ListOperators()
			out := cmd.OutOrStdout()
			for _, kind := range []string{"selector", "crossover", "mutation"} {
				for _, name := range operators[kind] {
					fmt.Fprintf(out, "%s=%s\n", kind, name)
				}
			}
			return nil
		},
	}
}

// caseNumber maps a position in a possibly filtered series back to its
// 1-based case number.
func caseNumber(selected, position int) int {
	if selected > 0 {
		return selected
	}
	return position + 1
}

func writeJSONOut(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
