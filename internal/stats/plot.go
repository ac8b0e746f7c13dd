package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"knapsackga/internal/model"
)

// ConvergenceChart plots best-ever, generation best and generation mean
// fitness for one case.
func ConvergenceChart(title string, diagnostics []model.GenerationDiagnostics) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithXAxisOpts(opts.XAxis{Name: "generation"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "fitness",
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)

	generations := make([]string, len(diagnostics))
	best := make([]opts.LineData, len(diagnostics))
	genBest := make([]opts.LineData, len(diagnostics))
	mean := make([]opts.LineData, len(diagnostics))
	for i, diag := range diagnostics {
		generations[i] = strconv.Itoa(diag.Generation)
		best[i] = opts.LineData{Value: diag.BestFitness}
		genBest[i] = opts.LineData{Value: diag.GenerationBest}
		mean[i] = opts.LineData{Value: diag.MeanFitness}
	}

	line.SetXAxis(generations).
		AddSeries("best ever", best).
		AddSeries("generation best", genBest).
		AddSeries("generation mean", mean).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))
	return line
}

// RenderConvergencePage renders one chart per case into w.
func RenderConvergencePage(w io.Writer, runID string, diagnostics [][]model.GenerationDiagnostics) error {
	if len(diagnostics) == 0 {
		return fmt.Errorf("no generation diagnostics for run %s", runID)
	}
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Convergence %s", runID)
	for i, series := range diagnostics {
		page.AddCharts(ConvergenceChart(fmt.Sprintf("Test Case %d", i+1), series))
	}
	return page.Render(w)
}

// WriteConvergenceChart renders the chart for a stored run. An empty outPath
// writes convergence.html inside the run directory.
func WriteConvergenceChart(baseDir, runID, outPath string) (string, error) {
	diagnostics, ok, err := ReadGenerationDiagnostics(baseDir, runID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("generation diagnostics not found for run id: %s", runID)
	}
	if outPath == "" {
		outPath = filepath.Join(baseDir, runID, ConvergenceChartFile)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := RenderConvergencePage(f, runID, diagnostics); err != nil {
		return "", err
	}
	return outPath, nil
}
