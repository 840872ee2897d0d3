// Package report renders an interactive HTML summary of a grid-search run
// using go-echarts: one RMSE-vs-parameter scatter chart per optimized axis.
package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/alloy-data/degradation.fit/internal/gridsearch"
)

// WriteHTML writes the run report to path. Axes declared continuous-log get
// a log10 x-axis, matching the PNG plots.
func WriteHTML(path string, grid *gridsearch.Grid, table *gridsearch.FlatTable) error {
	page := components.NewPage()
	page.PageTitle = "grid search results"

	for _, axis := range grid.Axes {
		page.AddCharts(axisChart(axis, table))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func axisChart(axis gridsearch.Axis, table *gridsearch.FlatTable) *charts.Scatter {
	key := axis.Key()
	xlabel := key
	if axis.IsLog {
		xlabel = "log10 " + key
	}

	data := make([]opts.ScatterData, 0, len(table.Rows))
	for _, row := range table.Rows {
		x := row.Values[key]
		if axis.IsLog {
			x = math.Log10(x)
		}
		if math.IsNaN(row.RMSE) {
			continue
		}
		data = append(data, opts.ScatterData{
			Value:      []interface{}{x, row.RMSE},
			SymbolSize: 8,
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "RMSE vs " + key}),
		charts.WithXAxisOpts(opts.XAxis{Name: xlabel, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RMSE", Type: "value"}),
	)
	scatter.AddSeries("RMSE", data)
	return scatter
}
