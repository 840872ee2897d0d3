package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alloy-data/degradation.fit/internal/gridsearch"
)

func TestWriteHTML(t *testing.T) {
	grid := &gridsearch.Grid{
		Axes: []gridsearch.Axis{
			{Location: "model", Name: "alpha", IsLog: true},
			{Location: "model", Name: "n_neighbors"},
		},
	}
	table := &gridsearch.FlatTable{
		Columns: []string{"model.alpha", "model.n_neighbors"},
		Rows: []gridsearch.FlatRow{
			{Index: 0, Values: map[string]float64{"model.alpha": 0.01, "model.n_neighbors": 1}, RMSE: 2.5},
			{Index: 1, Values: map[string]float64{"model.alpha": 1, "model.n_neighbors": 2}, RMSE: 1.5},
			{Index: 2, Values: map[string]float64{"model.alpha": 100, "model.n_neighbors": 3}, RMSE: math.NaN()},
		},
	}

	out := filepath.Join(t.TempDir(), "report.html")
	if err := WriteHTML(out, grid, table); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if len(html) == 0 {
		t.Fatal("report is empty")
	}
	for _, want := range []string{
		"RMSE vs model.alpha",
		"RMSE vs model.n_neighbors",
		"log10 model.alpha",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteHTMLBadPath(t *testing.T) {
	grid := &gridsearch.Grid{}
	table := &gridsearch.FlatTable{}
	err := WriteHTML(filepath.Join(t.TempDir(), "no", "such", "dir", "r.html"), grid, table)
	if err == nil {
		t.Error("WriteHTML to missing directory succeeded, want error")
	}
}
