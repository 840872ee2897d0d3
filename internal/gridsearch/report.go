package gridsearch

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Plotter is the plotting collaborator: given parallel x/y data and labels
// it writes one image file. internal/plotting provides the gonum-backed
// implementation.
type Plotter interface {
	Scatter(x, y []float64, xlabel, ylabel, title, outPath string) error
}

// FlatTable is the flattened results table: one row per grid point with one
// column per optimized axis plus the RMSE. A derived, regenerable artifact.
type FlatTable struct {
	Columns []string // "location.name" axis keys, in axis order
	Rows    []FlatRow
}

// FlatRow is one grid point's flattened values.
type FlatRow struct {
	Index  int
	Values map[string]float64
	RMSE   float64
}

// flattenResults tabulates every grid point's optimized parameter values and
// its error.
func flattenResults(grid *Grid, results []Result) *FlatTable {
	t := &FlatTable{}
	for _, axis := range grid.Axes {
		t.Columns = append(t.Columns, axis.Key())
	}

	for i, p := range grid.Points {
		row := FlatRow{Index: p.Index, Values: make(map[string]float64, len(grid.Axes)), RMSE: results[i].RMSE}
		for _, axis := range grid.Axes {
			v, ok := ValueAsFloat(p.Assignment[axis.Location][axis.Name])
			if !ok {
				v = math.NaN()
			}
			row.Values[axis.Key()] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteCSV writes the table as results.csv-style output: an index column,
// one column per axis, and rmse last.
func (t *FlatTable) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"index"}, t.Columns...)
	header = append(header, "rmse")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(row.Index))
		for _, col := range t.Columns {
			rec = append(rec, strconv.FormatFloat(row.Values[col], 'g', -1, 64))
		}
		rec = append(rec, strconv.FormatFloat(row.RMSE, 'g', -1, 64))
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index, err)
		}
	}
	w.Flush()
	return w.Error()
}

// LoadResultsCSV reads a table previously written by WriteCSV.
func LoadResultsCSV(path string) (*FlatTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	header := records[0]
	if len(header) < 2 || header[0] != "index" || header[len(header)-1] != "rmse" {
		return nil, fmt.Errorf("%s: unexpected header %v", path, header)
	}

	t := &FlatTable{Columns: append([]string(nil), header[1:len(header)-1]...)}
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s: row has %d fields, header has %d", path, len(rec), len(header))
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s: index %q: %w", path, rec[0], err)
		}
		row := FlatRow{Index: idx, Values: make(map[string]float64, len(t.Columns))}
		for i, col := range t.Columns {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: column %s: %w", path, col, err)
			}
			row.Values[col] = v
		}
		row.RMSE, err = strconv.ParseFloat(rec[len(rec)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: rmse: %w", path, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// PlotFilename returns the image filename for one axis, with periods masked
// to underscores.
func PlotFilename(axis Axis) string {
	return "rmse_vs_" + strings.ReplaceAll(axis.Key(), ".", "_") + ".png"
}

// plotAxes drives one RMSE-vs-parameter scatter per axis. Axes declared
// continuous-log plot the log10 of their values. Points with a NaN score
// (skipped failures) are left off the plots.
func plotAxes(p Plotter, savePath string, grid *Grid, table *FlatTable) ([]string, error) {
	var created []string
	for _, axis := range grid.Axes {
		key := axis.Key()
		xlabel := key

		xs := make([]float64, 0, len(table.Rows))
		ys := make([]float64, 0, len(table.Rows))
		for _, row := range table.Rows {
			if math.IsNaN(row.RMSE) {
				continue
			}
			x := row.Values[key]
			if axis.IsLog {
				x = math.Log10(x)
			}
			xs = append(xs, x)
			ys = append(ys, row.RMSE)
		}
		if axis.IsLog {
			xlabel = "log10 " + key
		}

		name := PlotFilename(axis)
		out := filepath.Join(savePath, name)
		if err := p.Scatter(xs, ys, xlabel, "RMSE", "RMSE vs "+key, out); err != nil {
			return created, fmt.Errorf("plot %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}
