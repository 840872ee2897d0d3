// Package dataset provides the in-memory feature table used by the grid
// search: named numeric columns loaded from CSV, with a designated set of
// input features and an optional target column.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Table holds named numeric columns of equal length. InputFeatures and
// TargetFeature select the columns used to derive model matrices; feature
// hooks may append further columns at evaluation time.
type Table struct {
	names []string
	cols  map[string][]float64

	InputFeatures []string
	TargetFeature string
}

// New returns an empty table.
func New() *Table {
	return &Table{cols: make(map[string][]float64)}
}

// Load reads a CSV file with a header row into a table. Every cell is parsed
// as float64; empty cells become NaN. The inputs and target name columns that
// must exist in the file; target may be empty for prediction-only data.
func Load(path string, inputs []string, target string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %s has no data rows", path)
	}

	header := records[0]
	t := New()
	for _, name := range header {
		t.names = append(t.names, name)
		t.cols[name] = make([]float64, 0, len(records)-1)
	}

	for i, row := range records[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(row), len(header))
		}
		for j, cell := range row {
			v := math.NaN()
			if cell != "" {
				v, err = strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", i+2, header[j], err)
				}
			}
			t.cols[header[j]] = append(t.cols[header[j]], v)
		}
	}

	for _, name := range inputs {
		if _, ok := t.cols[name]; !ok {
			return nil, fmt.Errorf("input feature %q not in dataset", name)
		}
	}
	if target != "" {
		if _, ok := t.cols[target]; !ok {
			return nil, fmt.Errorf("target feature %q not in dataset", target)
		}
	}

	t.InputFeatures = append([]string(nil), inputs...)
	t.TargetFeature = target
	return t, nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.cols[t.names[0]])
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Column returns the named column, or false if it does not exist.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// AddFeature appends a new column. The column length must match the table
// and the name must not already exist.
func (t *Table) AddFeature(name string, vals []float64) error {
	if _, ok := t.cols[name]; ok {
		return fmt.Errorf("column %q already exists", name)
	}
	if n := t.NumRows(); n > 0 && len(vals) != n {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(vals), n)
	}
	t.names = append(t.names, name)
	t.cols[name] = append([]float64(nil), vals...)
	return nil
}

// Clone returns a deep copy. Evaluations mutate their own clone only; the
// base table is shared immutable state across grid points.
func (t *Table) Clone() *Table {
	c := New()
	c.names = append([]string(nil), t.names...)
	for name, col := range t.cols {
		c.cols[name] = append([]float64(nil), col...)
	}
	c.InputFeatures = append([]string(nil), t.InputFeatures...)
	c.TargetFeature = t.TargetFeature
	return c
}

// HasTarget reports whether a target column is configured and present.
func (t *Table) HasTarget() bool {
	if t.TargetFeature == "" {
		return false
	}
	_, ok := t.cols[t.TargetFeature]
	return ok
}

// Matrices derives the input matrix and target vector from the current
// input/target feature selection. Call again after adding features.
func (t *Table) Matrices() (*mat.Dense, []float64, error) {
	n := t.NumRows()
	if n == 0 {
		return nil, nil, fmt.Errorf("empty table")
	}
	if len(t.InputFeatures) == 0 {
		return nil, nil, fmt.Errorf("no input features configured")
	}

	x := mat.NewDense(n, len(t.InputFeatures), nil)
	for j, name := range t.InputFeatures {
		col, ok := t.cols[name]
		if !ok {
			return nil, nil, fmt.Errorf("input feature %q not in table", name)
		}
		for i := 0; i < n; i++ {
			x.Set(i, j, col[i])
		}
	}

	var y []float64
	if t.HasTarget() {
		y = append([]float64(nil), t.cols[t.TargetFeature]...)
	}
	return x, y, nil
}
