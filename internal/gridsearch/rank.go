package gridsearch

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// topCount is how many lowest-error configurations are reported.
const topCount = 10

// Ranked is one entry of the best-configurations list.
type Ranked struct {
	Index      int
	RMSE       float64
	Assignment map[string]map[string]any
}

// rankResults selects the min(topCount, n) lowest-RMSE points in ascending
// error order by repeated extract-minimum. Ties keep the first-encountered
// index; NaN scores (skipped failures) sort after every real score.
func rankResults(points []Point, results []Result) []Ranked {
	n := len(results)
	howMany := topCount
	if n < howMany {
		howMany = n
	}

	used := make([]bool, n)
	ranked := make([]Ranked, 0, howMany)
	for len(ranked) < howMany {
		minIdx := -1
		minVal := math.Inf(1)
		for i, r := range results {
			if used[i] {
				continue
			}
			v := r.RMSE
			if math.IsNaN(v) {
				v = math.Inf(1)
			}
			if minIdx == -1 || v < minVal {
				minIdx = i
				minVal = v
			}
		}
		used[minIdx] = true
		ranked = append(ranked, Ranked{
			Index:      results[minIdx].Index,
			RMSE:       results[minIdx].RMSE,
			Assignment: points[minIdx].Assignment,
		})
	}
	return ranked
}

// WriteOptimizedParams serializes the best configuration to the
// OPTIMIZED_PARAMS file, one "location;name;value" line per parameter.
func WriteOptimizedParams(savePath string, best Ranked) error {
	var b strings.Builder
	for _, loc := range sortedKeys(best.Assignment) {
		for _, name := range sortedKeys(best.Assignment[loc]) {
			fmt.Fprintf(&b, "%s;%s;%s\n", loc, name, FormatValue(best.Assignment[loc][name]))
		}
	}
	path := filepath.Join(savePath, "OPTIMIZED_PARAMS")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write OPTIMIZED_PARAMS: %w", err)
	}
	return nil
}

// describeRanked renders one ranked entry for the README.
func describeRanked(r Ranked) string {
	var parts []string
	for _, loc := range sortedKeys(r.Assignment) {
		for _, name := range sortedKeys(r.Assignment[loc]) {
			parts = append(parts, fmt.Sprintf("%s.%s=%s", loc, name, FormatValue(r.Assignment[loc][name])))
		}
	}
	return fmt.Sprintf("%d: %.3f, %s", r.Index, r.RMSE, strings.Join(parts, " "))
}
