// Package plotting renders the grid-search diagnostic plots as PNG files
// using gonum/plot.
package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PNG writes scatter plots sized for quick review of RMSE-vs-parameter
// relationships. It satisfies the gridsearch.Plotter contract.
type PNG struct {
	// Width and Height override the default 8x6 inch canvas when non-zero.
	Width  vg.Length
	Height vg.Length
}

// Scatter plots y against x and saves the image to outPath.
func (g PNG) Scatter(x, y []float64, xlabel, ylabel, title, outPath string) error {
	if len(x) != len(y) {
		return fmt.Errorf("scatter: %d x values, %d y values", len(x), len(y))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i] = plotter.XY{X: x[i], Y: y[i]}
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)

	w, h := g.Width, g.Height
	if w == 0 {
		w = 8 * vg.Inch
	}
	if h == 0 {
		h = 6 * vg.Inch
	}
	if err := p.Save(w, h, outPath); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
