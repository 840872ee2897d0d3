package plotting

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScatterWritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rmse_vs_alpha.png")

	p := PNG{}
	err := p.Scatter(
		[]float64{0.1, 1, 10},
		[]float64{3.2, 1.5, 2.8},
		"model.alpha", "RMSE", "RMSE vs model.alpha", out,
	)
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("output is not a PNG file")
	}
}

func TestScatterLengthMismatch(t *testing.T) {
	p := PNG{}
	err := p.Scatter([]float64{1, 2}, []float64{1}, "x", "y", "t",
		filepath.Join(t.TempDir(), "out.png"))
	if err == nil {
		t.Error("Scatter with mismatched lengths succeeded, want error")
	}
}
