package export

import (
	"math"
	"strings"
	"testing"
)

func TestProfileToSVG(t *testing.T) {
	svg := ProfileToSVG([]Series{
		{X: []float64{-0.5, 0, 0.5}, Y: []float64{1, 2, 1}, Color: "#00ff00"},
		{X: []float64{-1, 1}, Y: []float64{1.5, 1.5}, Color: "#ff0000", Line: true},
	}, -1, 1, 400, 200)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg[:min(len(svg), 40)])
	}
	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("circles = %d, want 3", got)
	}
	if got := strings.Count(svg, "<path"); got != 1 {
		t.Errorf("paths = %d, want 1", got)
	}
	if got := strings.Count(svg, "<line"); got != 2 {
		t.Errorf("wall lines = %d, want 2", got)
	}
}

func TestProfileToSVGSkipsNonFinite(t *testing.T) {
	svg := ProfileToSVG([]Series{
		{X: []float64{0, 1}, Y: []float64{math.NaN(), 1}, Color: "#fff"},
	}, -1, 1, 100, 100)
	if got := strings.Count(svg, "<circle"); got != 1 {
		t.Errorf("circles = %d, want 1", got)
	}
	if ProfileToSVG([]Series{{X: []float64{0}, Y: []float64{math.NaN()}}}, -1, 1, 10, 10) != "" {
		t.Error("expected empty output for no finite data")
	}
}
