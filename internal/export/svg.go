package export

import (
	"fmt"
	"math"
	"strings"
)

// Series is one layer of a profile plot: scattered particles or a curve.
type Series struct {
	X, Y  []float64
	Color string
	Line  bool
}

// ProfileToSVG draws series over [xmin, xmax] with the y range fitted to the
// data. Dashed vertical lines mark the walls at xmin and xmax.
func ProfileToSVG(series []Series, xmin, xmax float64, width, height int) string {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, y := range s.Y {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	// Add padding
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(maxY), 1)
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	rangeX := xmax - xmin
	pad := rangeX * 0.05
	xmin -= pad
	rangeX += 2 * pad

	px := func(x float64) float64 { return (x - xmin) / rangeX * float64(width) }
	py := func(y float64) float64 { return float64(height) - (y-minY)/rangeY*float64(height) }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, x := range []float64{xmin + pad, xmin + rangeX - pad} {
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#555555" stroke-dasharray="4,4"/>
`, px(x), px(x), height))
	}

	for _, s := range series {
		n := min(len(s.X), len(s.Y))
		if s.Line {
			if n < 2 {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
			for i := 0; i < n; i++ {
				if i == 0 {
					sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(s.X[i]), py(s.Y[i])))
				} else {
					sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(s.X[i]), py(s.Y[i])))
				}
			}
			sb.WriteString("\"/>\n")
			continue
		}

		sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", s.Color))
		for i := 0; i < n; i++ {
			if math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2"/>
`, px(s.X[i]), py(s.Y[i])))
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
