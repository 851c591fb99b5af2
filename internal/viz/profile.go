package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// Resample averages the scattered samples (xs, ys) into n equal bins over
// [xmin, xmax]. Empty bins repeat the previous value so the series stays
// continuous; leading empty bins take the first filled value.
func Resample(xs, ys []float64, xmin, xmax float64, n int) []float64 {
	if n < 1 || len(xs) == 0 {
		return nil
	}
	sum := make([]float64, n)
	cnt := make([]int, n)
	w := (xmax - xmin) / float64(n)
	for i, x := range xs {
		b := int(math.Floor((x - xmin) / w))
		if b < 0 || b >= n {
			continue
		}
		sum[b] += ys[i]
		cnt[b]++
	}

	out := make([]float64, n)
	first := -1
	for i := range out {
		switch {
		case cnt[i] > 0:
			out[i] = sum[i] / float64(cnt[i])
			if first < 0 {
				first = i
			}
		case i > 0:
			out[i] = out[i-1]
		}
	}
	if first < 0 {
		return nil
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	return out
}

// ProfilePlot renders a field sampled at particle positions as an ASCII line
// chart across the domain [-limit, limit].
func ProfilePlot(xs, ys []float64, limit float64, caption string, width, height int) string {
	series := Resample(xs, ys, -limit, limit, width)
	if len(series) == 0 {
		return caption + ": no data"
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
