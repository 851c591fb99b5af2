package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Profile is a sampled field: Values[i] at position X[i].
type Profile struct {
	X      []float64
	Values []float64
}

// Window keeps samples with |x| < halfWidth.
func Window(p Profile, halfWidth float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(p.X))
	vs := make([]float64, 0, len(p.X))
	for i, x := range p.X {
		if math.Abs(x) < halfWidth {
			xs = append(xs, x)
			vs = append(vs, p.Values[i])
		}
	}
	return xs, vs
}

// RMSRelative is sqrt(mean(((v - model(x)) / model(x))^2)). It returns NaN
// for an empty sample.
func RMSRelative(xs, vs []float64, model func(x float64) float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	res := make([]float64, len(xs))
	for i, x := range xs {
		m := model(x)
		res[i] = (vs[i] - m) / m
	}
	return floats.Norm(res, 2) / math.Sqrt(float64(len(res)))
}

// MeanIn is the mean of samples with |x| < halfWidth.
func MeanIn(p Profile, halfWidth float64) float64 {
	_, vs := Window(p, halfWidth)
	if len(vs) == 0 {
		return math.NaN()
	}
	return stat.Mean(vs, nil)
}
