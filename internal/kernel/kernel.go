// Package kernel provides the one-dimensional Schoenberg B-spline smoothing kernels.
//
// Kernels are evaluated in terms of the normalised distance q = |r|/h. The
// dimensional kernel is W(q)/h, which integrates to one over the real line.
package kernel

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidArgument = errors.New("kernel: invalid argument")

type Kind int

const (
	Cubic Kind = iota
	Quartic
)

func (k Kind) String() string {
	switch k {
	case Cubic:
		return "cubic"
	case Quartic:
		return "quartic"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts "cubic"/"m4" and "quartic"/"m5".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cubic", "m4":
		return Cubic, nil
	case "quartic", "m5":
		return Quartic, nil
	}
	return 0, fmt.Errorf("%w: unknown kernel %q", ErrInvalidArgument, s)
}

// Kernel is a pure weighting function pair.
type Kernel interface {
	W(q float64) (float64, error)
	DW(q float64) (float64, error)
	// Radius is the support radius in units of h.
	Radius() float64
	Kind() Kind
}

func New(k Kind) (Kernel, error) {
	switch k {
	case Cubic:
		return M4{}, nil
	case Quartic:
		return M5{}, nil
	}
	return nil, fmt.Errorf("%w: unknown kernel kind %d", ErrInvalidArgument, int(k))
}

func checkQ(q float64) error {
	if q < 0 || math.IsNaN(q) {
		return fmt.Errorf("%w: q=%g", ErrInvalidArgument, q)
	}
	return nil
}

// M4 is the cubic B-spline, support radius 2.
type M4 struct{}

const sigmaM4 = 2.0 / 3.0

func (M4) Radius() float64 { return 2 }
func (M4) Kind() Kind      { return Cubic }

func (M4) W(q float64) (float64, error) {
	if err := checkQ(q); err != nil {
		return 0, err
	}
	switch {
	case q < 1:
		a, b := 2-q, 1-q
		return sigmaM4 * (0.25*a*a*a - b*b*b), nil
	case q < 2:
		a := 2 - q
		return sigmaM4 * 0.25 * a * a * a, nil
	}
	return 0, nil
}

func (M4) DW(q float64) (float64, error) {
	if err := checkQ(q); err != nil {
		return 0, err
	}
	switch {
	case q < 1:
		a, b := 2-q, 1-q
		return sigmaM4 * (-0.75*a*a + 3*b*b), nil
	case q < 2:
		a := 2 - q
		return sigmaM4 * -0.75 * a * a, nil
	}
	return 0, nil
}

// M5 is the quartic B-spline, support radius 2.5.
type M5 struct{}

const sigmaM5 = 1.0 / 24.0

func (M5) Radius() float64 { return 2.5 }
func (M5) Kind() Kind      { return Quartic }

func (M5) W(q float64) (float64, error) {
	if err := checkQ(q); err != nil {
		return 0, err
	}
	if q >= 2.5 {
		return 0, nil
	}
	w := pow4(2.5 - q)
	if q < 1.5 {
		w -= 5 * pow4(1.5-q)
	}
	if q < 0.5 {
		w += 10 * pow4(0.5-q)
	}
	return sigmaM5 * w, nil
}

func (M5) DW(q float64) (float64, error) {
	if err := checkQ(q); err != nil {
		return 0, err
	}
	if q >= 2.5 {
		return 0, nil
	}
	dw := -4 * pow3(2.5-q)
	if q < 1.5 {
		dw += 20 * pow3(1.5-q)
	}
	if q < 0.5 {
		dw -= 40 * pow3(0.5-q)
	}
	return sigmaM5 * dw, nil
}

func pow3(x float64) float64 { return x * x * x }
func pow4(x float64) float64 {
	x2 := x * x
	return x2 * x2
}

// MustW evaluates W for a q already known to be non-negative.
func MustW(k Kernel, q float64) float64 {
	w, err := k.W(q)
	if err != nil {
		panic(err)
	}
	return w
}

// MustDW evaluates dW/dq for a q already known to be non-negative.
func MustDW(k Kernel, q float64) float64 {
	dw, err := k.DW(q)
	if err != nil {
		panic(err)
	}
	return dw
}
