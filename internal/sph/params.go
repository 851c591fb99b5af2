package sph

import (
	"fmt"
	"math"

	"github.com/san-kum/sph1d/internal/kernel"
)

const (
	// CalcEpsilon is the threshold below which a quantity is treated as zero.
	CalcEpsilon = 1e-8
	// HEpsilon is the smoothing length convergence tolerance.
	HEpsilon = 1e-4
	// MaxNewtonIter is kept tight; a smooth kernel converges in a handful of steps.
	MaxNewtonIter = 10
	// MaxBisectIter bounds the fallback bisection.
	MaxBisectIter = 1000

	Gamma = 5.0 / 3.0

	ViscAlpha = 1.0
	ViscBeta  = 2.0
	ViscEta2  = 0.01
)

type EOS int

const (
	Isothermal EOS = iota
	Adiabatic
)

func (e EOS) String() string {
	switch e {
	case Isothermal:
		return "isothermal"
	case Adiabatic:
		return "adiabatic"
	}
	return fmt.Sprintf("eos(%d)", int(e))
}

func ParseEOS(s string) (EOS, error) {
	switch s {
	case "isothermal", "0":
		return Isothermal, nil
	case "adiabatic", "1":
		return Adiabatic, nil
	}
	return 0, fmt.Errorf("unknown equation of state %q", s)
}

type Smoothing int

const (
	VariableH Smoothing = iota
	FixedH
)

func (s Smoothing) String() string {
	if s == FixedH {
		return "fixed"
	}
	return "variable"
}

func ParseSmoothing(s string) (Smoothing, error) {
	switch s {
	case "variable":
		return VariableH, nil
	case "fixed":
		return FixedH, nil
	}
	return 0, fmt.Errorf("unknown smoothing mode %q", s)
}

// Params is the immutable physics snapshot threaded through every stage.
type Params struct {
	NAlive     int
	Limit      float64
	EOS        EOS
	SoundSpeed float64
	HFactor    float64
	Smoothing  Smoothing
	FixedH     float64
	Kernel     kernel.Kernel
	// MaxParticles bounds the particle arena, live plus ghost.
	MaxParticles int
}

// MeanSpacing is the mean live-particle spacing across the domain.
func (p Params) MeanSpacing() float64 {
	if p.NAlive <= 0 {
		return 0
	}
	return 2 * p.Limit / float64(p.NAlive)
}

// SeedH is the cold-start smoothing length.
func (p Params) SeedH() float64 {
	if p.Smoothing == FixedH {
		return p.FixedH
	}
	return p.HFactor * p.MeanSpacing()
}

// InitialEnergy is the specific internal energy for which the adiabatic
// sound speed equals SoundSpeed.
func (p Params) InitialEnergy() float64 {
	if p.EOS != Adiabatic {
		return 0
	}
	return p.SoundSpeed * p.SoundSpeed / (Gamma * (Gamma - 1))
}

func (p Params) Validate() error {
	switch {
	case p.Kernel == nil:
		return fmt.Errorf("sph: no kernel")
	case p.Limit <= 0 || math.IsNaN(p.Limit):
		return fmt.Errorf("sph: limit must be positive, got %g", p.Limit)
	case p.HFactor <= 0:
		return fmt.Errorf("sph: h_factor must be positive, got %g", p.HFactor)
	case p.Smoothing == FixedH && p.FixedH <= 0:
		return fmt.Errorf("sph: fixed_h must be positive, got %g", p.FixedH)
	case p.EOS == Isothermal && p.SoundSpeed <= 0:
		return fmt.Errorf("sph: sound_speed must be positive, got %g", p.SoundSpeed)
	}
	return nil
}
