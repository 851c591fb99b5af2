package sph

import (
	"math"

	"github.com/san-kum/sph1d/internal/particle"
)

// Pressure evaluates the equation of state for p.
func (prm Params) Pressure(p *particle.Particle) float64 {
	if prm.EOS == Adiabatic {
		return (Gamma - 1) * p.U * p.Density
	}
	return prm.SoundSpeed * prm.SoundSpeed * p.Density
}

// SoundSpeedOf returns the local sound speed. Pressure must be populated in
// adiabatic mode.
func (prm Params) SoundSpeedOf(p *particle.Particle) float64 {
	if prm.EOS == Adiabatic {
		if p.Density <= 0 || p.Pressure <= 0 {
			return 0
		}
		return math.Sqrt(Gamma * p.Pressure / p.Density)
	}
	return prm.SoundSpeed
}
