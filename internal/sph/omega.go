package sph

import (
	"math"

	"github.com/san-kum/sph1d/internal/particle"
)

// Omega is the grad-h correction 1 - (dh/drho) * sum_j m_j dW_ij/dh for a
// particle whose h and density are already solved. With h = h_factor*m/rho,
// dh/drho = -h/rho. Fixed smoothing length gives exactly 1.
func Omega(prm Params, all []particle.Particle, i int) float64 {
	if prm.Smoothing == FixedH {
		return 1
	}
	p := &all[i]
	if p.Density <= 0 || p.H <= 0 {
		return 1
	}
	return 1 + (p.H/p.Density)*DensityDh(prm.Kernel, all, p.Pos, p.H)
}

func validOmega(o float64) bool {
	return o > CalcEpsilon && !math.IsInf(o, 0)
}
