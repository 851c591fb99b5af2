package sph

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/kernel"
	"github.com/san-kum/sph1d/internal/particle"
)

// Gradient is dW(r, h)/dr for the dimensional kernel W(|r|/h)/h.
func Gradient(k kernel.Kernel, r, h float64) float64 {
	if r == 0 {
		return 0
	}
	g := kernel.MustDW(k, math.Abs(r)/h) / (h * h)
	if r < 0 {
		return -g
	}
	return g
}

func omegaOf(p *particle.Particle) float64 {
	if p.Omega > 0 {
		return p.Omega
	}
	return 1
}

// Viscosity is the artificial viscosity term between pi and pj, with
// r = pi.Pos - pj.Pos and hij the pairwise mean smoothing length. It vanishes
// for separating pairs.
func Viscosity(prm Params, pi, pj *particle.Particle, r, hij float64) float64 {
	dot := (pi.Vel - pj.Vel) * r
	if dot >= 0 {
		return 0
	}
	cs := prm.SoundSpeed
	if prm.EOS == Adiabatic {
		cs = 0.5 * (prm.SoundSpeedOf(pi) + prm.SoundSpeedOf(pj))
	}
	mu := hij * dot / (r*r + ViscEta2*hij*hij)
	rho := 0.5 * (pi.Density + pj.Density)
	return (-ViscAlpha*cs*mu + ViscBeta*mu*mu) / rho
}

// AccelerationStage sums pressure and viscous forces onto live particles.
// Ghosts exert force but never accumulate it.
type AccelerationStage struct {
	prm    Params
	logger *log.Logger
}

func NewAccelerationStage(prm Params, logger *log.Logger) *AccelerationStage {
	if logger == nil {
		logger = log.Default()
	}
	return &AccelerationStage{prm: prm, logger: logger}
}

func (a *AccelerationStage) Run(st *particle.Store) error {
	all := st.All()
	for i := range all {
		p := &all[i]
		if !(p.Density > CalcEpsilon) {
			a.logger.Error("density below epsilon", "stage", "acceleration", "id", p.ID, "value", p.Density)
			return &DefectError{Stage: "acceleration", ID: p.ID, Field: "density", Value: p.Density}
		}
		p.Pressure = a.prm.Pressure(p)
	}

	k := a.prm.Kernel
	for i := 0; i < st.NAlive(); i++ {
		pi := &all[i]
		termI := pi.Pressure / (omegaOf(pi) * pi.Density * pi.Density)

		acc := 0.0
		for j := range all {
			if j == i {
				continue
			}
			pj := &all[j]
			r := pi.Pos - pj.Pos
			hij := 0.5 * (pi.H + pj.H)
			termJ := pj.Pressure / (omegaOf(pj) * pj.Density * pj.Density)

			acc -= pj.Mass * (termI*Gradient(k, r, pi.H) +
				termJ*Gradient(k, r, pj.H) +
				Viscosity(a.prm, pi, pj, r, hij)*Gradient(k, r, hij))
		}
		pi.Acc = acc
	}
	return nil
}
