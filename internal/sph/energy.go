package sph

import "github.com/san-kum/sph1d/internal/particle"

// EnergyStage computes du/dt for live particles. Pressure must already be
// populated by the acceleration pass. Under the isothermal equation of state
// du/dt is identically zero.
type EnergyStage struct {
	prm Params
}

func NewEnergyStage(prm Params) *EnergyStage {
	return &EnergyStage{prm: prm}
}

func (e *EnergyStage) Run(st *particle.Store) {
	all := st.All()
	if e.prm.EOS != Adiabatic {
		for i := 0; i < st.NAlive(); i++ {
			all[i].DuDt = 0
		}
		return
	}

	k := e.prm.Kernel
	for i := 0; i < st.NAlive(); i++ {
		pi := &all[i]
		termI := pi.Pressure / (omegaOf(pi) * pi.Density * pi.Density)

		dudt := 0.0
		for j := range all {
			if j == i {
				continue
			}
			pj := &all[j]
			r := pi.Pos - pj.Pos
			v := pi.Vel - pj.Vel
			hij := 0.5 * (pi.H + pj.H)
			visc := Viscosity(e.prm, pi, pj, r, hij)
			dudt += pj.Mass * (termI*v + 0.5*visc*v) * Gradient(k, r, hij)
		}
		pi.DuDt = dudt
	}
}
