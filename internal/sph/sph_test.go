package sph

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/kernel"
	"github.com/san-kum/sph1d/internal/particle"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func cubicParams(n int, limit float64) Params {
	return Params{
		NAlive:     n,
		Limit:      limit,
		EOS:        Isothermal,
		SoundSpeed: 1,
		HFactor:    1.2,
		Smoothing:  VariableH,
		Kernel:     kernel.M4{},
	}
}

// lattice populates a colliding-flow lattice without ghosts.
func lattice(t *testing.T, prm Params) *particle.Store {
	t.Helper()
	st := particle.NewStore(particle.NewIDAllocator(), prm.NAlive, prm.MaxParticles)
	ic := InitialConditions{Distribution: Uniform, Mass: 1, V0: 1}
	if err := Populate(st, prm, ic); err != nil {
		t.Fatalf("populate: %v", err)
	}
	return st
}

// threeParticles is the hand-calculable configuration at -0.5, 0, 0.5.
func threeParticles(t *testing.T) (*particle.Store, Params) {
	t.Helper()
	prm := Params{
		NAlive:     3,
		Limit:      1,
		EOS:        Isothermal,
		SoundSpeed: 10,
		HFactor:    1,
		Smoothing:  FixedH,
		FixedH:     1,
		Kernel:     kernel.M4{},
	}
	st := particle.NewStore(particle.NewIDAllocator(), 3, 0)
	for _, x := range []float64{-0.5, 0, 0.5} {
		p, err := st.AddAlive(x, 0, 1)
		if err != nil {
			t.Fatal(err)
		}
		p.H = 1
	}
	return st, prm
}
