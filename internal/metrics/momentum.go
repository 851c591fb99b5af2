package metrics

import (
	"math"

	"github.com/san-kum/sph1d/internal/particle"
	"github.com/san-kum/sph1d/internal/sim"
)

func Momentum(st *particle.Store) float64 {
	p := 0.0
	for _, q := range st.Alive() {
		p += q.Mass * q.Vel
	}
	return p
}

// MomentumDrift is the largest absolute change in total momentum since the
// first observation. Absolute, since symmetric collisions start at zero.
type MomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(s sim.Snapshot) {
	p := Momentum(s.Store)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, math.Abs(p-m.initial))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}
