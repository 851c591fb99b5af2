package metrics

import (
	"math"

	"github.com/san-kum/sph1d/internal/analysis"
	"github.com/san-kum/sph1d/internal/sim"
)

// ShockError is the RMS relative density error against the analytic
// isothermal collision, evaluated at the latest observed step inside the
// region the wall rarefactions have not reached, shrunk by margin.
type ShockError struct {
	name   string
	shock  analysis.IsothermalShock
	limit  float64
	margin float64
	last   float64
}

func NewShockError(shock analysis.IsothermalShock, limit, margin float64) *ShockError {
	return &ShockError{name: "shock_rms", shock: shock, limit: limit, margin: margin, last: math.NaN()}
}

func (m *ShockError) Name() string { return m.name }

func (m *ShockError) Observe(s sim.Snapshot) {
	half := m.shock.ValidHalfWidth(m.limit, s.Time) - m.margin
	if half <= 0 {
		return
	}
	alive := s.Store.Alive()
	p := analysis.Profile{X: make([]float64, len(alive)), Values: make([]float64, len(alive))}
	for i := range alive {
		p.X[i] = alive[i].Pos
		p.Values[i] = alive[i].Density
	}
	xs, rhos := analysis.Window(p, half)
	if len(xs) == 0 {
		return
	}
	m.last = analysis.RMSRelative(xs, rhos, func(x float64) float64 { return m.shock.Density(x, s.Time) })
}

// Value is NaN until a step with a non-empty comparison window is observed.
func (m *ShockError) Value() float64 { return m.last }

func (m *ShockError) Reset() { m.last = math.NaN() }
