package metrics

import (
	"math"

	"github.com/san-kum/sph1d/internal/sim"
)

// Stability is the fraction of observed steps in which every live particle
// stayed inside the walls with finite state.
type Stability struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewStability(limit float64) *Stability {
	return &Stability{
		name:  "stability",
		limit: limit,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap sim.Snapshot) {
	s.samples++
	for _, p := range snap.Store.Alive() {
		if math.Abs(p.Pos) > s.limit || math.IsNaN(p.Vel) || math.IsInf(p.Vel, 0) {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
