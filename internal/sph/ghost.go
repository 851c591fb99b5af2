package sph

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/particle"
)

// GhostBoundary emulates reflecting walls at -Limit and +Limit by mirroring
// live particles that lie within one kernel radius of a wall.
type GhostBoundary struct {
	prm    Params
	logger *log.Logger
	buf    []particle.Particle
}

func NewGhostBoundary(prm Params, logger *log.Logger) *GhostBoundary {
	if logger == nil {
		logger = log.Default()
	}
	return &GhostBoundary{prm: prm, logger: logger}
}

func mirror(p particle.Particle, wall float64) particle.Particle {
	g := p
	g.Kind = particle.Ghost
	g.Source = p.ID
	g.Pos = 2*wall - p.Pos
	g.Vel = -p.Vel
	g.Acc = -p.Acc
	g.DuDt = 0
	return g
}

// Rebuild destroys the previous ghost set and synthesises a new one from the
// current live particle positions.
func (g *GhostBoundary) Rebuild(st *particle.Store) error {
	g.buf = g.buf[:0]
	left, right := -g.prm.Limit, g.prm.Limit
	radius := g.prm.Kernel.Radius()

	for _, p := range st.Alive() {
		if p.H < CalcEpsilon {
			g.logger.Error("zero smoothing length", "stage", "ghost", "id", p.ID, "value", p.H)
			return &DefectError{Stage: "ghost", ID: p.ID, Field: "h", Value: p.H}
		}
		reach := radius * p.H
		if p.Pos-left < reach {
			g.buf = append(g.buf, mirror(p, left))
		}
		if right-p.Pos < reach {
			g.buf = append(g.buf, mirror(p, right))
		}
	}

	from := st.Cap()
	grown, err := st.ReplaceGhosts(g.buf)
	if err != nil {
		g.logger.Error("ghost store growth failed", "stage", "ghost", "ghosts", len(g.buf), "err", err)
		return fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	if grown {
		g.logger.Info("reallocated particle store for ghosts", "from", from, "to", st.Cap(), "ghosts", st.NGhost())
	}
	return nil
}
