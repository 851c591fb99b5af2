package sph

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/particle"
)

// DensityStats summarises one density pass.
type DensityStats struct {
	Newton, Bisection, BestEstimate int
	Iterations                      int
}

// DensityStage drives the smoothing-length solver for every particle, live
// and ghost, then evaluates the grad-h term once all densities are known.
type DensityStage struct {
	prm    Params
	solver *Solver
	logger *log.Logger
}

func NewDensityStage(prm Params, logger *log.Logger) *DensityStage {
	if logger == nil {
		logger = log.Default()
	}
	return &DensityStage{prm: prm, solver: NewSolver(prm, logger), logger: logger}
}

func (d *DensityStage) Solver() *Solver { return d.solver }

func (d *DensityStage) Run(st *particle.Store) (DensityStats, error) {
	var stats DensityStats
	all := st.All()

	for i := range all {
		p := &all[i]
		field, value := "", 0.0
		switch {
		case math.IsNaN(p.Pos) || math.IsInf(p.Pos, 0):
			field, value = "pos", p.Pos
		case math.IsNaN(p.H) || math.IsInf(p.H, 0):
			field, value = "h", p.H
		}
		if field != "" {
			d.logger.Error("non-finite particle state", "stage", "density", "id", p.ID, "value", value)
			return stats, &DefectError{Stage: "density", ID: p.ID, Field: field, Value: value}
		}
	}

	for i := range all {
		res, err := d.solver.Solve(all, i)
		if err != nil {
			d.logger.Error("density pass aborted", "stage", "density", "id", all[i].ID, "value", res.H)
			return stats, err
		}
		stats.Iterations += res.Iterations
		switch res.Method {
		case Newton:
			stats.Newton++
		case Bisection:
			stats.Bisection++
		case BestEstimate:
			stats.BestEstimate++
		}
		all[i].H = res.H
		all[i].Density = res.Density
	}

	for i := range all {
		p := &all[i]
		if p.Kind == particle.Alive && p.Density <= CalcEpsilon {
			d.logger.Error("density below epsilon", "stage", "density", "id", p.ID, "value", p.Density)
			return stats, &DefectError{Stage: "density", ID: p.ID, Field: "density", Value: p.Density}
		}
		o := Omega(d.prm, all, i)
		if !validOmega(o) {
			d.logger.Warn("grad-h term out of range, using 1", "id", p.ID, "omega", o)
			o = 1
		}
		p.Omega = o
	}
	return stats, nil
}
