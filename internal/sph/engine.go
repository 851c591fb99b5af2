package sph

import (
	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/particle"
)

// Engine sequences the physics stages. It satisfies integrators.System.
type Engine struct {
	prm     Params
	density *DensityStage
	accel   *AccelerationStage
	energy  *EnergyStage
	ghosts  *GhostBoundary
	logger  *log.Logger

	last DensityStats
}

func NewEngine(prm Params, logger *log.Logger) (*Engine, error) {
	if err := prm.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		prm:     prm,
		density: NewDensityStage(prm, logger),
		accel:   NewAccelerationStage(prm, logger),
		energy:  NewEnergyStage(prm),
		ghosts:  NewGhostBoundary(prm, logger),
		logger:  logger,
	}, nil
}

func (e *Engine) Params() Params { return e.prm }

// LastDensityStats reports solver usage for the most recent density pass.
func (e *Engine) LastDensityStats() DensityStats { return e.last }

// Boundary rebuilds the ghost particles after positions change.
func (e *Engine) Boundary(st *particle.Store) error {
	return e.ghosts.Rebuild(st)
}

// Derive runs density, acceleration and energy passes in that order. Every
// density is known before any force is evaluated.
func (e *Engine) Derive(st *particle.Store) error {
	stats, err := e.density.Run(st)
	e.last = stats
	if err != nil {
		return err
	}
	if err := e.accel.Run(st); err != nil {
		return err
	}
	e.energy.Run(st)
	return nil
}
