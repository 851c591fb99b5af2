package sph

import (
	"errors"
	"fmt"

	"github.com/san-kum/sph1d/internal/particle"
)

// Error kinds. Allocation failures and numerical defects are fatal for the
// run; non-convergence is recovered inside the solver and never returned by
// a stage.
var (
	// ErrAllocation indicates the ghost store could not grow.
	ErrAllocation = errors.New("sph: particle store allocation failed")

	// ErrNumericalDefect indicates a physical-model breakdown (negative h,
	// density below epsilon, crossed particles, vacuum).
	ErrNumericalDefect = errors.New("sph: numerical defect")

	// ErrNonConvergence indicates a root-finder missed its tolerance.
	ErrNonConvergence = errors.New("sph: smoothing length solver did not converge")
)

// DefectError carries the particle and stage at which a numerical defect was
// detected.
type DefectError struct {
	Stage string
	ID    particle.ID
	Field string
	Value float64
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("sph: numerical defect in %s: particle %d has %s %g", e.Stage, e.ID, e.Field, e.Value)
}

func (e *DefectError) Unwrap() error { return ErrNumericalDefect }

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAllocation) || errors.Is(err, ErrNumericalDefect)
}
