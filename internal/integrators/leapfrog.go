package integrators

import "github.com/san-kum/sph1d/internal/particle"

// Leapfrog is the kick-drift-kick scheme: time-reversible and second order.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Step(sys System, st *particle.Store, dt float64) error {
	halfDt := dt * 0.5

	kick(st, halfDt)
	drift(st, dt)

	if err := sys.Boundary(st); err != nil {
		return err
	}
	if err := sys.Derive(st); err != nil {
		return err
	}

	kick(st, halfDt)
	return nil
}
