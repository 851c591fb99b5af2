package integrators

import "github.com/san-kum/sph1d/internal/particle"

// Euler is the explicit first-order scheme, kept as a baseline for the
// leapfrog's conservation behaviour.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys System, st *particle.Store, dt float64) error {
	alive := st.Alive()
	for i := range alive {
		alive[i].Pos += alive[i].Vel * dt
	}
	kick(st, dt)

	if err := sys.Boundary(st); err != nil {
		return err
	}
	return sys.Derive(st)
}
