package integrators

import (
	"fmt"

	"github.com/san-kum/sph1d/internal/particle"
)

// System supplies boundary resynthesis and derivative passes for a particle
// store.
type System interface {
	Boundary(st *particle.Store) error
	Derive(st *particle.Store) error
}

// Stepper advances live particles by one timestep. Accelerations and du/dt
// must be current on entry and are current on return.
type Stepper interface {
	Step(sys System, st *particle.Store, dt float64) error
	Name() string
}

func New(name string) (Stepper, error) {
	switch name {
	case "", "leapfrog", "kdk":
		return NewLeapfrog(), nil
	case "euler":
		return NewEuler(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}

// kick advances velocity and internal energy of live particles.
func kick(st *particle.Store, dt float64) {
	alive := st.Alive()
	for i := range alive {
		alive[i].Vel += alive[i].Acc * dt
		alive[i].U += alive[i].DuDt * dt
	}
}

// drift advances positions of live particles. Ghosts are never drifted.
func drift(st *particle.Store, dt float64) {
	alive := st.Alive()
	for i := range alive {
		alive[i].Pos += alive[i].Vel * dt
	}
}
