package sph

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/sph1d/internal/particle"
)

type Distribution int

const (
	// Uniform places particles at cell centres, colliding at x=0.
	Uniform Distribution = iota
	// Random draws positions uniformly from the domain, colliding at x=0.
	Random
	// Sinusoid is a uniform lattice carrying a standing sound wave with
	// velocity nodes at both walls.
	Sinusoid
)

func (d Distribution) String() string {
	switch d {
	case Uniform:
		return "uniform"
	case Random:
		return "random"
	case Sinusoid:
		return "sinusoid"
	}
	return fmt.Sprintf("distribution(%d)", int(d))
}

func ParseDistribution(s string) (Distribution, error) {
	switch s {
	case "uniform":
		return Uniform, nil
	case "random":
		return Random, nil
	case "sinusoid", "sound_wave":
		return Sinusoid, nil
	}
	return 0, fmt.Errorf("unknown distribution %q", s)
}

// InitialConditions describes how live particles are laid out at t=0.
type InitialConditions struct {
	Distribution Distribution
	Mass         float64
	// V0 is the bulk speed; velocities are V0 * Profile(x).
	V0        float64
	Amplitude float64
	Seed      int64
}

// Profile is the dimensionless initial velocity shape: +1 left of the
// centre and -1 right of it for colliding flows, a standing wave otherwise.
func (ic InitialConditions) Profile(limit, x float64) float64 {
	if ic.Distribution == Sinusoid {
		return ic.Amplitude * math.Sin(math.Pi*(x+limit)/limit)
	}
	if x < 0 {
		return 1
	}
	return -1
}

// Populate creates prm.NAlive live particles in st.
func Populate(st *particle.Store, prm Params, ic InitialConditions) error {
	if prm.NAlive <= 0 {
		return fmt.Errorf("sph: particle count must be positive, got %d", prm.NAlive)
	}
	rng := rand.New(rand.NewSource(ic.Seed))
	spacing := prm.MeanSpacing()
	h := prm.SeedH()
	u := prm.InitialEnergy()

	for i := 0; i < prm.NAlive; i++ {
		var x float64
		if ic.Distribution == Random {
			x = -prm.Limit + 2*prm.Limit*rng.Float64()
		} else {
			x = -prm.Limit + (float64(i)+0.5)*spacing
		}
		p, err := st.AddAlive(x, ic.V0*ic.Profile(prm.Limit, x), ic.Mass)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAllocation, err)
		}
		p.H = h
		p.U = u
	}
	return nil
}

// BackPatchVelocities sets every live velocity to Profile(x) times the local
// sound speed. Pressure must be populated.
func BackPatchVelocities(st *particle.Store, prm Params, ic InitialConditions) {
	alive := st.Alive()
	for i := range alive {
		p := &alive[i]
		p.Vel = ic.Profile(prm.Limit, p.Pos) * prm.SoundSpeedOf(p)
	}
}
