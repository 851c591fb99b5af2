// Package particle holds the homogeneous particle layout shared by live and
// ghost particles, and the arena that owns them.
package particle

import "fmt"

type Kind uint8

const (
	Alive Kind = iota
	Ghost
)

func (k Kind) String() string {
	switch k {
	case Alive:
		return "Alive"
	case Ghost:
		return "Ghost"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type ID int64

// Particle is one Lagrangian fluid element. Density, Pressure and Omega are
// derived quantities recomputed every pass.
type Particle struct {
	ID   ID
	Kind Kind
	// Source is the id of the live particle a ghost mirrors; zero for live particles.
	Source ID

	Pos, Vel, Acc float64
	Mass          float64
	H             float64

	Density  float64
	Pressure float64
	Omega    float64

	U    float64
	DuDt float64
}

func (p *Particle) IsGhost() bool { return p.Kind == Ghost }

func (p Particle) String() string {
	return fmt.Sprintf("<Particle> id: %d type: %s pos: %g vel: %g density: %g h: %g",
		p.ID, p.Kind, p.Pos, p.Vel, p.Density, p.H)
}

// IDAllocator hands out monotonically increasing ids. Ids are never reused.
type IDAllocator struct {
	next ID
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

func (a *IDAllocator) Next() ID {
	id := a.next
	a.next++
	return id
}
