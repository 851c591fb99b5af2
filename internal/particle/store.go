package particle

import (
	"errors"
	"fmt"
)

// ErrCapacity is returned when growing the store would exceed its limit.
var ErrCapacity = errors.New("particle: store capacity exceeded")

// DefaultMaxParticles bounds the arena when no explicit limit is given.
const DefaultMaxParticles = 1 << 20

// Store is a contiguous arena: live particles occupy [0, nAlive), ghosts
// [nAlive, nAlive+nGhost). Backing capacity grows but never shrinks.
type Store struct {
	ids    *IDAllocator
	parts  []Particle
	nAlive int
	nGhost int
	maxLen int
}

func NewStore(ids *IDAllocator, reserve, maxLen int) *Store {
	if ids == nil {
		ids = NewIDAllocator()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxParticles
	}
	if reserve < 0 {
		reserve = 0
	}
	return &Store{
		ids:    ids,
		parts:  make([]Particle, 0, reserve),
		maxLen: maxLen,
	}
}

func (s *Store) NAlive() int { return s.nAlive }
func (s *Store) NGhost() int { return s.nGhost }
func (s *Store) NTotal() int { return s.nAlive + s.nGhost }
func (s *Store) Cap() int    { return cap(s.parts) }

// All returns every particle, live first. The slice aliases the arena and is
// only valid until the next call that changes the ghost set.
func (s *Store) All() []Particle   { return s.parts[:s.nAlive+s.nGhost] }
func (s *Store) Alive() []Particle { return s.parts[:s.nAlive] }
func (s *Store) Ghosts() []Particle {
	return s.parts[s.nAlive : s.nAlive+s.nGhost]
}

// AddAlive appends a live particle. Live particles can only be added before
// the first ghost set is installed.
func (s *Store) AddAlive(pos, vel, mass float64) (*Particle, error) {
	if s.nGhost > 0 {
		return nil, fmt.Errorf("particle: cannot add live particle after ghosts exist")
	}
	if err := s.reserve(s.nAlive + 1); err != nil {
		return nil, err
	}
	s.parts = append(s.parts[:s.nAlive], Particle{
		ID:   s.ids.Next(),
		Kind: Alive,
		Pos:  pos,
		Vel:  vel,
		Mass: mass,
	})
	s.nAlive++
	return &s.parts[s.nAlive-1], nil
}

// ReplaceGhosts destroys the current ghost set and installs the given one.
// Each ghost receives a fresh id. It reports whether the arena was
// reallocated.
func (s *Store) ReplaceGhosts(ghosts []Particle) (bool, error) {
	n := s.nAlive + len(ghosts)
	grown := n > cap(s.parts)
	if err := s.reserve(n); err != nil {
		return false, err
	}
	s.parts = s.parts[:n]
	for i := range ghosts {
		g := ghosts[i]
		g.ID = s.ids.Next()
		g.Kind = Ghost
		s.parts[s.nAlive+i] = g
	}
	s.nGhost = len(ghosts)
	return grown, nil
}

func (s *Store) reserve(n int) error {
	if n > s.maxLen {
		return fmt.Errorf("%w: need %d particles, limit %d", ErrCapacity, n, s.maxLen)
	}
	if n <= cap(s.parts) {
		return nil
	}
	newCap := 2 * cap(s.parts)
	if newCap < n {
		newCap = n
	}
	if newCap > s.maxLen {
		newCap = s.maxLen
	}
	grown := make([]Particle, len(s.parts), newCap)
	copy(grown, s.parts)
	s.parts = grown
	return nil
}

// Find returns the particle with the given id, or nil.
func (s *Store) Find(id ID) *Particle {
	all := s.All()
	for i := range all {
		if all[i].ID == id {
			return &all[i]
		}
	}
	return nil
}
