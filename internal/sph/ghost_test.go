package sph

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/san-kum/sph1d/internal/particle"
)

func TestGhostSymmetry(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(20, 1)
	st := lattice(t, prm)

	g.Expect(NewGhostBoundary(prm, quietLogger()).Rebuild(st)).To(Succeed())
	g.Expect(st.NGhost()).To(Equal(4))
	g.Expect(st.NTotal()).To(Equal(st.NAlive() + st.NGhost()))

	for _, gh := range st.Ghosts() {
		src := st.Find(gh.Source)
		g.Expect(src).NotTo(BeNil())
		g.Expect(src.Kind).To(Equal(particle.Alive))

		wall := prm.Limit
		if src.Pos < 0 {
			wall = -prm.Limit
		}
		g.Expect(gh.Pos).To(Equal(2*wall - src.Pos))
		g.Expect(math.Abs(gh.Pos)).To(BeNumerically(">", prm.Limit))
		g.Expect(gh.Vel).To(Equal(-src.Vel))
		g.Expect(gh.Mass).To(Equal(src.Mass))
		g.Expect(gh.U).To(Equal(src.U))
		g.Expect(gh.Kind).To(Equal(particle.Ghost))
	}
}

func TestGhostRebuildReplacesPreviousSet(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(20, 1)
	st := lattice(t, prm)
	gb := NewGhostBoundary(prm, quietLogger())

	g.Expect(gb.Rebuild(st)).To(Succeed())
	first := st.NGhost()
	g.Expect(gb.Rebuild(st)).To(Succeed())
	g.Expect(st.NGhost()).To(Equal(first))

	// Pull every particle to the centre: no wall is within reach.
	alive := st.Alive()
	for i := range alive {
		alive[i].Pos *= 0.1
	}
	capBefore := st.Cap()
	g.Expect(gb.Rebuild(st)).To(Succeed())
	g.Expect(st.NGhost()).To(Equal(0))
	g.Expect(st.Cap()).To(Equal(capBefore))
}

func TestGhostAllocationFailure(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(20, 1)
	prm.MaxParticles = 21
	st := lattice(t, prm)

	err := NewGhostBoundary(prm, quietLogger()).Rebuild(st)
	g.Expect(errors.Is(err, ErrAllocation)).To(BeTrue())
	g.Expect(IsFatal(err)).To(BeTrue())
}

func TestGhostRejectsZeroSmoothingLength(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(20, 1)
	st := lattice(t, prm)
	st.Alive()[3].H = 0

	err := NewGhostBoundary(prm, quietLogger()).Rebuild(st)
	var defect *DefectError
	g.Expect(errors.As(err, &defect)).To(BeTrue())
	g.Expect(defect.Stage).To(Equal("ghost"))
	g.Expect(defect.ID).To(Equal(st.Alive()[3].ID))
}
