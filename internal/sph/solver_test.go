package sph

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/sph1d/internal/particle"
)

func TestNeighbourDensityThreeParticles(t *testing.T) {
	g := NewWithT(t)
	st, prm := threeParticles(t)
	all := st.All()

	left := NeighbourDensity(prm.Kernel, all, 0, 1)
	centre := NeighbourDensity(prm.Kernel, all, 1, 1)
	right := NeighbourDensity(prm.Kernel, all, 2, 1)

	g.Expect(left).To(BeNumerically("~", 31.0/48.0, 1e-12))
	g.Expect(centre).To(BeNumerically("~", 23.0/24.0, 1e-12))
	g.Expect(right).To(Equal(left))
}

func TestFixedSmoothingIncludesSelf(t *testing.T) {
	g := NewWithT(t)
	st, prm := threeParticles(t)
	solver := NewSolver(prm, quietLogger())
	all := st.All()

	res, err := solver.Solve(all, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Method).To(Equal(Fixed))
	g.Expect(res.H).To(Equal(1.0))
	g.Expect(res.Density).To(BeNumerically("~", 23.0/24.0+2.0/3.0, 1e-12))
	g.Expect(Omega(prm, all, 1)).To(Equal(1.0))
}

func TestSolverSelfConsistency(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(40, 20)
	st := lattice(t, prm)
	g.Expect(NewGhostBoundary(prm, quietLogger()).Rebuild(st)).To(Succeed())

	solver := NewSolver(prm, quietLogger())
	all := st.All()
	for i := 0; i < st.NAlive(); i++ {
		res, err := solver.Solve(all, i)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(res.Converged).To(BeTrue(), "particle %d", i)
		g.Expect(res.H).To(BeNumerically(">", 0))

		sum := SumDensity(prm.Kernel, all, all[i].Pos, res.H)
		def := prm.HFactor * all[i].Mass / res.H
		g.Expect(res.Density).To(BeNumerically("~", sum, 1e-12))
		g.Expect(math.Abs(res.Density-def) / res.Density).To(BeNumerically("<", HEpsilon))
	}
}

func TestSolverWarmStart(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(40, 20)
	st := lattice(t, prm)
	solver := NewSolver(prm, quietLogger())
	all := st.All()

	all[0].H = 0
	cold, err := solver.Solve(all, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cold.Converged).To(BeTrue())

	all[0].H = cold.H
	warm, err := solver.Solve(all, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(warm.Converged).To(BeTrue())
	g.Expect(warm.H).To(BeNumerically("~", cold.H, HEpsilon))
	g.Expect(warm.Iterations).To(BeNumerically("<", cold.Iterations))
}

func TestBisectionAgreesWithNewton(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(40, 20)
	st := lattice(t, prm)
	all := st.All()

	var best estimate
	solver := NewSolver(prm, quietLogger())
	res, ok := solver.bisect(all, 5, &best)
	g.Expect(ok).To(BeTrue())
	g.Expect(res.Method).To(Equal(Bisection))

	newton, err := solver.Solve(all, 5)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.H).To(BeNumerically("~", newton.H, 2*HEpsilon))
}

func TestSolverNeverReturnsNonPositiveH(t *testing.T) {
	g := NewWithT(t)
	prm := cubicParams(3, 1)
	prm.HFactor = 0.1
	st := lattice(t, prm)
	solver := NewSolver(prm, quietLogger())
	all := st.All()
	for i := range all {
		res, err := solver.Solve(all, i)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(res.H).To(BeNumerically(">", 0))
	}
}

// clumps places two tight groups of n particles at -centre and +centre.
func clumps(t *testing.T, n int, centre, spacing float64) (*particle.Store, Params) {
	t.Helper()
	prm := cubicParams(2*n, centre+1)
	st := particle.NewStore(particle.NewIDAllocator(), 2*n, 0)
	for _, c := range []float64{-centre, centre} {
		for k := 0; k < n; k++ {
			if _, err := st.AddAlive(c+float64(k)*spacing, 0, 1); err != nil {
				t.Fatal(err)
			}
		}
	}
	return st, prm
}

func isolated(t *testing.T) (*particle.Store, Params) {
	t.Helper()
	prm := cubicParams(1, 1)
	st := particle.NewStore(particle.NewIDAllocator(), 1, 0)
	if _, err := st.AddAlive(0, 0, 1); err != nil {
		t.Fatal(err)
	}
	return st, prm
}

func TestSolverFallback(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T) (*particle.Store, Params)
		method    Method
		converged bool
	}{
		{
			name:      "distant clumps fall back to bisection",
			setup:     func(t *testing.T) (*particle.Store, Params) { return clumps(t, 5, 9, 0.01) },
			method:    Bisection,
			converged: true,
		},
		{
			name:      "isolated particle uses best estimate",
			setup:     isolated,
			method:    BestEstimate,
			converged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			st, prm := tt.setup(t)
			all := st.All()
			all[0].H = 0

			res, err := NewSolver(prm, quietLogger()).Solve(all, 0)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(res.Method).To(Equal(tt.method))
			g.Expect(res.Converged).To(Equal(tt.converged))
			g.Expect(res.Iterations).To(BeNumerically(">", MaxNewtonIter-1))
			g.Expect(res.H).To(BeNumerically(">", 0))
			g.Expect(res.Density).To(BeNumerically(">", 0))
		})
	}
}

func TestDensityStageCountsFallbacks(t *testing.T) {
	g := NewWithT(t)

	st, prm := clumps(t, 5, 9, 0.01)
	stats, err := NewDensityStage(prm, quietLogger()).Run(st)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stats.Bisection).To(Equal(st.NAlive()))
	g.Expect(stats.Newton).To(BeZero())
	g.Expect(stats.BestEstimate).To(BeZero())

	st, prm = isolated(t)
	stats, err = NewDensityStage(prm, quietLogger()).Run(st)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stats.BestEstimate).To(Equal(1))
	g.Expect(st.All()[0].H).To(BeNumerically(">=", prm.SeedH()))
}

func TestDensityStageRejectsNonFiniteState(t *testing.T) {
	tests := []struct {
		name  string
		field string
		set   func(p *particle.Particle)
	}{
		{"nan position", "pos", func(p *particle.Particle) { p.Pos = math.NaN() }},
		{"infinite position", "pos", func(p *particle.Particle) { p.Pos = math.Inf(1) }},
		{"nan smoothing length", "h", func(p *particle.Particle) { p.H = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			prm := cubicParams(20, 1)
			st := lattice(t, prm)
			tt.set(&st.All()[7])

			_, err := NewDensityStage(prm, quietLogger()).Run(st)
			g.Expect(err).To(MatchError(ErrNumericalDefect))

			var defect *DefectError
			g.Expect(errors.As(err, &defect)).To(BeTrue())
			g.Expect(defect.Stage).To(Equal("density"))
			g.Expect(defect.Field).To(Equal(tt.field))
			g.Expect(defect.ID).To(Equal(st.All()[7].ID))
		})
	}
}
