package sph

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/sph1d/internal/kernel"
	"github.com/san-kum/sph1d/internal/particle"
)

type Method int

const (
	Newton Method = iota
	Bisection
	BestEstimate
	Fixed
)

func (m Method) String() string {
	switch m {
	case Newton:
		return "newton"
	case Bisection:
		return "bisection"
	case BestEstimate:
		return "best-estimate"
	case Fixed:
		return "fixed"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

type SolveResult struct {
	H          float64
	Density    float64
	Iterations int
	Method     Method
	Converged  bool
}

// Solver finds the smoothing length h for which the summation density
// equals h_factor*m/h.
type Solver struct {
	prm    Params
	k      kernel.Kernel
	logger *log.Logger
}

func NewSolver(prm Params, logger *log.Logger) *Solver {
	if logger == nil {
		logger = log.Default()
	}
	return &Solver{prm: prm, k: prm.Kernel, logger: logger}
}

// SumDensity is the summation density at pos, self term included.
func SumDensity(k kernel.Kernel, all []particle.Particle, pos, h float64) float64 {
	sum := 0.0
	for j := range all {
		q := math.Abs(pos-all[j].Pos) / h
		sum += all[j].Mass * kernel.MustW(k, q)
	}
	return sum / h
}

// NeighbourDensity is the summation density of all[i] excluding its own
// contribution.
func NeighbourDensity(k kernel.Kernel, all []particle.Particle, i int, h float64) float64 {
	sum := 0.0
	for j := range all {
		if j == i {
			continue
		}
		q := math.Abs(all[i].Pos-all[j].Pos) / h
		sum += all[j].Mass * kernel.MustW(k, q)
	}
	return sum / h
}

// DensityDh is d(rho_sum)/dh at pos, i.e. sum_j m_j dW_ij/dh.
func DensityDh(k kernel.Kernel, all []particle.Particle, pos, h float64) float64 {
	sum := 0.0
	for j := range all {
		q := math.Abs(pos-all[j].Pos) / h
		sum += all[j].Mass * (kernel.MustW(k, q) + q*kernel.MustDW(k, q))
	}
	return -sum / (h * h)
}

// residual returns g(h) = rho_sum(h) - rho_def(h) and dg/dh.
func (s *Solver) residual(all []particle.Particle, i int, h float64) (float64, float64) {
	p := &all[i]
	def := s.prm.HFactor * p.Mass / h
	g := SumDensity(s.k, all, p.Pos, h) - def
	dg := DensityDh(s.k, all, p.Pos, h) + def/h
	return g, dg
}

type estimate struct {
	h, absG float64
}

func (e *estimate) offer(h, g float64) {
	if h > 0 && !math.IsNaN(g) && (e.h <= 0 || math.Abs(g) < e.absG) {
		e.h, e.absG = h, math.Abs(g)
	}
}

// Solve finds h and density for all[i]. The only error returned is a
// numerical defect; non-convergence is logged and the best estimate used.
func (s *Solver) Solve(all []particle.Particle, i int) (SolveResult, error) {
	p := &all[i]

	if s.prm.Smoothing == FixedH {
		h := s.prm.FixedH
		return SolveResult{H: h, Density: SumDensity(s.k, all, p.Pos, h), Method: Fixed, Converged: true}, nil
	}

	var best estimate
	res, ok := s.newton(all, i, &best)
	if !ok {
		s.logger.Warn("newton-raphson failed, falling back to bisection",
			"id", p.ID, "iterations", res.Iterations, "h", res.H)
		bs, bok := s.bisect(all, i, &best)
		bs.Iterations += res.Iterations
		res = bs
		if !bok {
			res.H = best.h
			res.Method = BestEstimate
			s.logger.Warn("bisection failed, using best estimate",
				"id", p.ID, "iterations", res.Iterations, "h", res.H)
		}
	}

	if !(res.H > 0) {
		return res, &DefectError{Stage: "smoothing-length", ID: p.ID, Field: "h", Value: res.H}
	}
	res.Density = SumDensity(s.k, all, p.Pos, res.H)
	return res, nil
}

func (s *Solver) newton(all []particle.Particle, i int, best *estimate) (SolveResult, bool) {
	h := all[i].H
	if !(h > 0) || math.IsInf(h, 0) {
		h = s.prm.SeedH()
	}

	res := SolveResult{H: h, Method: Newton}
	for res.Iterations < MaxNewtonIter {
		res.Iterations++
		g, dg := s.residual(all, i, h)
		best.offer(h, g)
		if dg == 0 || math.IsNaN(g) || math.IsNaN(dg) {
			return res, false
		}
		next := h - g/dg
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return res, false
		}
		if next <= 0 {
			next = h / 2
		}
		dh := math.Abs(next - h)
		h = next
		res.H = h
		if dh < HEpsilon {
			res.Converged = true
			return res, true
		}
	}
	return res, false
}

func (s *Solver) bisect(all []particle.Particle, i int, best *estimate) (SolveResult, bool) {
	lo, hi := CalcEpsilon, 2*s.prm.Limit
	gLo, _ := s.residual(all, i, lo)
	gHi, _ := s.residual(all, i, hi)
	best.offer(lo, gLo)
	best.offer(hi, gHi)

	res := SolveResult{Method: Bisection}
	if math.Signbit(gLo) == math.Signbit(gHi) {
		return res, false
	}

	for res.Iterations < MaxBisectIter {
		res.Iterations++
		mid := 0.5 * (lo + hi)
		g, _ := s.residual(all, i, mid)
		best.offer(mid, g)
		res.H = mid
		if g == 0 || 0.5*(hi-lo) < HEpsilon {
			res.Converged = true
			return res, true
		}
		if math.Signbit(g) == math.Signbit(gLo) {
			lo, gLo = mid, g
		} else {
			hi = mid
		}
	}
	return res, false
}
