package analysis

import "math"

// IsothermalShock is the exact solution for two uniform isothermal streams of
// density Rho0 colliding at x=0 with speeds +V0 (from the left) and -V0 (from
// the right). Two shocks move outward at ShockSpeed, leaving gas at rest with
// density PostDensity between them.
type IsothermalShock struct {
	Rho0, V0, Cs float64
}

// ShockSpeed solves s(V0+s) = Cs^2, the isothermal jump condition in the lab
// frame with the post-shock gas at rest.
func (s IsothermalShock) ShockSpeed() float64 {
	return 0.5 * (-s.V0 + math.Sqrt(s.V0*s.V0+4*s.Cs*s.Cs))
}

func (s IsothermalShock) PostDensity() float64 {
	vs := s.ShockSpeed()
	return s.Rho0 * (s.V0 + vs) / vs
}

func (s IsothermalShock) Density(x, t float64) float64 {
	if math.Abs(x) < s.ShockSpeed()*t {
		return s.PostDensity()
	}
	return s.Rho0
}

func (s IsothermalShock) Velocity(x, t float64) float64 {
	switch {
	case math.Abs(x) < s.ShockSpeed()*t:
		return 0
	case x < 0:
		return s.V0
	}
	return -s.V0
}

// ValidHalfWidth is the half-width of the region around the origin that the
// rarefactions launched from reflecting walls at +/-limit have not reached by
// time t.
func (s IsothermalShock) ValidHalfWidth(limit, t float64) float64 {
	w := limit - (s.V0+s.Cs)*t
	if w < 0 {
		return 0
	}
	return w
}
