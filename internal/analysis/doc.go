// Package analysis compares simulation output against analytic solutions.
//
// The package includes:
//
//   - [IsothermalShock]: exact solution for two colliding isothermal streams
//   - [RMSRelative]: root-mean-square relative error of a sampled profile
//   - [PowerSpectrum] and [DominantFrequency]: spectral analysis of a time
//     series, used to check sound-wave oscillation frequencies
//
// # Shock Tube Validation
//
//	shock := analysis.IsothermalShock{Rho0: 1, V0: 1, Cs: 1}
//	xs, rhos := analysis.Window(profile, shock.ValidHalfWidth(limit, t))
//	rms := analysis.RMSRelative(xs, rhos, func(x float64) float64 {
//	    return shock.Density(x, t)
//	})
package analysis
