// Package analysis characterizes recorded runs and live systems.
//
//   - [PowerSpectrum], [DominantPeriod]: spectral estimate of the orbital
//     period of a sampled series
//   - [TraceOrbit], [TraceOrbits], [Orbit.CrossingPeriod]: orbit paths and
//     periods from axis crossings
//   - [LyapunovExponent], [BodySensitivity]: divergence of nearby
//     trajectories
//   - [SweepEccentricity]: periapsis and apoapsis of an inserted body over a
//     range of eccentricities
//
// # Orbital Period
//
// The period of a circular orbit of radius r at speed v is 2πr/v ticks.
// DominantPeriod recovers it from any series that oscillates once per
// revolution, such as a body's offset from the barycenter:
//
//	period, err := analysis.DominantPeriod(result.Series["offset_x_0"], 1)
package analysis
