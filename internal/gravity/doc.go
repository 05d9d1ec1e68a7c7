// Package gravity implements the gravitational N-body engine.
//
// The engine advances a small system of point masses one tick at a time:
//
//   - [Body]: position, velocity and mass of a point mass
//   - [GravitationalForce], [OrbitalVelocity]: the force model
//   - [Engine]: double-buffered state, the integrator and the insertion heuristic
//   - [Instance]: read-only render projection of a body
//
// # Example
//
//	eng, _ := gravity.New(gravity.Binary())
//	eng.AddBodyAtPosition(r3.Vec{X: 40}, gravity.Small)
//	for i := 0; i < 1000; i++ {
//	    eng.Tick()
//	}
//	center, _ := eng.Barycenter()
//
// # Time Step
//
// One tick is one unit of simulated time. Velocities are updated first and
// positions are advanced with the new velocity (semi-implicit Euler). The
// gravitational constant [DefaultG] is scaled so that masses between 1e3 and
// 1e8 at distances of 1 to 100 units produce slow, visually stable orbits.
//
// # Thread Safety
//
// An Engine is NOT safe for concurrent use. Confine each engine to a single
// goroutine; independent engines may run in parallel.
package gravity
