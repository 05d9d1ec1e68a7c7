package gravity

import "gonum.org/v1/gonum/spatial/r3"

// MutualOrbit returns a and b with velocities that put them on circular
// orbits about their common barycenter. Existing velocities are replaced.
func MutualOrbit(a, b Body, g float64) (Body, Body, error) {
	va, err := OrbitalVelocity(a, b, g)
	if err != nil {
		return a, b, &GeometryError{Op: "mutual orbit", A: 0, B: 1}
	}
	vb, _ := OrbitalVelocity(b, a, g)
	a.Velocity, b.Velocity = va, vb
	return a, b, nil
}

// Binary is the default seed: two bodies orbiting each other under DefaultG
// with their barycenter fixed at the origin. The heavier one starts at
// (10, 0, 0), the lighter one twice as far out on the opposite side.
func Binary() []Body {
	a := Body{Position: r3.Vec{X: 10}, Mass: 1e7}
	b := Body{Position: r3.Scale(-2, a.Position), Mass: 5e6}
	a, b, _ = MutualOrbit(a, b, DefaultG)
	return []Body{a, b}
}
