package gravity

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultG scales the inverse-square law for the simulation's unit system.
// It is not the physical constant.
const DefaultG = 1e-7

// Up is the axis all seeded orbits revolve around.
var Up = r3.Vec{Z: 1}

// Body is a point mass.
type Body struct {
	Position r3.Vec
	Velocity r3.Vec
	Mass     float64
}

// Validate reports whether b can take part in the simulation.
func (b Body) Validate() error {
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return fmt.Errorf("%w: mass %v", ErrInvalidBody, b.Mass)
	}
	if !finiteVec(b.Position) || !finiteVec(b.Velocity) {
		return fmt.Errorf("%w: non-finite position or velocity", ErrInvalidBody)
	}
	return nil
}

// Handle is the stable identity of a body inside one engine. It is the
// body's insertion index and never changes because bodies are never removed.
type Handle int

// NoHandle marks a party that is not stored in the engine.
const NoHandle Handle = -1

func (h Handle) String() string {
	if h == NoHandle {
		return "<none>"
	}
	return fmt.Sprintf("#%d", int(h))
}

// MassClass selects one of the preset masses for inserted bodies.
type MassClass int

const (
	Small MassClass = iota
	Medium
	Large
)

var massClassNames = [...]string{"small", "medium", "large"}

func (c MassClass) String() string {
	if c < Small || c > Large {
		return fmt.Sprintf("MassClass(%d)", int(c))
	}
	return massClassNames[c]
}

// ParseMassClass accepts the names produced by MassClass.String.
func ParseMassClass(s string) (MassClass, error) {
	for i, name := range massClassNames {
		if strings.EqualFold(s, name) {
			return MassClass(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMassClass, s)
}

// MassTable maps each class to its mass.
type MassTable [3]float64

// DefaultMasses is the preset table used unless WithMasses overrides it.
var DefaultMasses = MassTable{
	Small:  1e4,
	Medium: 1e5,
	Large:  1e6,
}

// Mass returns the mass for c.
func (t MassTable) Mass(c MassClass) (float64, error) {
	if c < Small || c > Large {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMassClass, int(c))
	}
	return t[c], nil
}

// GravitationalForce returns the magnitude of the attraction between a and b.
// Separations too small for a finite force count as coincident.
func GravitationalForce(a, b Body, g float64) (float64, error) {
	r2 := r3.Norm2(r3.Sub(a.Position, b.Position))
	if r2 == 0 {
		return 0, ErrCoincident
	}
	f := g * a.Mass * b.Mass / r2
	if !finite(f) {
		return 0, ErrCoincident
	}
	return f, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVec(v r3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// OrbitalVelocity returns the world-space velocity a needs for an
// approximately circular orbit around b, treating b's motion as unaffected.
// The orbit lies in the plane perpendicular to Up.
func OrbitalVelocity(a, b Body, g float64) (r3.Vec, error) {
	d := r3.Sub(b.Position, a.Position)
	r := r3.Norm(d)
	if r == 0 {
		return r3.Vec{}, ErrCoincident
	}
	total := a.Mass + b.Mass
	speed := math.Sqrt(g*total/r) * (b.Mass / total)
	dir := r3.Cross(r3.Scale(1/r, d), Up)
	return r3.Scale(speed, dir), nil
}
