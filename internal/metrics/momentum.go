package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// Momentum samples the magnitude of the total linear momentum.
type Momentum struct{}

func NewMomentum() *Momentum { return &Momentum{} }

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Measure(bodies []gravity.Body) float64 {
	var p r3.Vec
	for _, b := range bodies {
		p = r3.Add(p, r3.Scale(b.Mass, b.Velocity))
	}
	return r3.Norm(p)
}

// Separation samples the distance between two bodies. It reports NaN while
// either handle is out of range.
type Separation struct {
	a, b gravity.Handle
}

func NewSeparation(a, b gravity.Handle) *Separation {
	return &Separation{a: a, b: b}
}

func (s *Separation) Name() string { return fmt.Sprintf("separation_%d_%d", s.a, s.b) }

func (s *Separation) Measure(bodies []gravity.Body) float64 {
	if int(s.a) >= len(bodies) || int(s.b) >= len(bodies) || s.a < 0 || s.b < 0 {
		return math.NaN()
	}
	return r3.Norm(r3.Sub(bodies[s.a].Position, bodies[s.b].Position))
}

// Spread samples the mass-weighted RMS distance from the barycenter.
type Spread struct{}

func NewSpread() *Spread { return &Spread{} }

func (s *Spread) Name() string { return "spread" }

func (s *Spread) Measure(bodies []gravity.Body) float64 {
	center, ok := centerOfMass(bodies)
	if !ok {
		return 0
	}
	sum, total := 0.0, 0.0
	for _, b := range bodies {
		sum += b.Mass * r3.Norm2(r3.Sub(b.Position, center))
		total += b.Mass
	}
	return math.Sqrt(sum / total)
}

// Offset samples the x coordinate of a body relative to the barycenter. For
// a bound orbit in the xy plane it oscillates once per revolution. It reports
// NaN while h is out of range.
type Offset struct {
	h gravity.Handle
}

func NewOffset(h gravity.Handle) *Offset { return &Offset{h: h} }

func (o *Offset) Name() string { return fmt.Sprintf("offset_x_%d", o.h) }

func (o *Offset) Measure(bodies []gravity.Body) float64 {
	if o.h < 0 || int(o.h) >= len(bodies) {
		return math.NaN()
	}
	center, ok := centerOfMass(bodies)
	if !ok {
		return math.NaN()
	}
	return bodies[o.h].Position.X - center.X
}
