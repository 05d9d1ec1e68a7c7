package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// Bound is the fraction of observations in which every body stayed within
// radius of the barycenter.
type Bound struct {
	radius     float64
	violations int
	samples    int
}

func NewBound(radius float64) *Bound {
	return &Bound{radius: radius}
}

func (s *Bound) Name() string {
	return "bound"
}

func (s *Bound) Observe(bodies []gravity.Body, tick uint64) {
	center, ok := centerOfMass(bodies)
	if !ok {
		return
	}
	s.samples++
	for _, b := range bodies {
		if r3.Norm(r3.Sub(b.Position, center)) > s.radius {
			s.violations++
			break
		}
	}
}

func (s *Bound) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Bound) Reset() {
	s.violations = 0
	s.samples = 0
}

func centerOfMass(bodies []gravity.Body) (r3.Vec, bool) {
	var sum r3.Vec
	total := 0.0
	for _, b := range bodies {
		sum = r3.Add(sum, r3.Scale(b.Mass, b.Position))
		total += b.Mass
	}
	if total == 0 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/total, sum), true
}

// Circularity tracks the distance from body h to the barycenter of the other
// bodies and reports (max-min)/(max+min): 0 for a circular orbit, towards 1
// for plunging or escaping ones. NaN until h has been observed.
type Circularity struct {
	h          gravity.Handle
	minR, maxR float64
	samples    int
}

func NewCircularity(h gravity.Handle) *Circularity {
	return &Circularity{h: h}
}

func (c *Circularity) Name() string { return fmt.Sprintf("circularity_%d", c.h) }

func (c *Circularity) Observe(bodies []gravity.Body, tick uint64) {
	if c.h < 0 || int(c.h) >= len(bodies) {
		return
	}
	rest := make([]gravity.Body, 0, len(bodies)-1)
	rest = append(rest, bodies[:c.h]...)
	rest = append(rest, bodies[c.h+1:]...)
	center, ok := centerOfMass(rest)
	if !ok {
		return
	}
	r := r3.Norm(r3.Sub(bodies[c.h].Position, center))
	if c.samples == 0 {
		c.minR, c.maxR = r, r
	} else {
		c.minR, c.maxR = math.Min(c.minR, r), math.Max(c.maxR, r)
	}
	c.samples++
}

func (c *Circularity) Value() float64 {
	if c.samples == 0 || c.maxR+c.minR == 0 {
		return math.NaN()
	}
	return (c.maxR - c.minR) / (c.maxR + c.minR)
}

func (c *Circularity) Reset() {
	c.minR, c.maxR, c.samples = 0, 0, 0
}
