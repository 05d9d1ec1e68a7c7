package analysis

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

type Point struct{ X, Y float64 }

// Orbit is the path of one body in the xy plane, relative to the barycenter,
// one point per tick starting at tick Start.
type Orbit struct {
	Body   gravity.Handle
	Start  uint64
	Points []Point
}

// TraceOrbit advances eng by ticks, recording body h before the first tick
// and after each one.
func TraceOrbit(eng *gravity.Engine, h gravity.Handle, ticks int) (*Orbit, error) {
	if _, err := eng.Body(h); err != nil {
		return nil, err
	}
	o := &Orbit{Body: h, Start: eng.Ticks(), Points: make([]Point, 0, ticks+1)}

	record := func() error {
		b, err := eng.Body(h)
		if err != nil {
			return err
		}
		c, err := eng.Barycenter()
		if err != nil {
			return err
		}
		rel := r3.Sub(b.Position, c)
		o.Points = append(o.Points, Point{X: rel.X, Y: rel.Y})
		return nil
	}

	if err := record(); err != nil {
		return nil, err
	}
	for i := 0; i < ticks; i++ {
		eng.Tick()
		if err := record(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// TraceOrbits advances eng by ticks, recording every body present at the
// start. Bodies must not be inserted while tracing.
func TraceOrbits(eng *gravity.Engine, ticks int) ([]*Orbit, error) {
	n := eng.Len()
	orbits := make([]*Orbit, n)
	for i := range orbits {
		orbits[i] = &Orbit{Body: gravity.Handle(i), Start: eng.Ticks(), Points: make([]Point, 0, ticks+1)}
	}

	record := func() error {
		c, err := eng.Barycenter()
		if err != nil {
			return err
		}
		for i, b := range eng.AppendSnapshot(nil)[:n] {
			rel := r3.Sub(b.Position, c)
			orbits[i].Points = append(orbits[i].Points, Point{X: rel.X, Y: rel.Y})
		}
		return nil
	}

	if err := record(); err != nil {
		return nil, err
	}
	for i := 0; i < ticks; i++ {
		eng.Tick()
		if err := record(); err != nil {
			return nil, err
		}
	}
	return orbits, nil
}

// Crossings returns the interpolated ticks at which the orbit passes the
// positive x axis going counterclockwise.
func (o *Orbit) Crossings() []float64 {
	var out []float64
	for i := 1; i < len(o.Points); i++ {
		prev, cur := o.Points[i-1], o.Points[i]
		if prev.Y < 0 && cur.Y >= 0 && cur.X > 0 {
			frac := -prev.Y / (cur.Y - prev.Y)
			out = append(out, float64(o.Start)+float64(i-1)+frac)
		}
	}
	return out
}

// CrossingPeriod is the mean interval between consecutive Crossings.
func (o *Orbit) CrossingPeriod() (float64, error) {
	c := o.Crossings()
	if len(c) < 2 {
		return 0, errors.New("analysis: fewer than two axis crossings")
	}
	return (c[len(c)-1] - c[0]) / float64(len(c)-1), nil
}

// OrbitToASCII plots the orbit into a width×height grid of runes, with the
// barycenter marked when it falls inside the bounds.
func OrbitToASCII(o *Orbit, width, height int) string {
	if o == nil || len(o.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	b := bounds(o.Points)
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	plot := func(x, y float64, r rune) {
		col := int((x - b.minX) / (b.maxX - b.minX) * float64(width-1))
		row := height - 1 - int((y-b.minY)/(b.maxY-b.minY)*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = r
		}
	}
	for _, p := range o.Points {
		plot(p.X, p.Y, '•')
	}
	plot(0, 0, '+')

	var sb strings.Builder
	fmt.Fprintf(&sb, "body %s, %d ticks\n", o.Body, len(o.Points)-1)
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

type box struct{ minX, maxX, minY, maxY float64 }

// bounds is the padded square box around pts and the origin.
func bounds(pts []Point) box {
	b := box{}
	for _, p := range pts {
		b.minX = min(b.minX, p.X)
		b.maxX = max(b.maxX, p.X)
		b.minY = min(b.minY, p.Y)
		b.maxY = max(b.maxY, p.Y)
	}
	span := max(b.maxX-b.minX, b.maxY-b.minY, 1)
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	half := span * 0.55
	return box{cx - half, cx + half, cy - half, cy + half}
}
