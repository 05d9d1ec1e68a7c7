package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// SweepPoint is the closest and farthest approach of an inserted body to its
// attractor for one eccentricity.
type SweepPoint struct {
	Eccentricity float64
	Anchor       gravity.Handle
	Periapsis    float64
	Apoapsis     float64
}

// SweepEccentricity inserts a body of class at pos into a fresh engine from
// build for each of steps eccentricities in [lo, hi], runs it for ticks and
// records the range of distances to the body that attracted it most
// strongly at insertion.
func SweepEccentricity(
	build func() (*gravity.Engine, error),
	pos r3.Vec,
	class gravity.MassClass,
	lo, hi float64,
	steps, ticks int,
) ([]SweepPoint, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	if !(lo > 0) || hi < lo {
		return nil, fmt.Errorf("invalid eccentricity range [%g, %g]", lo, hi)
	}
	step := 0.0
	if steps > 1 {
		step = (hi - lo) / float64(steps-1)
	}

	out := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		ecc := lo + float64(i)*step
		eng, err := build()
		if err != nil {
			return nil, err
		}
		anchor := strongestAttractor(eng, pos)

		h, err := eng.Insert(pos, class, gravity.InsertOptions{Eccentricity: ecc})
		if err != nil {
			return nil, fmt.Errorf("eccentricity %g: %w", ecc, err)
		}

		pt := SweepPoint{Eccentricity: ecc, Anchor: anchor, Periapsis: math.Inf(1)}
		for t := 0; t <= ticks; t++ {
			if t > 0 {
				eng.Tick()
			}
			b, _ := eng.Body(h)
			a, _ := eng.Body(anchor)
			d := r3.Norm(r3.Sub(b.Position, a.Position))
			pt.Periapsis = math.Min(pt.Periapsis, d)
			pt.Apoapsis = math.Max(pt.Apoapsis, d)
		}
		out = append(out, pt)
	}
	return out, nil
}

func strongestAttractor(eng *gravity.Engine, pos r3.Vec) gravity.Handle {
	probe := gravity.Body{Position: pos, Mass: 1}
	best, bestF := gravity.Handle(0), -1.0
	for i, b := range eng.Snapshot() {
		f, err := gravity.GravitationalForce(probe, b, eng.G())
		if err == nil && f > bestF {
			best, bestF = gravity.Handle(i), f
		}
	}
	return best
}

// SweepToASCII draws periapsis ('.') and apoapsis ('o') against eccentricity.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	lo, hi := data[0].Periapsis, data[0].Apoapsis
	for _, p := range data {
		lo = math.Min(lo, p.Periapsis)
		hi = math.Max(hi, p.Apoapsis)
	}
	if hi == lo {
		hi = lo + 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, m := range []struct {
			v float64
			r rune
		}{{p.Periapsis, '.'}, {p.Apoapsis, 'o'}} {
			row := height - 1 - int((m.v-lo)/(hi-lo)*float64(height-1))
			if row >= 0 && row < height {
				grid[row][col] = m.r
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "distance %.1f..%.1f, eccentricity %.2f..%.2f\n",
		lo, hi, data[0].Eccentricity, data[len(data)-1].Eccentricity)
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
