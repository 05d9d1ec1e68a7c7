package gravity

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// Anchoring selects how an inserted body picks the body it orbits.
type Anchoring int

const (
	// AnchorHeuristic orbits one of the two strongest attractors when the new
	// body is close to it and falls back to the barycenter otherwise.
	AnchorHeuristic Anchoring = iota
	// AnchorGreatestForce always orbits the strongest attractor.
	AnchorGreatestForce
	// AnchorGreatestMass always orbits the heaviest body.
	AnchorGreatestMass
	// AnchorBarycenter always orbits the whole system's barycenter.
	AnchorBarycenter
)

var anchoringNames = [...]string{"heuristic", "force", "mass", "barycenter"}

func (a Anchoring) String() string {
	if a < AnchorHeuristic || a > AnchorBarycenter {
		return fmt.Sprintf("Anchoring(%d)", int(a))
	}
	return anchoringNames[a]
}

func ParseAnchoring(s string) (Anchoring, error) {
	for i, name := range anchoringNames {
		if s == name {
			return Anchoring(i), nil
		}
	}
	return 0, fmt.Errorf("gravity: unknown anchoring %q", s)
}

// InsertOptions tunes Insert. The zero value is the default heuristic with a
// circular orbit.
type InsertOptions struct {
	Anchoring Anchoring
	// Eccentricity scales the orbital component of the initial velocity.
	// Zero means 1.
	Eccentricity float64
}

// anchorSearchDivisor sets the capture radius to a fifth of the separation
// between the two strongest attractors.
const anchorSearchDivisor = 5

// maxRandomDraws bounds AddRandomBody's retries on coincident positions.
const maxRandomDraws = 8

// AddBodyAtPosition inserts a body of the given class at pos, moving on an
// approximately circular orbit around an anchor chosen by AnchorHeuristic.
func (e *Engine) AddBodyAtPosition(pos r3.Vec, class MassClass) (Handle, error) {
	return e.Insert(pos, class, InsertOptions{})
}

// Insert is AddBodyAtPosition with explicit options. On error nothing is
// inserted.
func (e *Engine) Insert(pos r3.Vec, class MassClass, opts InsertOptions) (Handle, error) {
	mass, err := e.masses.Mass(class)
	if err != nil {
		return NoHandle, err
	}
	ecc := opts.Eccentricity
	if ecc == 0 {
		ecc = 1
	}
	if ecc < 0 {
		return NoHandle, fmt.Errorf("gravity: eccentricity must be positive, got %v", opts.Eccentricity)
	}

	cand := Body{Position: pos, Mass: mass}
	if err := cand.Validate(); err != nil {
		return NoHandle, err
	}

	bodies := e.current()
	if len(bodies) == 0 {
		return NoHandle, ErrEmpty
	}
	for i, b := range bodies {
		if _, err := GravitationalForce(cand, b, e.g); err != nil {
			return NoHandle, &GeometryError{Op: "insert", A: NoHandle, B: Handle(i)}
		}
	}

	anchor, ok := e.chooseAnchor(cand, bodies, opts.Anchoring)
	if ok {
		a := bodies[anchor]
		v, err := OrbitalVelocity(cand, a, e.g)
		if err != nil {
			return NoHandle, &GeometryError{Op: "insert", A: NoHandle, B: anchor}
		}
		cand.Velocity = r3.Add(r3.Scale(ecc, v), a.Velocity)
	} else {
		center, total, _ := barycenter(bodies)
		v, err := OrbitalVelocity(cand, Body{Position: center, Mass: total}, e.g)
		if err != nil {
			return NoHandle, &GeometryError{Op: "insert", A: NoHandle, B: NoHandle}
		}
		cand.Velocity = r3.Scale(ecc, v)
	}
	if err := cand.Validate(); err != nil {
		return NoHandle, err
	}

	h := Handle(len(bodies))
	e.buf[0] = append(e.buf[0], cand)
	e.buf[1] = append(e.buf[1], cand)
	return h, nil
}

// AddRandomBody inserts a body at a position drawn from rng: x and y in
// [-spread, spread], z in a thin slab around the orbital plane.
func (e *Engine) AddRandomBody(rng *rand.Rand, class MassClass, spread float64) (Handle, error) {
	var err error
	for i := 0; i < maxRandomDraws; i++ {
		pos := r3.Vec{
			X: (2*rng.Float64() - 1) * spread,
			Y: (2*rng.Float64() - 1) * spread,
			Z: (2*rng.Float64() - 1) * spread / 14,
		}
		var h Handle
		h, err = e.AddBodyAtPosition(pos, class)
		if !errors.Is(err, ErrCoincident) {
			return h, err
		}
	}
	return NoHandle, err
}

// rankAttractors returns the handles of bodies ordered by the force they
// exert on cand, strongest first. Equal forces keep handle order.
func (e *Engine) rankAttractors(cand Body, bodies []Body) []Handle {
	forces := make([]float64, len(bodies))
	ranked := make([]Handle, len(bodies))
	for i, b := range bodies {
		forces[i], _ = GravitationalForce(cand, b, e.g)
		ranked[i] = Handle(i)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return forces[ranked[i]] > forces[ranked[j]]
	})
	return ranked
}

// chooseAnchor returns the body cand should orbit, or false when it should
// orbit the barycenter instead.
func (e *Engine) chooseAnchor(cand Body, bodies []Body, mode Anchoring) (Handle, bool) {
	switch mode {
	case AnchorBarycenter:
		return NoHandle, false
	case AnchorGreatestMass:
		heaviest := Handle(0)
		for i, b := range bodies {
			if b.Mass > bodies[heaviest].Mass {
				heaviest = Handle(i)
			}
		}
		return heaviest, true
	}

	ranked := e.rankAttractors(cand, bodies)
	if mode == AnchorGreatestForce || len(ranked) == 1 {
		return ranked[0], true
	}

	first, second := bodies[ranked[0]], bodies[ranked[1]]
	radius := r3.Norm(r3.Sub(first.Position, second.Position)) / anchorSearchDivisor
	switch {
	case r3.Norm(r3.Sub(cand.Position, first.Position)) <= radius:
		return ranked[0], true
	case r3.Norm(r3.Sub(cand.Position, second.Position)) <= radius:
		return ranked[1], true
	}
	return NoHandle, false
}
