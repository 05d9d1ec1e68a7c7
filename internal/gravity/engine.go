package gravity

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Engine owns the simulation state: two buffers of bodies and a flag naming
// the authoritative one. A tick reads only the current buffer, writes every
// body into the other one and then flips the flag.
type Engine struct {
	buf    [2][]Body
	cur    int
	g      float64
	masses MassTable
	// scaleDiv is the k in log10(mass)/k for render scales.
	scaleDiv   float64
	ticks      uint64
	degenerate int
}

type Option func(*Engine)

// WithG overrides DefaultG.
func WithG(g float64) Option {
	return func(e *Engine) { e.g = g }
}

// WithMasses overrides DefaultMasses.
func WithMasses(t MassTable) Option {
	return func(e *Engine) { e.masses = t }
}

// WithScaleDivisor sets k in the render scale log10(mass)/k.
func WithScaleDivisor(k float64) Option {
	return func(e *Engine) { e.scaleDiv = k }
}

// New creates an engine seeded with a copy of seed. The seed must hold at
// least one valid body.
func New(seed []Body, opts ...Option) (*Engine, error) {
	e := &Engine{
		g:        DefaultG,
		masses:   DefaultMasses,
		scaleDiv: 5,
	}
	for _, opt := range opts {
		opt(e)
	}

	if !(e.g > 0) || !finite(e.g) {
		return nil, fmt.Errorf("gravity: G must be positive, got %v", e.g)
	}
	if !(e.scaleDiv > 0) {
		return nil, fmt.Errorf("gravity: scale divisor must be positive, got %v", e.scaleDiv)
	}
	for c, m := range e.masses {
		if !(m > 0) || !finite(m) {
			return nil, fmt.Errorf("%w: %s mass %v", ErrInvalidBody, MassClass(c), m)
		}
	}
	if len(seed) == 0 {
		return nil, ErrEmpty
	}
	for i, b := range seed {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("seed body %d: %w", i, err)
		}
	}

	e.buf[0] = append(make([]Body, 0, len(seed)), seed...)
	e.buf[1] = append(make([]Body, 0, len(seed)), seed...)
	return e, nil
}

// Tick advances the system by one unit of time.
func (e *Engine) Tick() {
	cur := e.buf[e.cur]
	next := e.buf[1-e.cur]
	e.degenerate = 0

	for i, b := range cur {
		dv, skipped := e.deltaV(cur, Handle(i))
		e.degenerate += skipped

		v := r3.Add(b.Velocity, dv)
		next[i] = Body{
			Position: r3.Add(b.Position, v),
			Velocity: v,
			Mass:     b.Mass,
		}
	}

	e.cur = 1 - e.cur
	e.ticks++
}

// deltaV sums the acceleration exerted on body h by every other body in
// bodies. Pairs too close for a finite pull contribute nothing; skipped counts
// those with a higher handle so each pair is reported once per tick.
func (e *Engine) deltaV(bodies []Body, h Handle) (dv r3.Vec, skipped int) {
	b := bodies[h]
	for j, other := range bodies {
		if Handle(j) == h {
			continue
		}
		f, err := GravitationalForce(b, other, e.g)
		var pull r3.Vec
		if err == nil {
			pull = r3.Scale(f/b.Mass, r3.Unit(r3.Sub(other.Position, b.Position)))
		}
		if err != nil || !finiteVec(pull) || !finiteVec(r3.Add(dv, pull)) {
			if Handle(j) > h {
				skipped++
			}
			continue
		}
		dv = r3.Add(dv, pull)
	}
	return dv, skipped
}

func (e *Engine) current() []Body { return e.buf[e.cur] }

// Barycenter returns the mass-weighted mean position of all bodies.
func (e *Engine) Barycenter() (r3.Vec, error) {
	c, _, err := barycenter(e.current())
	return c, err
}

func barycenter(bodies []Body) (r3.Vec, float64, error) {
	if len(bodies) == 0 {
		return r3.Vec{}, 0, ErrEmpty
	}
	var sum r3.Vec
	total := 0.0
	for _, b := range bodies {
		sum = r3.Add(sum, r3.Scale(b.Mass, b.Position))
		total += b.Mass
	}
	return r3.Scale(1/total, sum), total, nil
}

// Snapshot returns a copy of the current buffer, indexed by handle.
func (e *Engine) Snapshot() []Body {
	return e.AppendSnapshot(nil)
}

// AppendSnapshot appends the current buffer to dst and returns the extended
// slice.
func (e *Engine) AppendSnapshot(dst []Body) []Body {
	return append(dst, e.current()...)
}

// Body returns the current state of the body with handle h.
func (e *Engine) Body(h Handle) (Body, error) {
	cur := e.current()
	if h < 0 || int(h) >= len(cur) {
		return Body{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return cur[h], nil
}

func (e *Engine) Len() int { return len(e.current()) }

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 { return e.ticks }

func (e *Engine) G() float64 { return e.g }

// DegeneratePairs returns how many body pairs were too close for a finite
// pull during the last tick and were left out of each other's force sums.
func (e *Engine) DegeneratePairs() int { return e.degenerate }
