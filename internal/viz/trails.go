package viz

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// Trails keeps the last n positions of every body in a ring buffer per
// handle. A length of zero or less disables recording.
type Trails struct {
	n     int
	paths map[gravity.Handle]*ring
}

type ring struct {
	pts  []r3.Vec
	next int
	full bool
}

func NewTrails(n int) *Trails {
	return &Trails{n: n, paths: make(map[gravity.Handle]*ring)}
}

func (t *Trails) Record(instances []gravity.Instance) {
	if t.n <= 0 {
		return
	}
	for _, inst := range instances {
		r, ok := t.paths[inst.Handle]
		if !ok {
			r = &ring{pts: make([]r3.Vec, t.n)}
			t.paths[inst.Handle] = r
		}
		r.pts[r.next] = inst.Position
		r.next = (r.next + 1) % t.n
		if r.next == 0 {
			r.full = true
		}
	}
}

// Points returns the recorded positions of h, oldest first.
func (t *Trails) Points(h gravity.Handle) []r3.Vec {
	r, ok := t.paths[h]
	if !ok {
		return nil
	}
	if !r.full {
		return append([]r3.Vec(nil), r.pts[:r.next]...)
	}
	out := make([]r3.Vec, 0, t.n)
	out = append(out, r.pts[r.next:]...)
	return append(out, r.pts[:r.next]...)
}

func (t *Trails) Clear() {
	t.paths = make(map[gravity.Handle]*ring)
}
