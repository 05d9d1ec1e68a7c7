package sim

import (
	"sync"

	"github.com/san-kum/gravsim/internal/gravity"
)

// SnapshotPool recycles body slices handed to metrics each tick.
type SnapshotPool struct {
	pool sync.Pool
}

func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]gravity.Body, 0, 16)
				return &s
			},
		},
	}
}

// Take copies the engine's current state into a pooled slice.
func (p *SnapshotPool) Take(eng *gravity.Engine) *[]gravity.Body {
	s := p.pool.Get().(*[]gravity.Body)
	*s = eng.AppendSnapshot((*s)[:0])
	return s
}

func (p *SnapshotPool) Put(s *[]gravity.Body) {
	if s == nil {
		return
	}
	*s = (*s)[:0]
	p.pool.Put(s)
}
