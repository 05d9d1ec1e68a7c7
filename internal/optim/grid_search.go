// Package optim searches insertion options for the one that keeps a new
// body's orbit closest to circular.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

// Outcome is the score of one grid point. Err is set when the insertion was
// rejected or the run failed; such outcomes never win.
type Outcome struct {
	Options gravity.InsertOptions
	Score   float64
	Err     error
}

type GridSearch struct {
	anchorings     []gravity.Anchoring
	eccentricities []float64
	logger         *log.Logger
}

func NewGridSearch(anchorings []gravity.Anchoring, eccentricities []float64, logger *log.Logger) *GridSearch {
	if logger == nil {
		logger = log.Default()
	}
	return &GridSearch{anchorings: anchorings, eccentricities: eccentricities, logger: logger}
}

// Search inserts a body of class at pos into a fresh engine from build for
// every combination of anchoring and eccentricity, runs it for ticks and
// scores it with metrics.Circularity. Lower is better. All outcomes are
// returned in grid order together with the best one.
func (g *GridSearch) Search(
	ctx context.Context,
	build func() (*gravity.Engine, error),
	pos r3.Vec,
	class gravity.MassClass,
	ticks int,
) (Outcome, []Outcome, error) {
	if len(g.anchorings) == 0 || len(g.eccentricities) == 0 {
		return Outcome{}, nil, fmt.Errorf("empty search grid")
	}

	best := Outcome{Score: math.Inf(1)}
	all := make([]Outcome, 0, len(g.anchorings)*len(g.eccentricities))
	for _, a := range g.anchorings {
		for _, e := range g.eccentricities {
			opts := gravity.InsertOptions{Anchoring: a, Eccentricity: e}
			out := Outcome{Options: opts, Score: math.NaN()}
			out.Score, out.Err = g.evaluate(ctx, build, pos, class, opts, ticks)
			if ctx.Err() != nil {
				return best, all, ctx.Err()
			}
			if out.Err != nil {
				g.logger.Debug("grid point rejected", "anchoring", a, "eccentricity", e, "err", out.Err)
			} else if out.Score < best.Score {
				best = out
			}
			all = append(all, out)
		}
	}

	if math.IsInf(best.Score, 1) {
		return best, all, fmt.Errorf("no grid point produced a valid orbit")
	}
	return best, all, nil
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	build func() (*gravity.Engine, error),
	pos r3.Vec,
	class gravity.MassClass,
	opts gravity.InsertOptions,
	ticks int,
) (float64, error) {
	eng, err := build()
	if err != nil {
		return math.NaN(), err
	}
	h, err := eng.Insert(pos, class, opts)
	if err != nil {
		return math.NaN(), err
	}

	circ := metrics.NewCircularity(h)
	r := sim.NewRunner(eng, g.logger)
	r.AddMetric(circ)
	res, err := r.Run(ctx, sim.Config{Ticks: ticks, SampleEvery: ticks})
	if err != nil {
		return math.NaN(), err
	}
	v := res.Metrics[circ.Name()]
	if math.IsNaN(v) {
		return v, fmt.Errorf("body %s left no trace", h)
	}
	return v, nil
}
