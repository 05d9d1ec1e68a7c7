package sim

import (
	"context"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravsim/internal/config"
)

// Setup attaches metrics and probes to a freshly built runner. It is called
// once per ensemble member, so every member gets its own instances.
type Setup func(r *Runner)

// Ensemble runs the same template under consecutive scatter seeds, one engine
// per goroutine.
type Ensemble struct {
	cfg       *config.Config
	template  string
	numRuns   int
	seedStart uint64
	setup     Setup
	logger    *log.Logger
}

func NewEnsemble(cfg *config.Config, template string, numRuns int, seedStart uint64, setup Setup, logger *log.Logger) *Ensemble {
	if logger == nil {
		logger = log.Default()
	}
	return &Ensemble{
		cfg:       cfg,
		template:  template,
		numRuns:   numRuns,
		seedStart: seedStart,
		setup:     setup,
		logger:    logger,
	}
}

// Run returns one result per seed, in seed order. The first failing member
// cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + uint64(idx)
			eng, err := NewEngine(e.cfg, e.template, seed)
			if err != nil {
				return err
			}
			r := NewRunner(eng, e.logger.With("seed", seed))
			if e.setup != nil {
				e.setup(r)
			}
			res, err := r.Run(ctx, cfg)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
