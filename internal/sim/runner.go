package sim

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
)

// Runner drives one engine headlessly. Like the engine it wraps, a Runner is
// confined to a single goroutine.
type Runner struct {
	eng       *gravity.Engine
	metrics   []Metric
	probes    []Probe
	observers []Observer
	pool      *SnapshotPool
	logger    *log.Logger
}

func NewRunner(eng *gravity.Engine, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		eng:       eng,
		metrics:   make([]Metric, 0),
		probes:    make([]Probe, 0),
		observers: make([]Observer, 0),
		pool:      NewSnapshotPool(),
		logger:    logger,
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddProbe(p Probe)       { r.probes = append(r.probes, p) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Engine() *gravity.Engine { return r.eng }

// Run advances the engine cfg.Ticks times. Probes are sampled before the
// first tick and after every cfg.SampleEvery ticks; metrics observe every
// state including the final one. On cancellation the partial result is
// returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	samples := cfg.Ticks/cfg.SampleEvery + 1
	result := &Result{
		Ticks:   make([]uint64, 0, samples),
		Series:  make(map[string][]float64, len(r.probes)),
		Metrics: make(map[string]float64, len(r.metrics)),
		Errors:  make([]error, 0),
	}
	for _, p := range r.probes {
		result.Series[p.Name()] = make([]float64, 0, samples)
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	durations := make([]time.Duration, 0, cfg.Ticks)
	r.observe(result, true)

	var err error
	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
		}
		if err != nil {
			break
		}

		start := time.Now()
		r.eng.Tick()
		durations = append(durations, time.Since(start))
		result.TicksTaken++

		if n := r.eng.DegeneratePairs(); n > 0 {
			if result.DegenerateTicks == 0 {
				r.logger.Warn("coincident bodies skipped", "tick", r.eng.Ticks(), "pairs", n)
			}
			result.DegenerateTicks++
		}

		for _, o := range r.observers {
			o.OnTick(r.eng)
		}

		if cfg.ValidateState {
			if h, ok := checkFinite(r.eng.Snapshot()); !ok {
				simErr := SimError{Tick: r.eng.Ticks(), Body: h, Message: "non-finite state"}
				r.logger.Error("run stopped", "err", simErr)
				result.Errors = append(result.Errors, simErr)
				break
			}
		}

		r.observe(result, r.eng.Ticks()%uint64(cfg.SampleEvery) == 0)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Final = r.eng.Snapshot()
	result.TickStats = metrics.SummarizeTicks(durations)

	r.logger.Debug("run finished",
		"ticks", result.TicksTaken,
		"bodies", len(result.Final),
		"mean_tick", result.TickStats.Mean,
	)
	return result, err
}

func (r *Runner) observe(result *Result, sample bool) {
	snap := r.pool.Take(r.eng)
	defer r.pool.Put(snap)

	tick := r.eng.Ticks()
	for _, m := range r.metrics {
		m.Observe(*snap, tick)
	}
	if !sample {
		return
	}
	result.Ticks = append(result.Ticks, tick)
	for _, p := range r.probes {
		result.Series[p.Name()] = append(result.Series[p.Name()], p.Measure(*snap))
	}
}
