package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
)

// Metric accumulates a single figure over a run.
type Metric interface {
	Name() string
	Observe(bodies []gravity.Body, tick uint64)
	Value() float64
	Reset()
}

// Probe produces one sample of a series from the current state.
type Probe interface {
	Name() string
	Measure(bodies []gravity.Body) float64
}

// Observer is notified after every tick. It must not retain the engine.
type Observer interface {
	OnTick(eng *gravity.Engine)
}

type ObserverFunc func(eng *gravity.Engine)

func (f ObserverFunc) OnTick(eng *gravity.Engine) { f(eng) }

type Config struct {
	Ticks         int
	SampleEvery   int
	ValidateState bool
}

func (c Config) validate() error {
	if c.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", c.Ticks)
	}
	if c.SampleEvery < 1 {
		return fmt.Errorf("sample interval must be at least 1, got %d", c.SampleEvery)
	}
	return nil
}

type Result struct {
	// Ticks holds the engine tick count of every sample.
	Ticks   []uint64
	Series  map[string][]float64
	Metrics map[string]float64
	Final   []gravity.Body

	TicksTaken      int
	DegenerateTicks int
	TickStats       metrics.TickStats
	Errors          []error
}

type SimError struct {
	Tick    uint64
	Body    gravity.Handle
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("tick %d, body %s: %s", e.Tick, e.Body, e.Message)
}

// checkFinite reports the first body with a non-finite field.
func checkFinite(bodies []gravity.Body) (gravity.Handle, bool) {
	for i, b := range bodies {
		for _, f := range [...]float64{
			b.Position.X, b.Position.Y, b.Position.Z,
			b.Velocity.X, b.Velocity.Y, b.Velocity.Z,
		} {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return gravity.Handle(i), false
			}
		}
	}
	return gravity.NoHandle, true
}
