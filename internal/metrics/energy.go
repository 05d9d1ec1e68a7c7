package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// TotalEnergy returns kinetic plus potential energy. Pairs at zero separation
// are left out of the potential, matching the integrator.
func TotalEnergy(bodies []gravity.Body, g float64) float64 {
	ke := 0.0
	pe := 0.0
	for i, b := range bodies {
		ke += 0.5 * b.Mass * r3.Norm2(b.Velocity)
		for j := i + 1; j < len(bodies); j++ {
			r := r3.Norm(r3.Sub(bodies[j].Position, b.Position))
			if r == 0 {
				continue
			}
			pe -= g * b.Mass * bodies[j].Mass / r
		}
	}
	return ke + pe
}

// Energy samples the total energy of the system.
type Energy struct {
	g float64
}

func NewEnergy(g float64) *Energy {
	return &Energy{g: g}
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Measure(bodies []gravity.Body) float64 {
	return TotalEnergy(bodies, e.g)
}

// EnergyDrift tracks the largest relative departure from the first observed
// total energy.
type EnergyDrift struct {
	g             float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g float64) *EnergyDrift {
	return &EnergyDrift{g: g}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(bodies []gravity.Body, tick uint64) {
	energy := TotalEnergy(bodies, e.g)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
