package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// LyapunovExponent estimates the largest Lyapunov exponent, per tick, of the
// system started from seed. A shadow copy starts with body h displaced by
// perturbation along x. After every tick the separation in phase space is
// measured and the shadow is pulled back to distance perturbation from the
// reference. A clearly positive value indicates chaos.
func LyapunovExponent(seed []gravity.Body, h gravity.Handle, perturbation float64, ticks int, opts ...gravity.Option) (float64, error) {
	if h < 0 || int(h) >= len(seed) {
		return 0, fmt.Errorf("%w: %s", gravity.ErrUnknownHandle, h)
	}
	if !(perturbation > 0) {
		return 0, fmt.Errorf("perturbation must be positive, got %g", perturbation)
	}
	if ticks <= 0 {
		return 0, fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	ref, err := gravity.New(seed, opts...)
	if err != nil {
		return 0, err
	}
	shifted := append([]gravity.Body(nil), seed...)
	shifted[h].Position.X += perturbation
	shadow, err := gravity.New(shifted, opts...)
	if err != nil {
		return 0, err
	}

	sumLog := 0.0
	for i := 0; i < ticks; i++ {
		ref.Tick()
		shadow.Tick()

		a, b := ref.Snapshot(), shadow.Snapshot()
		sep := phaseDistance(a, b)
		if sep == 0 {
			continue
		}
		if math.IsInf(sep, 0) || math.IsNaN(sep) {
			return 0, errors.New("analysis: trajectories diverged to non-finite state")
		}
		sumLog += math.Log(sep / perturbation)

		shadow, err = gravity.New(pullBack(a, b, perturbation/sep), opts...)
		if err != nil {
			return 0, err
		}
	}
	return sumLog / float64(ticks), nil
}

// BodySensitivity runs LyapunovExponent once per body, perturbing each in
// turn.
func BodySensitivity(seed []gravity.Body, perturbation float64, ticks int, opts ...gravity.Option) ([]float64, error) {
	out := make([]float64, len(seed))
	for i := range seed {
		l, err := LyapunovExponent(seed, gravity.Handle(i), perturbation, ticks, opts...)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		out[i] = l
	}
	return out, nil
}

func phaseDistance(a, b []gravity.Body) float64 {
	sum := 0.0
	for i := range a {
		sum += r3.Norm2(r3.Sub(b[i].Position, a[i].Position))
		sum += r3.Norm2(r3.Sub(b[i].Velocity, a[i].Velocity))
	}
	return math.Sqrt(sum)
}

func pullBack(ref, shadow []gravity.Body, scale float64) []gravity.Body {
	out := make([]gravity.Body, len(ref))
	for i := range ref {
		out[i] = gravity.Body{
			Position: r3.Add(ref[i].Position, r3.Scale(scale, r3.Sub(shadow[i].Position, ref[i].Position))),
			Velocity: r3.Add(ref[i].Velocity, r3.Scale(scale, r3.Sub(shadow[i].Velocity, ref[i].Velocity))),
			Mass:     ref[i].Mass,
		}
	}
	return out
}
