package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

// binaryPeriod is 2πr/v for the default binary: r = 30 and a relative speed
// of sqrt(G(ma+mb)/r).
var binaryPeriod = 2 * math.Pi * 30 / math.Sqrt(gravity.DefaultG*1.5e7/30)

func TestDominantPeriod_Sine(t *testing.T) {
	tests := []struct {
		name        string
		period      float64
		n           int
		sampleEvery int
	}{
		{"fine", 50, 1000, 1},
		{"coarse bins", 333, 2000, 1},
		{"subsampled", 200, 500, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := make([]float64, tt.n)
			for i := range series {
				tick := float64(i * tt.sampleEvery)
				series[i] = 3 + math.Sin(2*math.Pi*tick/tt.period)
			}
			got, err := DominantPeriod(series, tt.sampleEvery)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.period)/tt.period > 0.01 {
				t.Errorf("period = %f, want %f", got, tt.period)
			}
		})
	}
}

func TestDominantPeriod_Binary(t *testing.T) {
	eng, err := gravity.New(gravity.Binary())
	if err != nil {
		t.Fatal(err)
	}
	o, err := TraceOrbit(eng, 0, 3999)
	if err != nil {
		t.Fatal(err)
	}
	series := make([]float64, len(o.Points))
	for i, p := range o.Points {
		series[i] = p.X
	}

	got, err := DominantPeriod(series, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-binaryPeriod)/binaryPeriod > 0.02 {
		t.Errorf("period = %f, want about %f", got, binaryPeriod)
	}
}

func TestDominantPeriod_Errors(t *testing.T) {
	if _, err := DominantPeriod([]float64{1, 2, 3}, 1); !errors.Is(err, ErrShortSeries) {
		t.Errorf("expected ErrShortSeries, got %v", err)
	}
	flat := make([]float64, 64)
	if _, err := DominantPeriod(flat, 1); err == nil {
		t.Error("expected error for constant series")
	}
	bad := make([]float64, 64)
	bad[10] = math.NaN()
	if _, err := DominantPeriod(bad, 1); err == nil {
		t.Error("expected error for NaN sample")
	}
}

func TestPowerSpectrum(t *testing.T) {
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty series")
	}
	series := make([]float64, 128)
	for i := range series {
		series[i] = math.Cos(2 * math.Pi * 16 * float64(i) / 128)
	}
	ps := PowerSpectrum(series)
	if len(ps) != 65 {
		t.Fatalf("expected 65 bins, got %d", len(ps))
	}
	peak := 0
	for i := range ps {
		if ps[i] > ps[peak] {
			peak = i
		}
	}
	if peak != 16 {
		t.Errorf("peak at bin %d, want 16", peak)
	}
}

func TestTraceOrbit(t *testing.T) {
	eng, err := gravity.New(gravity.Binary())
	if err != nil {
		t.Fatal(err)
	}
	o, err := TraceOrbit(eng, 0, 2600)
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Points) != 2601 {
		t.Fatalf("expected 2601 points, got %d", len(o.Points))
	}
	if o.Points[0] != (Point{X: 10, Y: 0}) {
		t.Errorf("unexpected first point %+v", o.Points[0])
	}
	if eng.Ticks() != 2600 {
		t.Errorf("engine ticks = %d", eng.Ticks())
	}

	crossings := o.Crossings()
	if len(crossings) != 3 {
		t.Fatalf("expected 3 crossings, got %v", crossings)
	}
	period, err := o.CrossingPeriod()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(period-binaryPeriod)/binaryPeriod > 0.01 {
		t.Errorf("crossing period = %f, want about %f", period, binaryPeriod)
	}

	art := OrbitToASCII(o, 40, 20)
	if !strings.Contains(art, "•") || !strings.Contains(art, "+") {
		t.Error("expected orbit and barycenter marks")
	}
	if OrbitToASCII(nil, 40, 20) != "" {
		t.Error("expected empty plot for nil orbit")
	}
}

func TestTraceOrbits(t *testing.T) {
	single, _ := gravity.New(gravity.Binary())
	ref, err := TraceOrbit(single, 0, 1800)
	if err != nil {
		t.Fatal(err)
	}

	eng, _ := gravity.New(gravity.Binary())
	orbits, err := TraceOrbits(eng, 1800)
	if err != nil {
		t.Fatal(err)
	}
	if len(orbits) != 2 {
		t.Fatalf("expected 2 orbits, got %d", len(orbits))
	}
	for i, p := range ref.Points {
		if orbits[0].Points[i] != p {
			t.Fatalf("point %d differs from single trace: %+v vs %+v", i, orbits[0].Points[i], p)
		}
	}
	for _, o := range orbits {
		period, err := o.CrossingPeriod()
		if err != nil {
			t.Fatalf("body %s: %v", o.Body, err)
		}
		if math.Abs(period-binaryPeriod)/binaryPeriod > 0.01 {
			t.Errorf("body %s period = %f, want about %f", o.Body, period, binaryPeriod)
		}
	}
}

func TestTraceOrbit_UnknownBody(t *testing.T) {
	eng, _ := gravity.New(gravity.Binary())
	if _, err := TraceOrbit(eng, 5, 10); !errors.Is(err, gravity.ErrUnknownHandle) {
		t.Errorf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestCrossingPeriod_TooShort(t *testing.T) {
	o := &Orbit{Points: []Point{{1, -1}, {1, 1}}}
	if _, err := o.CrossingPeriod(); err == nil {
		t.Error("expected error with a single crossing")
	}
}

func TestLyapunovExponent(t *testing.T) {
	seed := gravity.Binary()

	l, err := LyapunovExponent(seed, 0, 1e-6, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(l) || l > 0.01 {
		t.Errorf("expected near-zero exponent for a regular orbit, got %f", l)
	}

	sens, err := BodySensitivity(seed, 1e-6, 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(sens) != 2 {
		t.Errorf("expected 2 values, got %d", len(sens))
	}
}

func TestLyapunovExponent_Errors(t *testing.T) {
	seed := gravity.Binary()
	tests := []struct {
		name string
		h    gravity.Handle
		eps  float64
		n    int
	}{
		{"bad handle", 2, 1e-6, 10},
		{"zero perturbation", 0, 0, 10},
		{"no ticks", 0, 1e-6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LyapunovExponent(seed, tt.h, tt.eps, tt.n); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := LyapunovExponent(nil, 0, 1e-6, 10); err == nil {
		t.Error("expected error for empty seed")
	}
}

func TestSweepEccentricity(t *testing.T) {
	build := func() (*gravity.Engine, error) {
		return gravity.New([]gravity.Body{{Mass: 1e7}})
	}

	pts, err := SweepEccentricity(build, r3.Vec{X: 30}, gravity.Small, 0.6, 1.0, 5, 3000)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 5 {
		t.Fatalf("expected 5 points, got %d", len(pts))
	}

	circular := pts[4]
	if math.Abs(circular.Eccentricity-1) > 1e-12 {
		t.Errorf("last eccentricity = %f", circular.Eccentricity)
	}
	if circular.Apoapsis/circular.Periapsis > 1.05 {
		t.Errorf("expected near-circular orbit, got %+v", circular)
	}
	for _, p := range pts {
		if p.Anchor != 0 {
			t.Errorf("expected anchor #0, got %s", p.Anchor)
		}
		if math.Abs(p.Apoapsis-30)/30 > 0.1 {
			t.Errorf("eccentricity %.2f: apoapsis %f far from insertion radius", p.Eccentricity, p.Apoapsis)
		}
	}
	if pts[0].Periapsis > 0.5*circular.Periapsis {
		t.Errorf("expected slow insertion to fall inward: %+v vs %+v", pts[0], circular)
	}

	if art := SweepToASCII(pts, 30, 10); !strings.Contains(art, "o") {
		t.Error("expected apoapsis marks")
	}
}

func TestSweepEccentricity_Errors(t *testing.T) {
	build := func() (*gravity.Engine, error) {
		return gravity.New([]gravity.Body{{Mass: 1e7}})
	}
	if _, err := SweepEccentricity(build, r3.Vec{X: 30}, gravity.Small, 0.5, 1, 0, 10); err == nil {
		t.Error("expected error for zero steps")
	}
	if _, err := SweepEccentricity(build, r3.Vec{X: 30}, gravity.Small, 1, 0.5, 3, 10); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := SweepEccentricity(build, r3.Vec{}, gravity.Small, 0.5, 1, 2, 10); !errors.Is(err, gravity.ErrCoincident) {
		t.Errorf("expected ErrCoincident, got %v", err)
	}
}
