package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series too short")

// PowerSpectrum returns |X_k|² for k in [0, n/2] of the mean-removed,
// Hann-windowed series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	mean := stat.Mean(series, nil)
	xs := make([]float64, len(series))
	for i, v := range series {
		xs[i] = v - mean
	}
	window.Hann(xs)

	coeffs := fft.FFTReal(xs)
	ps := make([]float64, len(coeffs)/2+1)
	for i := range ps {
		a := cmplx.Abs(coeffs[i])
		ps[i] = a * a
	}
	return ps
}

// DominantPeriod returns the period, in ticks, of the strongest non-constant
// component of a series sampled every sampleEvery ticks. The peak bin is
// refined by fitting a parabola through the log power of its neighbours.
func DominantPeriod(series []float64, sampleEvery int) (float64, error) {
	if len(series) < 8 {
		return 0, ErrShortSeries
	}
	if sampleEvery < 1 {
		sampleEvery = 1
	}
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.New("analysis: series contains non-finite samples")
		}
	}

	ps := PowerSpectrum(series)
	k := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[k] {
			k = i
		}
	}
	if ps[k] == 0 {
		return 0, errors.New("analysis: series has no periodic component")
	}

	peak := float64(k)
	if k > 1 && k+1 < len(ps) && ps[k-1] > 0 && ps[k+1] > 0 {
		a, b, c := math.Log(ps[k-1]), math.Log(ps[k]), math.Log(ps[k+1])
		if den := a - 2*b + c; den != 0 {
			peak += 0.5 * (a - c) / den
		}
	}
	return float64(len(series)*sampleEvery) / peak, nil
}
