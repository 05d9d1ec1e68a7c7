package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TickStats summarizes wall-clock tick durations.
type TickStats struct {
	Count  int
	Mean   time.Duration
	StdDev time.Duration
	P95    time.Duration
	Worst  time.Duration
}

// SummarizeTicks computes TickStats. durations is left unmodified.
func SummarizeTicks(durations []time.Duration) TickStats {
	if len(durations) == 0 {
		return TickStats{}
	}
	xs := make([]float64, len(durations))
	for i, d := range durations {
		xs[i] = float64(d)
	}
	sort.Float64s(xs)

	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return TickStats{
		Count:  len(xs),
		Mean:   time.Duration(mean),
		StdDev: time.Duration(std),
		P95:    time.Duration(stat.Quantile(0.95, stat.Empirical, xs, nil)),
		Worst:  time.Duration(floats.Max(xs)),
	}
}
