package monitor

import (
	"math"
	"sort"
	"time"
)

// Latency represents statistical aggregates over analysis round trips
type Latency struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
}

// Summarize calculates aggregates for the given samples. Non-positive samples
// belong to cycles that never reached the analyzer and are skipped.
func Summarize(samples []time.Duration) Latency {
	sorted := make([]time.Duration, 0, len(samples))
	for _, d := range samples {
		if d > 0 {
			sorted = append(sorted, d)
		}
	}
	if len(sorted) == 0 {
		return Latency{}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	return Latency{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Avg:   sum / time.Duration(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
	}
}

// percentile calculates the nth percentile of sorted values
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := p * float64(len(sorted)-1)
	lowerIdx := int(index)
	upperIdx := lowerIdx + 1

	if upperIdx >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation
	weight := index - float64(lowerIdx)
	return time.Duration(math.Round(float64(sorted[lowerIdx])*(1-weight) + float64(sorted[upperIdx])*weight))
}
