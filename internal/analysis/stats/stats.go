// Package stats implements descriptive statistics, performance and risk
// metrics over daily return series. Returns are expressed in percent.
package stats

import (
	"errors"
	"math"
	"slices"

	"github.com/seenimoa/equiscore/pkg/models"
)

// TradingDaysPerYear annualizes daily figures.
const TradingDaysPerYear = 252

// ErrInsufficientData is returned when a series is too short for a metric.
var ErrInsufficientData = errors.New("insufficient data")

// Percentiles holds the standard distribution cut points.
type Percentiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// Summary describes a return series. A zero Count means the series had no
// defined values.
type Summary struct {
	Count       int         `json:"count"`
	Mean        float64     `json:"mean"`
	Median      float64     `json:"median"`
	Std         float64     `json:"std"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	WinRate     float64     `json:"win_rate"`
	AvgWin      float64     `json:"avg_win"`
	AvgLoss     float64     `json:"avg_loss"`
	Percentiles Percentiles `json:"percentiles"`
	Skewness    float64     `json:"skewness"`
	Kurtosis    float64     `json:"kurtosis"`
}

// Describe summarizes series, ignoring NaN entries.
func Describe(series []float64) Summary {
	x := Clean(series)
	if len(x) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	var wins, losses []float64
	for _, v := range x {
		switch {
		case v > 0:
			wins = append(wins, v)
		case v < 0:
			losses = append(losses, v)
		}
	}

	mean := Mean(x)
	return Summary{
		Count:   len(x),
		Mean:    mean,
		Median:  Percentile(sorted, 50),
		Std:     StdDev(x),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		WinRate: float64(len(wins)) / float64(len(x)) * 100,
		AvgWin:  Mean(wins),
		AvgLoss: Mean(losses),
		Percentiles: Percentiles{
			P10: Percentile(sorted, 10),
			P25: Percentile(sorted, 25),
			P50: Percentile(sorted, 50),
			P75: Percentile(sorted, 75),
			P90: Percentile(sorted, 90),
		},
		Skewness: Skewness(x),
		Kurtosis: Kurtosis(x),
	}
}

// DailyReturns returns the percent change of each close over the previous
// one. The first element is NaN.
func DailyReturns(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		if i == 0 || bars[i-1].Close == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (bars[i].Close - bars[i-1].Close) / bars[i-1].Close * 100
	}
	return out
}

// Clean drops NaN values.
func Clean(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample (n-1) standard deviation, 0 below two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// Percentile returns the p-th percentile of sorted values with linear
// interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Skewness returns the bias-adjusted sample skewness. It is NaN below three
// values and 0 for a constant series.
func Skewness(x []float64) float64 {
	n := float64(len(x))
	if n < 3 {
		return math.NaN()
	}
	m := Mean(x)
	s := StdDev(x)
	if s == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		z := (v - m) / s
		sum += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// Kurtosis returns the bias-adjusted sample excess kurtosis. It is NaN below
// four values and 0 for a constant series.
func Kurtosis(x []float64) float64 {
	n := float64(len(x))
	if n < 4 {
		return math.NaN()
	}
	m := Mean(x)
	s := StdDev(x)
	if s == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		z := (v - m) / s
		sum += z * z * z * z
	}
	a := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	b := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return a*sum - b
}
