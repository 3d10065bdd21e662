package technical

import "math"

// SMA calculates the Simple Moving Average for the given period. Values
// before the first full window are NaN.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	result := nanSlice(n)
	if period <= 0 || n < period {
		return result
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}

	return result
}

// EWM calculates an exponentially weighted mean with alpha = 2/(span+1),
// seeded with the first value (no bias adjustment).
func EWM(data []float64, span int) []float64 {
	n := len(data)
	result := make([]float64, n)
	if n == 0 {
		return result
	}
	if span <= 0 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)
	result[0] = data[0]
	for i := 1; i < n; i++ {
		result[i] = alpha*data[i] + (1-alpha)*result[i-1]
	}
	return result
}

// EMA calculates an Exponential Moving Average seeded with the SMA of the
// first period values. Values before the seed are NaN.
func EMA(data []float64, period int) []float64 {
	n := len(data)
	ema := nanSlice(n)
	if period <= 0 || n < period {
		return ema
	}
	k := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		ema[i] = data[i]*k + ema[i-1]*(1-k)
	}

	return ema
}

// MovingAverages computes the SMA series for each period.
func MovingAverages(data []float64, periods []int) map[int][]float64 {
	result := make(map[int][]float64, len(periods))
	for _, p := range periods {
		result[p] = SMA(data, p)
	}
	return result
}

// Latest returns the last value of a series, NaN for an empty one.
func Latest(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// StandardPeriods are the moving-average windows reported by default.
var StandardPeriods = []int{20, 50, 100, 200}
