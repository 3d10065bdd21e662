// Package technical implements technical analysis indicators for daily
// price bars. Series functions return one value per input bar; positions
// without enough history hold NaN.
package technical

import (
	"math"
	"time"

	"github.com/seenimoa/equiscore/pkg/models"
)

// Params configures ComputeAll.
type Params struct {
	MAPeriods  []int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBPeriod   int
	BBMult     float64
	ATRPeriod  int
}

// DefaultParams returns the standard indicator settings.
func DefaultParams() Params {
	return Params{
		MAPeriods:  StandardPeriods,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBMult:     2,
		ATRPeriod:  14,
	}
}

// RSI calculates the Relative Strength Index using simple rolling means of
// gains and losses. A window without losses reads 100; a flat window is NaN.
func RSI(closes []float64, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	n := len(closes)
	rsi := nanSlice(n)
	if n < period+1 {
		return rsi
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var sumGain, sumLoss float64
	for i := 1; i <= period; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
	}
	for i := period; i < n; i++ {
		if i > period {
			sumGain += gains[i] - gains[i-period]
			sumLoss += losses[i] - losses[i-period]
		}
		rsi[i] = rsiValue(sumGain/float64(period), sumLoss/float64(period))
	}
	return rsi
}

// RSIWilder calculates RSI with Wilder's smoothing after an SMA seed.
func RSIWilder(closes []float64, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	n := len(closes)
	rsi := nanSlice(n)
	if n < period+1 {
		return rsi
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return rsi
}

func rsiValue(gain, loss float64) float64 {
	switch {
	case loss == 0 && gain == 0:
		return math.NaN()
	case loss == 0:
		return 100
	default:
		return 100 - 100/(1+gain/loss)
	}
}

// MACDPoint holds a single MACD computation point.
type MACDPoint struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACD calculates the Moving Average Convergence Divergence on
// exponentially weighted means. Default parameters: fast=12, slow=26, signal=9.
func MACD(closes []float64, fast, slow, signal int) []MACDPoint {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	n := len(closes)
	if n == 0 {
		return nil
	}

	fastEWM := EWM(closes, fast)
	slowEWM := EWM(closes, slow)
	line := make([]float64, n)
	for i := range line {
		line[i] = fastEWM[i] - slowEWM[i]
	}
	sig := EWM(line, signal)

	out := make([]MACDPoint, n)
	for i := range out {
		out[i] = MACDPoint{MACD: line[i], Signal: sig[i], Histogram: line[i] - sig[i]}
	}
	return out
}

// BollingerPoint holds one Bollinger Bands reading.
type BollingerPoint struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Width  float64 `json:"width"`
}

// BollingerBands calculates bands at mult sample standard deviations around
// the period SMA. Default: period=20, mult=2.
func BollingerBands(closes []float64, period int, mult float64) []BollingerPoint {
	if period <= 0 {
		period = 20
	}
	if mult <= 0 {
		mult = 2
	}
	n := len(closes)
	out := make([]BollingerPoint, n)
	nan := math.NaN()
	for i := range out {
		if i < period-1 {
			out[i] = BollingerPoint{nan, nan, nan, nan}
			continue
		}
		window := closes[i-period+1 : i+1]
		mid := avg(window)
		sd := sampleStd(window, mid)
		out[i] = BollingerPoint{
			Upper:  mid + mult*sd,
			Middle: mid,
			Lower:  mid - mult*sd,
			Width:  2 * mult * sd,
		}
	}
	return out
}

// TrueRange returns the true range of each bar; the first bar uses High-Low.
func TrueRange(bars []models.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prev := bars[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
	}
	return tr
}

// ATR calculates the Average True Range as a rolling mean of true range.
func ATR(bars []models.Bar, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	return SMA(TrueRange(bars), period)
}

// Reading is the most recent value of every indicator.
type Reading struct {
	Date      time.Time       `json:"date"`
	Close     float64         `json:"close"`
	MA        map[int]float64 `json:"ma"`
	RSI       float64         `json:"rsi"`
	MACD      MACDPoint       `json:"macd"`
	Bollinger BollingerPoint  `json:"bollinger"`
	ATR       float64         `json:"atr"`
}

// Indicators holds the full indicator series aligned with the input bars.
type Indicators struct {
	Params    Params            `json:"-"`
	Dates     []time.Time       `json:"dates"`
	Close     []float64         `json:"close"`
	MA        map[int][]float64 `json:"ma"`
	RSI       []float64         `json:"rsi"`
	MACD      []MACDPoint       `json:"macd"`
	Bollinger []BollingerPoint  `json:"bollinger"`
	ATR       []float64         `json:"atr"`
	Latest    Reading           `json:"latest"`
}

// ComputeAll calculates every indicator for bars. It returns nil for an
// empty input.
func ComputeAll(bars []models.Bar, p Params) *Indicators {
	if len(bars) == 0 {
		return nil
	}
	def := DefaultParams()
	if len(p.MAPeriods) == 0 {
		p.MAPeriods = def.MAPeriods
	}

	closes := models.Closes(bars)
	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
	}

	ind := &Indicators{
		Params:    p,
		Dates:     dates,
		Close:     closes,
		MA:        MovingAverages(closes, p.MAPeriods),
		RSI:       RSI(closes, p.RSIPeriod),
		MACD:      MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal),
		Bollinger: BollingerBands(closes, p.BBPeriod, p.BBMult),
		ATR:       ATR(bars, p.ATRPeriod),
	}

	last := len(bars) - 1
	ind.Latest = Reading{
		Date:      dates[last],
		Close:     closes[last],
		MA:        make(map[int]float64, len(p.MAPeriods)),
		RSI:       ind.RSI[last],
		MACD:      ind.MACD[last],
		Bollinger: ind.Bollinger[last],
		ATR:       ind.ATR[last],
	}
	for period, series := range ind.MA {
		ind.Latest.MA[period] = series[last]
	}
	return ind
}

// --- helper functions ---

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func avg(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// sampleStd is the n-1 standard deviation.
func sampleStd(data []float64, mean float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}
