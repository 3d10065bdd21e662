// Package market analyzes the optional per-day market columns of a price
// history: market capitalisation, liquidity and price-to-book valuation.
package market

import (
	"math"
	"slices"

	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// Valuation statuses relative to the historical P/BV distribution.
const (
	StatusUndervalued = "UNDERVALUED"
	StatusFairValue   = "FAIR VALUE"
	StatusOvervalued  = "OVERVALUED"
)

// point is one defined observation of a column.
type point struct {
	year    int
	quarter int
	value   float64
}

func column(bars []models.Bar, get func(models.Bar) float64) []point {
	var out []point
	for _, b := range bars {
		v := get(b)
		if math.IsNaN(v) {
			continue
		}
		out = append(out, point{year: b.Date.Year(), quarter: utils.Quarter(b.Date), value: v})
	}
	return out
}

func values(pts []point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.value
	}
	return out
}

// groupBy splits consecutive points sharing a key.
func groupBy(pts []point, key func(point) [2]int) [][]point {
	var groups [][]point
	start := 0
	for i := 1; i <= len(pts); i++ {
		if i < len(pts) && key(pts[i]) == key(pts[start]) {
			continue
		}
		groups = append(groups, pts[start:i])
		start = i
	}
	return groups
}

func byYear(p point) [2]int    { return [2]int{p.year, 0} }
func byQuarter(p point) [2]int { return [2]int{p.year, p.quarter} }

func maxOf(x []float64) float64 { return slices.Max(x) }
func minOf(x []float64) float64 { return slices.Min(x) }

func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	return stats.Percentile(s, 50)
}

func sum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}

func growth(first, last float64) float64 {
	if first == 0 {
		return math.NaN()
	}
	return (last - first) / first * 100
}

// =============================================================================
// Market capitalisation
// =============================================================================

// PeriodCap summarizes market capitalisation over a year or quarter.
type PeriodCap struct {
	Year    int     `json:"year"`
	Quarter int     `json:"quarter,omitempty"`
	First   float64 `json:"first"`
	Last    float64 `json:"last"`
	Mean    float64 `json:"mean"`
	Max     float64 `json:"max,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Growth  float64 `json:"growth"`
}

// CapAnalysis summarizes the MCAP column.
type CapAnalysis struct {
	Current     float64     `json:"current"`
	High        float64     `json:"high"`
	Low         float64     `json:"low"`
	Mean        float64     `json:"mean"`
	TotalGrowth float64     `json:"total_growth"`
	CAGR        float64     `json:"cagr"`
	Std         float64     `json:"std"`
	Days        int         `json:"days"`
	Yearly      []PeriodCap `json:"yearly"`
	Quarterly   []PeriodCap `json:"quarterly"`
}

// MarketCap analyzes market capitalisation. The CAGR counts years as
// observations divided by the trading days in a year. It returns nil when no
// bar carries the column.
func MarketCap(bars []models.Bar) *CapAnalysis {
	pts := column(bars, func(b models.Bar) float64 { return b.MarketCap })
	if len(pts) == 0 {
		return nil
	}
	v := values(pts)
	first, last := v[0], v[len(v)-1]

	a := &CapAnalysis{
		Current:     last,
		High:        maxOf(v),
		Low:         minOf(v),
		Mean:        stats.Mean(v),
		TotalGrowth: growth(first, last),
		CAGR:        math.NaN(),
		Std:         stats.StdDev(v),
		Days:        len(v),
	}
	if first > 0 {
		years := float64(len(v)) / stats.TradingDaysPerYear
		a.CAGR = (math.Pow(last/first, 1/years) - 1) * 100
	}

	for _, g := range groupBy(pts, byYear) {
		gv := values(g)
		a.Yearly = append(a.Yearly, PeriodCap{
			Year:   g[0].year,
			First:  gv[0],
			Last:   gv[len(gv)-1],
			Mean:   stats.Mean(gv),
			Max:    maxOf(gv),
			Min:    minOf(gv),
			Growth: growth(gv[0], gv[len(gv)-1]),
		})
	}
	for _, g := range groupBy(pts, byQuarter) {
		gv := values(g)
		a.Quarterly = append(a.Quarterly, PeriodCap{
			Year:    g[0].year,
			Quarter: g[0].quarter,
			First:   gv[0],
			Last:    gv[len(gv)-1],
			Mean:    stats.Mean(gv),
			Growth:  growth(gv[0], gv[len(gv)-1]),
		})
	}
	return a
}

// =============================================================================
// Liquidity
// =============================================================================

// ColumnStats are the basic aggregates of one liquidity column.
type ColumnStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std,omitempty"`
	Total  float64 `json:"total,omitempty"`
	Days   int     `json:"days"`
}

// YearLiquidity holds yearly means and sums. Absent columns are NaN.
type YearLiquidity struct {
	Year       int     `json:"year"`
	VolumeMean float64 `json:"volume_mean"`
	VolumeSum  float64 `json:"volume_sum"`
	TradesMean float64 `json:"trades_mean"`
	TradesSum  float64 `json:"trades_sum"`
	ValueMean  float64 `json:"value_mean"`
	ValueSum   float64 `json:"value_sum"`
}

// LiquidityAnalysis summarizes trading activity. Trades and Value are nil
// when the columns are absent.
type LiquidityAnalysis struct {
	Volume         ColumnStats     `json:"volume"`
	Trades         *ColumnStats    `json:"trades,omitempty"`
	VolumePerTrade float64         `json:"volume_per_trade"`
	Value          *ColumnStats    `json:"value,omitempty"`
	Yearly         []YearLiquidity `json:"yearly"`
}

func columnStats(v []float64) ColumnStats {
	return ColumnStats{
		Mean:   stats.Mean(v),
		Median: median(v),
		Max:    maxOf(v),
		Std:    stats.StdDev(v),
		Total:  sum(v),
		Days:   len(v),
	}
}

// Liquidity analyzes volume, number of trades and traded value. It returns
// nil for an empty history.
func Liquidity(bars []models.Bar) *LiquidityAnalysis {
	vol := column(bars, func(b models.Bar) float64 { return b.Volume })
	if len(vol) == 0 {
		return nil
	}
	a := &LiquidityAnalysis{Volume: columnStats(values(vol)), VolumePerTrade: math.NaN()}

	if trades := column(bars, func(b models.Bar) float64 { return b.Trades }); len(trades) > 0 {
		cs := columnStats(values(trades))
		a.Trades = &cs

		var perTrade []float64
		for _, b := range bars {
			if !math.IsNaN(b.Trades) && b.Trades != 0 {
				perTrade = append(perTrade, b.Volume/b.Trades)
			}
		}
		if len(perTrade) > 0 {
			a.VolumePerTrade = stats.Mean(perTrade)
		}
	}
	if value := column(bars, func(b models.Bar) float64 { return b.ValueTraded }); len(value) > 0 {
		cs := columnStats(values(value))
		a.Value = &cs
	}

	a.Yearly = yearlyLiquidity(bars, a.Trades != nil, a.Value != nil)
	return a
}

func yearlyLiquidity(bars []models.Bar, hasTrades, hasValue bool) []YearLiquidity {
	var out []YearLiquidity
	start := 0
	for i := 1; i <= len(bars); i++ {
		if i < len(bars) && bars[i].Date.Year() == bars[start].Date.Year() {
			continue
		}
		yr := bars[start:i]
		y := YearLiquidity{Year: yr[0].Date.Year()}
		y.VolumeMean, y.VolumeSum = meanSum(yr, func(b models.Bar) float64 { return b.Volume })
		y.TradesMean, y.TradesSum = math.NaN(), math.NaN()
		y.ValueMean, y.ValueSum = math.NaN(), math.NaN()
		if hasTrades {
			y.TradesMean, y.TradesSum = meanSum(yr, func(b models.Bar) float64 { return b.Trades })
		}
		if hasValue {
			y.ValueMean, y.ValueSum = meanSum(yr, func(b models.Bar) float64 { return b.ValueTraded })
		}
		out = append(out, y)
		start = i
	}
	return out
}

// meanSum skips NaN values; the mean of no values is NaN.
func meanSum(bars []models.Bar, get func(models.Bar) float64) (float64, float64) {
	v := values(column(bars, get))
	if len(v) == 0 {
		return math.NaN(), 0
	}
	return stats.Mean(v), sum(v)
}

// =============================================================================
// Valuation (P/BV)
// =============================================================================

// YearValuation summarizes P/BV for one year.
type YearValuation struct {
	Year   int     `json:"year"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	First  float64 `json:"first"`
	Last   float64 `json:"last"`
	Change float64 `json:"change"`
}

// Zones are the P/BV quartile boundaries.
type Zones struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
}

// ValuationAnalysis summarizes the PRICE_BV column.
type ValuationAnalysis struct {
	Current float64         `json:"current"`
	Mean    float64         `json:"mean"`
	Median  float64         `json:"median"`
	Max     float64         `json:"max"`
	Min     float64         `json:"min"`
	Std     float64         `json:"std"`
	Days    int             `json:"days"`
	Yearly  []YearValuation `json:"yearly"`
	Zones   Zones           `json:"zones"`
	Status  string          `json:"status"`
}

// Valuation analyzes price-to-book history. The current P/BV is
// UNDERVALUED below the 25th percentile, OVERVALUED above the 75th and FAIR
// VALUE otherwise. It returns nil when no bar carries the column.
func Valuation(bars []models.Bar) *ValuationAnalysis {
	pts := column(bars, func(b models.Bar) float64 { return b.PriceToBook })
	if len(pts) == 0 {
		return nil
	}
	v := values(pts)
	sorted := slices.Clone(v)
	slices.Sort(sorted)

	a := &ValuationAnalysis{
		Current: v[len(v)-1],
		Mean:    stats.Mean(v),
		Median:  stats.Percentile(sorted, 50),
		Max:     sorted[len(sorted)-1],
		Min:     sorted[0],
		Std:     stats.StdDev(v),
		Days:    len(v),
		Zones: Zones{
			P25: stats.Percentile(sorted, 25),
			P50: stats.Percentile(sorted, 50),
			P75: stats.Percentile(sorted, 75),
		},
	}
	switch {
	case a.Current < a.Zones.P25:
		a.Status = StatusUndervalued
	case a.Current > a.Zones.P75:
		a.Status = StatusOvervalued
	default:
		a.Status = StatusFairValue
	}

	for _, g := range groupBy(pts, byYear) {
		gv := values(g)
		first, last := gv[0], gv[len(gv)-1]
		a.Yearly = append(a.Yearly, YearValuation{
			Year:   g[0].year,
			Mean:   stats.Mean(gv),
			Min:    minOf(gv),
			Max:    maxOf(gv),
			First:  first,
			Last:   last,
			Change: growth(first, last),
		})
	}
	return a
}

// Report bundles the three market analyses. Any section may be nil.
type Report struct {
	MarketCap *CapAnalysis       `json:"market_cap,omitempty"`
	Liquidity *LiquidityAnalysis `json:"liquidity,omitempty"`
	Valuation *ValuationAnalysis `json:"valuation,omitempty"`
}

// Analyze runs every market analysis over bars.
func Analyze(bars []models.Bar) *Report {
	return &Report{
		MarketCap: MarketCap(bars),
		Liquidity: Liquidity(bars),
		Valuation: Valuation(bars),
	}
}
