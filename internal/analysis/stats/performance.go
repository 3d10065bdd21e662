package stats

import (
	"fmt"
	"math"

	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// PerformanceMetrics summarizes the return profile of a price history.
type PerformanceMetrics struct {
	TradingDays   int     `json:"trading_days"`
	Years         float64 `json:"years"`
	StartPrice    float64 `json:"start_price"`
	EndPrice      float64 `json:"end_price"`
	TotalReturn   float64 `json:"total_return"`
	CAGR          float64 `json:"cagr"`
	Volatility    float64 `json:"annualized_volatility"`
	Sharpe        float64 `json:"sharpe"`
	Sortino       float64 `json:"sortino"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	BestDay       float64 `json:"best_day"`
	WorstDay      float64 `json:"worst_day"`
	MeanReturn    float64 `json:"mean_daily_return"`
	MedianReturn  float64 `json:"median_daily_return"`
	WinRate       float64 `json:"win_rate"`
	MaxWinStreak  int     `json:"max_win_streak"`
	MaxLossStreak int     `json:"max_loss_streak"`
}

// Performance computes performance metrics for bars sorted by date. The
// Sharpe and Sortino ratios assume a zero risk-free rate.
func Performance(bars []models.Bar) (*PerformanceMetrics, error) {
	return PerformanceAnnualized(bars, TradingDaysPerYear)
}

// PerformanceAnnualized is Performance with volatility, Sharpe and Sortino
// annualized over tradingDays sessions; non-positive values use
// TradingDaysPerYear.
func PerformanceAnnualized(bars []models.Bar, tradingDays int) (*PerformanceMetrics, error) {
	if tradingDays <= 0 {
		tradingDays = TradingDaysPerYear
	}
	annual := float64(tradingDays)
	if len(bars) < 2 {
		return nil, fmt.Errorf("performance needs at least 2 bars, got %d: %w", len(bars), ErrInsufficientData)
	}

	returns := Clean(DailyReturns(bars))
	if len(returns) == 0 {
		return nil, fmt.Errorf("no defined daily returns: %w", ErrInsufficientData)
	}
	first, last := bars[0], bars[len(bars)-1]
	start, end := first.Close, last.Close
	years := utils.YearsBetween(first.Date, last.Date)

	pm := &PerformanceMetrics{
		TradingDays: len(returns),
		Years:       years,
		StartPrice:  start,
		EndPrice:    end,
		TotalReturn: (end - start) / start * 100,
		CAGR:        math.NaN(),
	}
	if years > 0 {
		pm.CAGR = (math.Pow(end/start, 1/years) - 1) * 100
	}

	mean := Mean(returns)
	std := StdDev(returns)
	pm.Volatility = std * math.Sqrt(annual)
	if std > 0 {
		pm.Sharpe = mean * annual / pm.Volatility
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if dstd := StdDev(downside) * math.Sqrt(annual); dstd > 0 {
		pm.Sortino = mean * annual / dstd
	}

	pm.MaxDrawdown = MaxDrawdown(returns)

	s := Describe(returns)
	pm.BestDay = s.Max
	pm.WorstDay = s.Min
	pm.MeanReturn = s.Mean
	pm.MedianReturn = s.Median
	pm.WinRate = s.WinRate
	pm.MaxWinStreak, pm.MaxLossStreak = Streaks(returns)

	return pm, nil
}

// Drawdowns returns the percent decline of the compounded return series from
// its running peak.
func Drawdowns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	cum, peak := 1.0, math.Inf(-1)
	for i, r := range returns {
		cum *= 1 + r/100
		peak = math.Max(peak, cum)
		out[i] = (cum - peak) / peak * 100
	}
	return out
}

// MaxDrawdown returns the most negative drawdown, 0 for no decline.
func MaxDrawdown(returns []float64) float64 {
	worst := 0.0
	for _, d := range Drawdowns(returns) {
		worst = math.Min(worst, d)
	}
	return worst
}

// Streaks returns the longest runs of positive and non-positive returns.
func Streaks(returns []float64) (maxWin, maxLoss int) {
	var win, loss int
	for _, r := range returns {
		if r > 0 {
			win++
			loss = 0
		} else {
			loss++
			win = 0
		}
		maxWin = max(maxWin, win)
		maxLoss = max(maxLoss, loss)
	}
	return maxWin, maxLoss
}

// YearlyReturn summarizes one calendar year of a price history.
type YearlyReturn struct {
	Year        int     `json:"year"`
	StartPrice  float64 `json:"start_price"`
	EndPrice    float64 `json:"end_price"`
	Return      float64 `json:"return"`
	TradingDays int     `json:"trading_days"`
	WinRate     float64 `json:"win_rate"`
	BestDay     float64 `json:"best_day"`
	WorstDay    float64 `json:"worst_day"`
}

// YearlyReturns groups bars by calendar year. The daily returns are taken
// over the full history, so a year's first day is measured against the
// previous year's last close. Win rate counts every trading day of the year
// in its denominator.
func YearlyReturns(bars []models.Bar) []YearlyReturn {
	if len(bars) == 0 {
		return nil
	}
	returns := DailyReturns(bars)

	var out []YearlyReturn
	startIdx := 0
	for i := 1; i <= len(bars); i++ {
		if i < len(bars) && bars[i].Date.Year() == bars[startIdx].Date.Year() {
			continue
		}
		out = append(out, yearly(bars[startIdx:i], returns[startIdx:i]))
		startIdx = i
	}
	return out
}

func yearly(bars []models.Bar, returns []float64) YearlyReturn {
	start, end := bars[0].Close, bars[len(bars)-1].Close
	yr := YearlyReturn{
		Year:        bars[0].Date.Year(),
		StartPrice:  start,
		EndPrice:    end,
		Return:      (end - start) / start * 100,
		TradingDays: len(bars),
		BestDay:     math.NaN(),
		WorstDay:    math.NaN(),
	}
	wins := 0
	for _, r := range returns {
		if math.IsNaN(r) {
			continue
		}
		if r > 0 {
			wins++
		}
		if math.IsNaN(yr.BestDay) || r > yr.BestDay {
			yr.BestDay = r
		}
		if math.IsNaN(yr.WorstDay) || r < yr.WorstDay {
			yr.WorstDay = r
		}
	}
	yr.WinRate = float64(wins) / float64(len(bars)) * 100
	return yr
}
