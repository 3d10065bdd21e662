package report

import (
	"errors"

	"github.com/seenimoa/equiscore/internal/analysis/market"
	"github.com/seenimoa/equiscore/internal/analysis/patterns"
	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/internal/analysis/technical"
	"github.com/seenimoa/equiscore/pkg/models"
)

var (
	// ErrNoPrices is returned when a price series has no rows.
	ErrNoPrices = errors.New("no price rows")
	// ErrNoMarketData is returned when bars carry no market-cap, volume or P/BV column.
	ErrNoMarketData = errors.New("no market-cap, volume or P/BV columns")
)

// PriceOptions tune the technical analysis.
type PriceOptions struct {
	Params        technical.Params
	TradingDays   int     // annualisation base; 0 uses stats.TradingDaysPerYear
	VaRConfidence float64 // 0 uses 0.95
}

// DefaultPriceOptions returns the standard indicator periods at 95% VaR.
func DefaultPriceOptions() PriceOptions {
	return PriceOptions{
		Params:        technical.DefaultParams(),
		TradingDays:   stats.TradingDaysPerYear,
		VaRConfidence: 0.95,
	}
}

func newPriceAnalysis(symbol string, bars []models.Bar) (*PriceAnalysis, error) {
	if len(bars) == 0 {
		return nil, ErrNoPrices
	}
	return &PriceAnalysis{
		Symbol: symbol,
		From:   bars[0].Date,
		To:     bars[len(bars)-1].Date,
	}, nil
}

// TechnicalAnalysis computes indicators, signals, performance, return
// statistics and VaR. Performance is nil when the series is too short.
func TechnicalAnalysis(symbol string, bars []models.Bar, opts PriceOptions) (*PriceAnalysis, error) {
	a, err := newPriceAnalysis(symbol, bars)
	if err != nil {
		return nil, err
	}
	ind := technical.ComputeAll(bars, opts.Params)
	signals := technical.GenerateSignals(ind)
	bias := technical.AggregateSignal(signals)
	a.Technical = ind
	a.Signals = signals
	a.Bias = &bias

	if perf, err := stats.PerformanceAnnualized(bars, opts.TradingDays); err == nil {
		a.Performance = perf
	}
	returns := stats.Clean(stats.DailyReturns(bars))
	summary := stats.Describe(returns)
	a.Returns = &summary
	a.Yearly = stats.YearlyReturns(bars)
	if len(returns) > 1 {
		conf := opts.VaRConfidence
		if conf <= 0 || conf >= 1 {
			conf = 0.95
		}
		a.Risk = []stats.VaRResult{stats.HistoricalVaR(returns, conf), stats.ParametricVaR(returns, conf)}
	}
	return a, nil
}

// PatternAnalysis groups the daily returns of bars by calendar pattern.
func PatternAnalysis(symbol string, bars []models.Bar) (*PriceAnalysis, error) {
	a, err := newPriceAnalysis(symbol, bars)
	if err != nil {
		return nil, err
	}
	days := patterns.Enrich(bars)
	a.Patterns = patterns.Compare(days)
	a.Weekdays = patterns.ByWeekday(days)
	a.Months = patterns.ByMonth(days)
	a.Sessions = patterns.Sessions(days)
	for _, f := range []*patterns.Focus{
		patterns.April(days), patterns.Wednesday(days), patterns.MonthEnd(days), patterns.FirstMonday(days),
	} {
		if f != nil {
			a.Focus = append(a.Focus, f)
		}
	}
	return a, nil
}

// MarketAnalysis summarises market capitalisation, liquidity and P/BV.
func MarketAnalysis(symbol string, bars []models.Bar) (*PriceAnalysis, error) {
	a, err := newPriceAnalysis(symbol, bars)
	if err != nil {
		return nil, err
	}
	mr := market.Analyze(bars)
	if mr.MarketCap == nil && mr.Liquidity == nil && mr.Valuation == nil {
		return nil, ErrNoMarketData
	}
	a.Market = mr
	return a, nil
}

// AllGroups concatenates the pattern, weekday, month and session groups.
func (a *PriceAnalysis) AllGroups() []patterns.Group {
	out := make([]patterns.Group, 0, len(a.Patterns)+len(a.Weekdays)+len(a.Months)+len(a.Sessions))
	out = append(out, a.Patterns...)
	out = append(out, a.Weekdays...)
	out = append(out, a.Months...)
	return append(out, a.Sessions...)
}
