// Package fundamental computes the fourteen raw fundamental metrics of a
// company from its financial statements.
package fundamental

import (
	"errors"
	"fmt"
	"math"

	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/models"
)

// ErrMissingYear is returned when the snapshot has no statements for the
// requested base year.
var ErrMissingYear = errors.New("fundamental: base year not present in snapshot")

// Input is one statement figure that went into a metric.
type Input struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Value is a computed raw metric together with the inputs it was derived from.
type Value struct {
	Name    string  `json:"name"`
	Raw     float64 `json:"raw"`
	Formula string  `json:"formula"`
	Inputs  []Input `json:"inputs,omitempty"`
}

// Metrics holds all raw values for one company and base year, in registry order.
type Metrics struct {
	Symbol string  `json:"symbol"`
	Year   int     `json:"year"`
	Values []Value `json:"values"`
}

// Raw returns the values keyed by metric name, as consumed by the scorer.
func (m Metrics) Raw() map[string]float64 {
	out := make(map[string]float64, len(m.Values))
	for _, v := range m.Values {
		out[v.Name] = v.Raw
	}
	return out
}

// Get returns the raw value of the named metric, 0 if absent.
func (m Metrics) Get(name string) float64 {
	for _, v := range m.Values {
		if v.Name == name {
			return v.Raw
		}
	}
	return 0
}

// Calculator derives raw metrics from a snapshot. The base year and the
// three years preceding it are read.
type Calculator struct {
	Snapshot *models.Snapshot
	BaseYear int
}

// NewCalculator returns a calculator for snap. A baseYear of 0 selects the
// latest fiscal year present.
func NewCalculator(snap *models.Snapshot, baseYear int) (*Calculator, error) {
	if snap == nil {
		return nil, errors.New("fundamental: nil snapshot")
	}
	if baseYear == 0 {
		baseYear = snap.LatestYear()
	}
	if _, ok := snap.IncomeStatement[models.FiscalYearLabel(baseYear)]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingYear, models.FiscalYearLabel(baseYear))
	}
	if _, ok := snap.BalanceSheet[models.FiscalYearLabel(baseYear)]; !ok {
		return nil, fmt.Errorf("%w: balance sheet %s", ErrMissingYear, models.FiscalYearLabel(baseYear))
	}
	return &Calculator{Snapshot: snap, BaseYear: baseYear}, nil
}

func (c *Calculator) year(offset int) models.FiscalYear {
	return c.Snapshot.Year(c.BaseYear - offset)
}

// Compute calculates all fourteen metrics.
func (c *Calculator) Compute() Metrics {
	growthEPS := c.EPSGrowth3Y()
	pe := c.PERatio()
	return Metrics{
		Symbol: c.Snapshot.Company.Symbol,
		Year:   c.BaseYear,
		Values: []Value{
			c.DebtToEquity(),
			c.CurrentRatio(),
			c.InterestCoverage(),
			c.ROE(),
			c.ROIC(),
			c.NetProfitMargin(),
			c.RevenueGrowth3Y(),
			growthEPS,
			c.FCFGrowth(),
			pe,
			c.PBRatio(),
			pegRatio(pe, growthEPS),
			c.AssetTurnover(),
			c.InventoryTurnover(),
		},
	}
}

// ════════════════════════════════════════════════════════════════════
// Financial Health
// ════════════════════════════════════════════════════════════════════

// DebtToEquity = total debt / shareholders' equity.
func (c *Calculator) DebtToEquity() Value {
	bs := c.year(0).Balance
	return Value{
		Name:    scoring.MetricDebtToEquity,
		Raw:     saturatingRatio(bs.TotalDebt, bs.ShareholdersEquity),
		Formula: "Total Debt / Shareholders' Equity",
		Inputs:  []Input{{"Total Debt", bs.TotalDebt}, {"Shareholders' Equity", bs.ShareholdersEquity}},
	}
}

// CurrentRatio = current assets / current liabilities.
func (c *Calculator) CurrentRatio() Value {
	bs := c.year(0).Balance
	return Value{
		Name:    scoring.MetricCurrentRatio,
		Raw:     saturatingRatio(bs.CurrentAssets, bs.CurrentLiabilities),
		Formula: "Current Assets / Current Liabilities",
		Inputs:  []Input{{"Current Assets", bs.CurrentAssets}, {"Current Liabilities", bs.CurrentLiabilities}},
	}
}

// InterestCoverage = EBIT / interest expense; +Inf without interest expense.
func (c *Calculator) InterestCoverage() Value {
	inc := c.year(0).Income
	raw := math.Inf(1)
	if inc.InterestExpense != 0 {
		raw = inc.OperatingIncome / inc.InterestExpense
	}
	return Value{
		Name:    scoring.MetricInterestCoverage,
		Raw:     raw,
		Formula: "EBIT / Interest Expense",
		Inputs:  []Input{{"EBIT", inc.OperatingIncome}, {"Interest Expense", inc.InterestExpense}},
	}
}

// ════════════════════════════════════════════════════════════════════
// Profitability
// ════════════════════════════════════════════════════════════════════

// ROE = net income / average equity × 100.
func (c *Calculator) ROE() Value {
	cur, prev := c.year(0), c.year(1)
	avgEquity := average(cur.Balance.ShareholdersEquity, prev.Balance.ShareholdersEquity)
	return Value{
		Name:    scoring.MetricROE,
		Raw:     ratio(cur.Income.NetIncome, avgEquity) * 100,
		Formula: "Net Income / Average Equity × 100",
		Inputs:  []Input{{"Net Income", cur.Income.NetIncome}, {"Average Equity", avgEquity}},
	}
}

// ROIC = NOPAT / invested capital × 100, where NOPAT = EBIT × (1 − tax rate)
// and invested capital = equity + debt − cash.
func (c *Calculator) ROIC() Value {
	fy := c.year(0)
	taxRate := ratio(fy.Income.IncomeTaxExpense, fy.Income.PretaxIncome)
	nopat := fy.Income.OperatingIncome * (1 - taxRate)
	invested := fy.Balance.ShareholdersEquity + fy.Balance.TotalDebt - fy.Balance.CashAndEquivalents
	return Value{
		Name:    scoring.MetricROIC,
		Raw:     ratio(nopat, invested) * 100,
		Formula: "NOPAT / (Equity + Debt − Cash) × 100",
		Inputs:  []Input{{"NOPAT", nopat}, {"Tax Rate", taxRate}, {"Invested Capital", invested}},
	}
}

// NetProfitMargin = net income / revenue × 100.
func (c *Calculator) NetProfitMargin() Value {
	inc := c.year(0).Income
	return Value{
		Name:    scoring.MetricNetProfitMargin,
		Raw:     ratio(inc.NetIncome, inc.TotalRevenue) * 100,
		Formula: "Net Income / Revenue × 100",
		Inputs:  []Input{{"Net Income", inc.NetIncome}, {"Revenue", inc.TotalRevenue}},
	}
}

// ════════════════════════════════════════════════════════════════════
// Growth
// ════════════════════════════════════════════════════════════════════

// RevenueGrowth3Y averages the three year-over-year revenue growth rates.
func (c *Calculator) RevenueGrowth3Y() Value {
	series := make([]float64, 4)
	inputs := make([]Input, 4)
	for i := range series {
		fy := c.year(i)
		series[i] = fy.Income.TotalRevenue
		inputs[i] = Input{"Revenue " + fy.Label, series[i]}
	}
	return Value{
		Name:    scoring.MetricRevenueGrowth3Y,
		Raw:     averageYoY(series),
		Formula: "Mean of YoY revenue growth over 3 years",
		Inputs:  inputs,
	}
}

// EPSGrowth3Y averages the three year-over-year EPS growth rates.
func (c *Calculator) EPSGrowth3Y() Value {
	series := make([]float64, 4)
	inputs := make([]Input, 4)
	for i := range series {
		fy := c.year(i)
		series[i] = fy.PerShare.EPS
		inputs[i] = Input{"EPS " + fy.Label, series[i]}
	}
	return Value{
		Name:    scoring.MetricEPSGrowth3Y,
		Raw:     averageYoY(series),
		Formula: "Mean of YoY EPS growth over 3 years",
		Inputs:  inputs,
	}
}

// FCFGrowth = (FCF − prior FCF) / prior FCF × 100.
func (c *Calculator) FCFGrowth() Value {
	cur, prev := c.year(0).Cash.FreeCashFlow, c.year(1).Cash.FreeCashFlow
	return Value{
		Name:    scoring.MetricFCFGrowth,
		Raw:     yoy(cur, prev),
		Formula: "(FCF − Prior FCF) / Prior FCF × 100",
		Inputs:  []Input{{"FCF", cur}, {"Prior FCF", prev}},
	}
}

// ════════════════════════════════════════════════════════════════════
// Valuation
// ════════════════════════════════════════════════════════════════════

// PERatio = current price / EPS.
func (c *Calculator) PERatio() Value {
	price := c.Snapshot.Company.CurrentPrice
	eps := c.year(0).PerShare.EPS
	return Value{
		Name:    scoring.MetricPERatio,
		Raw:     ratio(price, eps),
		Formula: "Price / EPS",
		Inputs:  []Input{{"Price", price}, {"EPS", eps}},
	}
}

// PBRatio = current price / book value per share.
func (c *Calculator) PBRatio() Value {
	price := c.Snapshot.Company.CurrentPrice
	bvps := c.year(0).PerShare.BookValue()
	return Value{
		Name:    scoring.MetricPBRatio,
		Raw:     ratio(price, bvps),
		Formula: "Price / Book Value per Share",
		Inputs:  []Input{{"Price", price}, {"Book Value per Share", bvps}},
	}
}

// PEGRatio = P/E / 3-year EPS growth; +Inf when growth is not positive.
func (c *Calculator) PEGRatio() Value {
	return pegRatio(c.PERatio(), c.EPSGrowth3Y())
}

func pegRatio(pe, growth Value) Value {
	raw := math.Inf(1)
	if growth.Raw > 0 {
		raw = pe.Raw / growth.Raw
	}
	return Value{
		Name:    scoring.MetricPEGRatio,
		Raw:     raw,
		Formula: "P/E / EPS Growth (3Y)",
		Inputs:  []Input{{"P/E", pe.Raw}, {"EPS Growth", growth.Raw}},
	}
}

// ════════════════════════════════════════════════════════════════════
// Efficiency
// ════════════════════════════════════════════════════════════════════

// AssetTurnover = revenue / average total assets.
func (c *Calculator) AssetTurnover() Value {
	cur, prev := c.year(0), c.year(1)
	avgAssets := average(cur.Balance.TotalAssets, prev.Balance.TotalAssets)
	return Value{
		Name:    scoring.MetricAssetTurnover,
		Raw:     ratio(cur.Income.TotalRevenue, avgAssets),
		Formula: "Revenue / Average Total Assets",
		Inputs:  []Input{{"Revenue", cur.Income.TotalRevenue}, {"Average Total Assets", avgAssets}},
	}
}

// InventoryTurnover = cost of revenue / average inventory; +Inf for
// companies that carry no inventory.
func (c *Calculator) InventoryTurnover() Value {
	cur, prev := c.year(0), c.year(1)
	avgInv := average(cur.Balance.Inventory, prev.Balance.Inventory)
	raw := math.Inf(1)
	if avgInv != 0 {
		raw = cur.Income.CostOfRevenue / avgInv
	}
	return Value{
		Name:    scoring.MetricInventoryTurnover,
		Raw:     raw,
		Formula: "COGS / Average Inventory",
		Inputs:  []Input{{"COGS", cur.Income.CostOfRevenue}, {"Average Inventory", avgInv}},
	}
}

// --- helpers ---

// ratio divides, returning 0 (missing) for a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// saturatingRatio divides, returning +Inf when a positive numerator meets a
// zero denominator.
func saturatingRatio(num, den float64) float64 {
	if den == 0 {
		if num > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return num / den
}

// average is the two-year mean of a balance-sheet figure. A zero figure is
// an absent year or a blank cell, so the other year stands alone.
func average(cur, prev float64) float64 {
	switch {
	case prev == 0:
		return cur
	case cur == 0:
		return prev
	}
	return (cur + prev) / 2
}

// yoy is the growth from prev to cur in percent, 0 (missing) when either
// figure is zero.
func yoy(cur, prev float64) float64 {
	if cur == 0 || prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// averageYoY averages the growth rates of a newest-first series. Terms with
// a zero endpoint are skipped; an absent fiscal year reads back as zero.
func averageYoY(series []float64) float64 {
	sum, n := 0.0, 0
	for i := 0; i+1 < len(series); i++ {
		if series[i] == 0 || series[i+1] == 0 {
			continue
		}
		sum += (series[i] - series[i+1]) / series[i+1] * 100
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
