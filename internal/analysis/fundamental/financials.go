package fundamental

import (
	"fmt"
	"strings"

	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// QualityScore is a simplified Piotroski F-score comparing the base year
// with the year before it.
type QualityScore struct {
	Score  int      `json:"score"`  // 0-9
	Max    int      `json:"max"`    // number of checks that could be evaluated
	Checks []string `json:"checks"` // descriptions of each check passed/failed
}

// Quality runs the F-score checks for the calculator's base year.
func (c *Calculator) Quality() QualityScore {
	cur, prev := c.year(0), c.year(1)
	qs := QualityScore{}

	check := func(ok bool, pass, fail string) {
		qs.Max++
		if ok {
			qs.Score++
			qs.Checks = append(qs.Checks, "✓ "+pass)
		} else {
			qs.Checks = append(qs.Checks, "✗ "+fail)
		}
	}

	_, hasCash := c.Snapshot.CashFlow[cur.Label]

	check(cur.Income.NetIncome > 0, "Positive net income", "Negative net income")
	if hasCash {
		check(cur.Cash.OperatingCashFlow > 0, "Positive operating cash flow", "Negative operating cash flow")
	}

	if cur.Balance.TotalAssets > 0 && prev.Balance.TotalAssets > 0 {
		check(cur.Income.NetIncome/cur.Balance.TotalAssets > prev.Income.NetIncome/prev.Balance.TotalAssets,
			"Improving ROA", "Declining ROA")
	}

	if hasCash {
		check(cur.Cash.OperatingCashFlow > cur.Income.NetIncome,
			"Cash flow > Net income (quality earnings)", "Cash flow < Net income")
	}

	if cur.Balance.ShareholdersEquity > 0 && prev.Balance.ShareholdersEquity > 0 {
		check(cur.Balance.TotalDebt/cur.Balance.ShareholdersEquity < prev.Balance.TotalDebt/prev.Balance.ShareholdersEquity,
			"Declining leverage", "Increasing leverage")
	}

	if cur.Balance.CurrentLiabilities > 0 && prev.Balance.CurrentLiabilities > 0 {
		check(cur.Balance.CurrentAssets/cur.Balance.CurrentLiabilities > prev.Balance.CurrentAssets/prev.Balance.CurrentLiabilities,
			"Improving current ratio", "Declining current ratio")
	}

	if cur.Balance.CommonStock > 0 && prev.Balance.CommonStock > 0 {
		check(cur.Balance.CommonStock <= prev.Balance.CommonStock, "No equity dilution", "Equity diluted")
	}

	if cur.Income.TotalRevenue > 0 && prev.Income.TotalRevenue > 0 {
		check(cur.Income.OperatingIncome/cur.Income.TotalRevenue > prev.Income.OperatingIncome/prev.Income.TotalRevenue,
			"Improving operating margin", "Declining operating margin")
	}

	if cur.Balance.TotalAssets > 0 && prev.Balance.TotalAssets > 0 {
		check(cur.Income.TotalRevenue/cur.Balance.TotalAssets > prev.Income.TotalRevenue/prev.Balance.TotalAssets,
			"Improving asset turnover", "Declining asset turnover")
	}

	return qs
}

// Summary renders the raw metrics as a readable block grouped by category.
func Summary(company models.Company, m Metrics, reg *scoring.Registry) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s (%s) FY%d\n", company.Name, company.Symbol, m.Year))
	b.WriteString(fmt.Sprintf("Price: %s | Market Cap: %s\n",
		utils.FormatRupees(company.CurrentPrice), utils.FormatCrores(company.MarketCap)))

	for _, cat := range scoring.Categories {
		defs := reg.InCategory(cat)
		if len(defs) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s (%.0f%%)\n", cat, reg.CategoryWeight(cat)*100))
		for _, d := range defs {
			b.WriteString(fmt.Sprintf("  %-34s %12s  (weight %.0f%%)\n", d.Label, FormatValue(d, m.Get(d.Name)), d.Weight*100))
		}
	}
	return b.String()
}

// FormatValue renders a raw metric with its unit; infinite values are "N/A".
func FormatValue(d scoring.MetricDefinition, v float64) string {
	s := utils.FormatRatio(v, 2)
	if s == utils.NotAvailable {
		return s
	}
	return s + d.Unit
}
