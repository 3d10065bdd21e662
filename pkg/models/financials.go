package models

import (
	"fmt"
	"strconv"
	"strings"
)

// IncomeStatement represents a single fiscal-year income statement (₹ Cr).
// Fields absent from the source are zero.
type IncomeStatement struct {
	TotalRevenue      float64 `json:"total_revenue"      yaml:"total_revenue"`
	CostOfRevenue     float64 `json:"cost_of_revenue"    yaml:"cost_of_revenue"`
	GrossProfit       float64 `json:"gross_profit"       yaml:"gross_profit"`
	OperatingExpenses float64 `json:"operating_expenses" yaml:"operating_expenses"`
	OperatingIncome   float64 `json:"operating_income"   yaml:"operating_income"` // EBIT
	InterestExpense   float64 `json:"interest_expense"   yaml:"interest_expense"`
	OtherIncome       float64 `json:"other_income"       yaml:"other_income"`
	PretaxIncome      float64 `json:"pretax_income"      yaml:"pretax_income"`
	IncomeTaxExpense  float64 `json:"income_tax_expense" yaml:"income_tax_expense"`
	NetIncome         float64 `json:"net_income"         yaml:"net_income"`
}

// BalanceSheet represents a single fiscal-year balance sheet (₹ Cr).
type BalanceSheet struct {
	TotalAssets        float64 `json:"total_assets"         yaml:"total_assets"`
	CurrentAssets      float64 `json:"current_assets"       yaml:"current_assets"`
	CashAndEquivalents float64 `json:"cash_and_equivalents" yaml:"cash_and_equivalents"`
	AccountsReceivable float64 `json:"accounts_receivable"  yaml:"accounts_receivable"`
	Inventory          float64 `json:"inventory"            yaml:"inventory"`
	CurrentLiabilities float64 `json:"current_liabilities"  yaml:"current_liabilities"`
	AccountsPayable    float64 `json:"accounts_payable"     yaml:"accounts_payable"`
	ShortTermDebt      float64 `json:"short_term_debt"      yaml:"short_term_debt"`
	LongTermDebt       float64 `json:"long_term_debt"       yaml:"long_term_debt"`
	TotalDebt          float64 `json:"total_debt"           yaml:"total_debt"`
	TotalLiabilities   float64 `json:"total_liabilities"    yaml:"total_liabilities"`
	ShareholdersEquity float64 `json:"shareholders_equity"  yaml:"shareholders_equity"`
	CommonStock        float64 `json:"common_stock"         yaml:"common_stock"`
	RetainedEarnings   float64 `json:"retained_earnings"    yaml:"retained_earnings"`
}

// CashFlow represents a single fiscal-year cash flow statement (₹ Cr).
type CashFlow struct {
	OperatingCashFlow   float64 `json:"operating_cash_flow"  yaml:"operating_cash_flow"`
	CapitalExpenditure  float64 `json:"capital_expenditure"  yaml:"capital_expenditure"`
	FreeCashFlow        float64 `json:"free_cash_flow"       yaml:"free_cash_flow"`
	FinancingActivities float64 `json:"financing_activities" yaml:"financing_activities"`
	InvestingActivities float64 `json:"investing_activities" yaml:"investing_activities"`
}

// PerShare holds per-share data for a fiscal year (₹).
type PerShare struct {
	EPS               float64 `json:"eps"                  yaml:"eps"`
	BookValuePerShare float64 `json:"book_value_per_share" yaml:"book_value_per_share"`
	BVPS              float64 `json:"bvps,omitempty"       yaml:"bvps,omitempty"`
	DividendPerShare  float64 `json:"dividend_per_share"   yaml:"dividend_per_share"`
}

// BookValue returns the book value per share, falling back to the bvps alias.
func (p PerShare) BookValue() float64 {
	if p.BookValuePerShare != 0 {
		return p.BookValuePerShare
	}
	return p.BVPS
}

// Snapshot is a company's financial statements keyed by fiscal-year label
// ("fy_2024"). It is the input of one scoring run.
type Snapshot struct {
	Company         Company                    `json:"company_info"     yaml:"company_info"     validate:"required"`
	BalanceSheet    map[string]BalanceSheet    `json:"balance_sheet"    yaml:"balance_sheet"    validate:"required"`
	IncomeStatement map[string]IncomeStatement `json:"income_statement" yaml:"income_statement" validate:"required"`
	CashFlow        map[string]CashFlow        `json:"cash_flow"        yaml:"cash_flow"`
	PerShare        map[string]PerShare        `json:"per_share_data"   yaml:"per_share_data"   validate:"required"`
}

// FiscalYear bundles the statements of a single year.
type FiscalYear struct {
	Label    string
	Balance  BalanceSheet
	Income   IncomeStatement
	Cash     CashFlow
	PerShare PerShare
}

// Year returns the statements for the given fiscal year. Missing statements
// are zero-valued.
func (s *Snapshot) Year(year int) FiscalYear {
	label := FiscalYearLabel(year)
	return FiscalYear{
		Label:    label,
		Balance:  s.BalanceSheet[label],
		Income:   s.IncomeStatement[label],
		Cash:     s.CashFlow[label],
		PerShare: s.PerShare[label],
	}
}

// HasYear reports whether the balance sheet, income statement and per-share
// data all carry the given fiscal year.
func (s *Snapshot) HasYear(year int) bool {
	label := FiscalYearLabel(year)
	_, bs := s.BalanceSheet[label]
	_, is := s.IncomeStatement[label]
	_, ps := s.PerShare[label]
	return bs && is && ps
}

// LatestYear returns the most recent fiscal year present in the income
// statement map, or 0 if none parse.
func (s *Snapshot) LatestYear() int {
	latest := 0
	for label := range s.IncomeStatement {
		if y, err := ParseFiscalYear(label); err == nil && y > latest {
			latest = y
		}
	}
	return latest
}

// FiscalYearLabel formats a fiscal year as its map key, e.g. 2024 → "fy_2024".
func FiscalYearLabel(year int) string {
	return fmt.Sprintf("fy_%d", year)
}

// ParseFiscalYear parses a label such as "fy_2024" or "FY2024".
func ParseFiscalYear(label string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimPrefix(s, "fy")
	s = strings.TrimPrefix(s, "_")
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid fiscal year label %q", label)
	}
	return y, nil
}
