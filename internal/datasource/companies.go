package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/seenimoa/equiscore/pkg/logger"
	"github.com/seenimoa/equiscore/pkg/models"
)

// Company columns of the wide bulk CSV.
const (
	colSymbol       = "Symbol"
	colCompanyName  = "Company Name"
	colSector       = "Sector"
	colIndustry     = "Industry"
	colCurrentPrice = "Current Price"
	colMarketCap    = "Market Cap"
)

// yearFields maps the prefix of a "<Field> FY<yy>" column to the statement
// field it fills.
var yearFields = map[string]func(*models.FiscalYear, float64){
	"Total Assets":        func(fy *models.FiscalYear, v float64) { fy.Balance.TotalAssets = v },
	"Current Assets":      func(fy *models.FiscalYear, v float64) { fy.Balance.CurrentAssets = v },
	"Cash":                func(fy *models.FiscalYear, v float64) { fy.Balance.CashAndEquivalents = v },
	"Inventory":           func(fy *models.FiscalYear, v float64) { fy.Balance.Inventory = v },
	"Current Liabilities": func(fy *models.FiscalYear, v float64) { fy.Balance.CurrentLiabilities = v },
	"Total Debt":          func(fy *models.FiscalYear, v float64) { fy.Balance.TotalDebt = v },
	"Equity":              func(fy *models.FiscalYear, v float64) { fy.Balance.ShareholdersEquity = v },
	"Revenue":             func(fy *models.FiscalYear, v float64) { fy.Income.TotalRevenue = v },
	"COGS":                func(fy *models.FiscalYear, v float64) { fy.Income.CostOfRevenue = v },
	"EBIT":                func(fy *models.FiscalYear, v float64) { fy.Income.OperatingIncome = v },
	"Interest":            func(fy *models.FiscalYear, v float64) { fy.Income.InterestExpense = v },
	"PBT":                 func(fy *models.FiscalYear, v float64) { fy.Income.PretaxIncome = v },
	"Tax":                 func(fy *models.FiscalYear, v float64) { fy.Income.IncomeTaxExpense = v },
	"Net Profit":          func(fy *models.FiscalYear, v float64) { fy.Income.NetIncome = v },
	"OCF":                 func(fy *models.FiscalYear, v float64) { fy.Cash.OperatingCashFlow = v },
	"CapEx":               func(fy *models.FiscalYear, v float64) { fy.Cash.CapitalExpenditure = v },
	"FCF":                 func(fy *models.FiscalYear, v float64) { fy.Cash.FreeCashFlow = v },
	"EPS":                 func(fy *models.FiscalYear, v float64) { fy.PerShare.EPS = v },
	"BVPS":                func(fy *models.FiscalYear, v float64) { fy.PerShare.BookValuePerShare = v },
}

// requiredLatest are the columns that must exist for the latest fiscal year.
var requiredLatest = []string{"Revenue", "Net Profit", "Total Assets", "Equity", "EPS"}

// RowError records a bulk CSV row that could not be loaded.
type RowError struct {
	Line   int
	Symbol string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Symbol, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type yearColumn struct {
	index int
	year  int
	set   func(*models.FiscalYear, float64)
}

// LoadCompanies reads the wide bulk CSV. Rows that fail to parse or validate
// are skipped and returned as RowErrors; the error return is reserved for
// file-level problems.
func LoadCompanies(path string, log *logger.Logger) ([]models.Snapshot, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening companies: %w", err)
	}
	defer f.Close()

	snaps, skipped, err := ReadCompanies(f, log)
	if err != nil {
		var mc *MissingColumnError
		if errors.As(err, &mc) {
			mc.File = path
			return nil, nil, mc
		}
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return snaps, skipped, nil
}

// ReadCompanies parses wide bulk CSV rows from r.
func ReadCompanies(r io.Reader, log *logger.Logger) ([]models.Snapshot, []RowError, error) {
	if log == nil {
		log = logger.Nop()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	company := map[string]int{}
	var years []yearColumn
	present := map[string]bool{}
	latest := 0
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if prefix, year, ok := splitYearColumn(h); ok {
			if set, known := yearFields[prefix]; known {
				years = append(years, yearColumn{index: i, year: year, set: set})
				present[fmt.Sprintf("%s/%d", prefix, year)] = true
				latest = max(latest, year)
				continue
			}
		}
		company[h] = i
	}

	for _, c := range []string{colSymbol, colCompanyName, colCurrentPrice, colMarketCap} {
		if _, ok := company[c]; !ok {
			return nil, nil, &MissingColumnError{Column: c}
		}
	}
	if latest == 0 {
		return nil, nil, &MissingColumnError{Column: "<Field> FY<yy>"}
	}
	for _, prefix := range requiredLatest {
		if !present[fmt.Sprintf("%s/%d", prefix, latest)] {
			return nil, nil, &MissingColumnError{Column: fmt.Sprintf("%s FY%02d", prefix, latest%100)}
		}
	}

	var snaps []models.Snapshot
	var skipped []RowError
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}

		symbol := cell(rec, company, colSymbol)
		snap, err := parseCompanyRow(rec, company, years)
		if err == nil {
			err = ValidateSnapshot(snap)
		}
		if err != nil {
			re := RowError{Line: line, Symbol: symbol, Err: err}
			log.WithFields(map[string]any{"line": line, "symbol": symbol}).WithError(err).Warn("skipping company row")
			skipped = append(skipped, re)
			continue
		}
		snaps = append(snaps, *snap)
	}

	log.WithFields(map[string]any{"rows": len(snaps), "skipped": len(skipped)}).Debug("companies loaded")
	return snaps, skipped, nil
}

func parseCompanyRow(rec []string, company map[string]int, years []yearColumn) (*models.Snapshot, error) {
	num := func(col string) (float64, error) {
		v, err := parseNumber(cell(rec, company, col))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", col, err)
		}
		if math.IsNaN(v) {
			return 0, nil
		}
		return v, nil
	}

	price, err := num(colCurrentPrice)
	if err != nil {
		return nil, err
	}
	mcap, err := num(colMarketCap)
	if err != nil {
		return nil, err
	}
	snap := &models.Snapshot{
		Company: models.Company{
			Symbol:       cell(rec, company, colSymbol),
			Name:         cell(rec, company, colCompanyName),
			Sector:       orNA(cell(rec, company, colSector)),
			Industry:     orNA(cell(rec, company, colIndustry)),
			CurrentPrice: price,
			MarketCap:    mcap,
		},
		BalanceSheet:    map[string]models.BalanceSheet{},
		IncomeStatement: map[string]models.IncomeStatement{},
		CashFlow:        map[string]models.CashFlow{},
		PerShare:        map[string]models.PerShare{},
	}

	fys := map[int]*models.FiscalYear{}
	for _, yc := range years {
		fy, ok := fys[yc.year]
		if !ok {
			fy = &models.FiscalYear{Label: models.FiscalYearLabel(yc.year)}
			fys[yc.year] = fy
		}
		v, err := parseNumber(at(rec, yc.index))
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", yc.index+1, err)
		}
		if math.IsNaN(v) {
			v = 0
		}
		yc.set(fy, v)
	}
	for _, fy := range fys {
		snap.BalanceSheet[fy.Label] = fy.Balance
		snap.IncomeStatement[fy.Label] = fy.Income
		snap.CashFlow[fy.Label] = fy.Cash
		snap.PerShare[fy.Label] = fy.PerShare
	}
	return snap, nil
}

// splitYearColumn splits "Revenue FY24" into ("Revenue", 2024).
func splitYearColumn(h string) (string, int, bool) {
	i := strings.LastIndex(h, " FY")
	if i <= 0 {
		return "", 0, false
	}
	yy, err := strconv.Atoi(h[i+3:])
	if err != nil || yy < 0 {
		return "", 0, false
	}
	if yy < 100 {
		yy += 2000
	}
	return h[:i], yy, true
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
