package datasource

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(1 * time.Second)

	c.Set("key1", "value1")
	v, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if v != "value1" {
		t.Fatalf("got %v, want value1", v)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(1 * time.Millisecond)
	c.Set("key", "val")

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("key"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestCacheInvalidateAndFlush(t *testing.T) {
	c := NewCache(1 * time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected cache miss after invalidation")
	}
	c.Flush()
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected all entries flushed")
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.json", FormatJSON},
		{"a.YAML", FormatYAML},
		{"a.yml", FormatYAML},
		{"dir/a.csv", FormatCSV},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if err != nil || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
		}
	}
	if _, err := FormatOf("a.xlsx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("xlsx: expected ErrUnsupportedFormat, got %v", err)
	}
}

// ── Snapshot Tests ──

func TestLoadSnapshotJSON(t *testing.T) {
	snap, err := LoadSnapshot("testdata/ETERNAL.json")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Company.Name != "Eternal Ltd" {
		t.Errorf("name: got %q", snap.Company.Name)
	}
	if got := snap.Year(2024).Income.NetIncome; got != 2362 {
		t.Errorf("net income: got %f, want 2362", got)
	}
	if got := snap.Year(2022).PerShare.BookValue(); got != 26.3 {
		t.Errorf("bvps fallback: got %f, want 26.3", got)
	}
}

func TestLoadSnapshotYAMLCanonicalYears(t *testing.T) {
	snap, err := LoadSnapshot("testdata/tcs.yaml")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !snap.HasYear(2024) {
		t.Fatal("FY2024 keys should be rewritten to fy_2024")
	}
	if got := snap.Year(2021).PerShare.EPS; got != 86.7 {
		t.Errorf("eps fy_2021: got %f", got)
	}
	if snap.CashFlow != nil {
		t.Error("absent cash_flow should stay nil")
	}
}

func TestDecodeSnapshotInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"company_info": {"symbol": "X"}, "balance_sheet": {}, "income_statement": {}, "per_share_data": {}}`},
		{"missing statements", `{"company_info": {"symbol": "X", "company_name": "X Ltd"}}`},
		{"bad label", `{"company_info": {"symbol": "X", "company_name": "X Ltd"}, "balance_sheet": {"last_year": {}}, "income_statement": {}, "per_share_data": {}}`},
		{"negative price", `{"company_info": {"symbol": "X", "company_name": "X Ltd", "current_price": -1}, "balance_sheet": {}, "income_statement": {}, "per_share_data": {}}`},
	}
	for _, tt := range tests {
		_, err := DecodeSnapshot(strings.NewReader(tt.doc), FormatJSON)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("%s: expected ErrInvalidSnapshot, got %v", tt.name, err)
		}
	}
}

func TestLoadSnapshotRejectsCSV(t *testing.T) {
	if _, err := LoadSnapshot("testdata/companies.csv"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// ── Price Tests ──

func TestLoadPricesACEColumns(t *testing.T) {
	bars, err := LoadPrices("testdata/ETERNAL_prices.csv")
	if err != nil {
		t.Fatalf("LoadPrices: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Date.Day() != 1 || bars[2].Date.Day() != 3 {
		t.Error("bars should be sorted by date")
	}
	if bars[2].Volume != 45120 {
		t.Errorf("volume with separators: got %f", bars[2].Volume)
	}
	if bars[0].Close != 123.6 || bars[0].PriceToBook != 3.32 {
		t.Errorf("bar 0: got %+v", bars[0])
	}
	if !math.IsNaN(bars[1].Volume) || !math.IsNaN(bars[1].Trades) || !math.IsNaN(bars[1].ValueTraded) {
		t.Error("empty cells should be NaN")
	}
}

func TestReadPricesPlainColumns(t *testing.T) {
	csv := "Date,Close,Volume\n2024-04-01,100,10\n2024-04-02,101,\n"
	bars, err := ReadPrices(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadPrices: %v", err)
	}
	if len(bars) != 2 || bars[1].Close != 101 {
		t.Fatalf("got %+v", bars)
	}
	if !math.IsNaN(bars[0].Open) || !math.IsNaN(bars[0].MarketCap) {
		t.Error("absent columns should be NaN")
	}
}

func TestReadPricesErrors(t *testing.T) {
	_, err := ReadPrices(strings.NewReader("Date,Open\n2024-01-01,1\n"))
	var mc *MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "close" {
		t.Errorf("expected missing close column, got %v", err)
	}
	if !errors.Is(err, ErrMissingColumn) {
		t.Error("MissingColumnError should wrap ErrMissingColumn")
	}

	if _, err := ReadPrices(strings.NewReader("Date,Close\nyesterday,1\n")); err == nil {
		t.Error("expected date parse error")
	}
	if _, err := ReadPrices(strings.NewReader("Date,Close\n2024-01-01,\n")); err == nil {
		t.Error("expected error for empty close")
	}
}

// ── Company CSV Tests ──

func TestLoadCompanies(t *testing.T) {
	snaps, skipped, err := LoadCompanies("testdata/companies.csv", nil)
	if err != nil {
		t.Fatalf("LoadCompanies: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(snaps))
	}
	if len(skipped) != 1 || skipped[0].Line != 4 {
		t.Fatalf("expected line 4 skipped, got %+v", skipped)
	}

	titan := snaps[1]
	if titan.Company.Industry != "N/A" {
		t.Errorf("empty industry should be N/A, got %q", titan.Company.Industry)
	}
	fy24 := titan.Year(2024)
	if fy24.Balance.Inventory != 17290 || fy24.Income.InterestExpense != 820 || fy24.Cash.FreeCashFlow != -1600 {
		t.Errorf("fy24 statements: %+v", fy24)
	}
	if got := titan.Year(2021).Income.NetIncome; got != 973 {
		t.Errorf("fy21 net income: got %f", got)
	}
	if !titan.HasYear(2021) {
		t.Error("every year in the header should be present")
	}
}

func TestReadCompaniesMissingColumns(t *testing.T) {
	_, _, err := ReadCompanies(strings.NewReader("Symbol,Company Name,Current Price,Market Cap,Revenue FY24\n"), nil)
	var mc *MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "Net Profit FY24" {
		t.Errorf("expected Net Profit FY24 missing, got %v", err)
	}

	_, _, err = ReadCompanies(strings.NewReader("Symbol,Current Price,Market Cap\n"), nil)
	if !errors.As(err, &mc) || mc.Column != "Company Name" {
		t.Errorf("expected Company Name missing, got %v", err)
	}
}

func TestSplitYearColumn(t *testing.T) {
	prefix, year, ok := splitYearColumn("Total Assets FY24")
	if !ok || prefix != "Total Assets" || year != 2024 {
		t.Errorf("got %q %d %v", prefix, year, ok)
	}
	if _, year, _ := splitYearColumn("EPS FY2019"); year != 2019 {
		t.Errorf("4-digit year: got %d", year)
	}
	if _, _, ok := splitYearColumn("Market Cap"); ok {
		t.Error("non-year column should not split")
	}
}

// ── Dir Source Tests ──

func TestDirSource(t *testing.T) {
	d, err := NewDir("testdata", time.Minute, nil)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	ctx := context.Background()

	snap, err := d.Snapshot(ctx, "NSE:ZOMATO")
	if err != nil {
		t.Fatalf("Snapshot via alias: %v", err)
	}
	again, _ := d.Snapshot(ctx, "ETERNAL")
	if snap != again {
		t.Error("second load should come from cache")
	}

	if _, err := d.Snapshot(ctx, "tcs"); err != nil {
		t.Errorf("lower-case yaml lookup: %v", err)
	}

	bars, err := d.Prices(ctx, "ETERNAL")
	if err != nil || len(bars) != 3 {
		t.Fatalf("Prices: %v (%d bars)", err, len(bars))
	}

	if _, err := d.Snapshot(ctx, "INFY"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := d.Prices(cancelled, "ETERNAL"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewDirNotADirectory(t *testing.T) {
	if _, err := NewDir("testdata/ETERNAL.json", 0, nil); err == nil {
		t.Error("expected error for a file path")
	}
}

