package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/internal/analysis/market"
	"github.com/seenimoa/equiscore/internal/analysis/patterns"
	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/internal/analysis/technical"
	"github.com/seenimoa/equiscore/internal/bulk"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

var generated = time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)

func sampleSnapshot(symbol, sector string, margin float64) models.Snapshot {
	revenue := 10000.0
	net := revenue * margin
	return models.Snapshot{
		Company: models.Company{
			Symbol: symbol, Name: symbol + " Ltd", Sector: sector,
			CurrentPrice: 500, MarketCap: 50000,
		},
		BalanceSheet: map[string]models.BalanceSheet{
			"fy_2024": {TotalAssets: 20000, CurrentAssets: 9000, CashAndEquivalents: 2000, CurrentLiabilities: 4000, TotalDebt: 3000, ShareholdersEquity: 12000},
			"fy_2023": {TotalAssets: 18000, CurrentAssets: 8000, CashAndEquivalents: 1500, CurrentLiabilities: 3800, TotalDebt: 3200, ShareholdersEquity: 11000},
		},
		IncomeStatement: map[string]models.IncomeStatement{
			"fy_2024": {TotalRevenue: revenue, CostOfRevenue: 6000, OperatingIncome: net * 1.4, InterestExpense: 200, PretaxIncome: net * 1.3, IncomeTaxExpense: net * 0.3, NetIncome: net},
			"fy_2023": {TotalRevenue: revenue * 0.9, CostOfRevenue: 5600, OperatingIncome: net, InterestExpense: 210, PretaxIncome: net, IncomeTaxExpense: net * 0.25, NetIncome: net * 0.8},
		},
		PerShare: map[string]models.PerShare{
			"fy_2024": {EPS: net / 100, BookValuePerShare: 120},
			"fy_2023": {EPS: net * 0.8 / 100, BookValuePerShare: 110},
		},
	}
}

func sampleCard(t *testing.T) *fundamental.Scorecard {
	t.Helper()
	snap := sampleSnapshot("INFY", "IT", 0.2)
	card, err := fundamental.Analyze(&snap, 0, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return card
}

func sampleRanking(t *testing.T) *bulk.Ranking {
	t.Helper()
	snaps := []models.Snapshot{
		sampleSnapshot("HIGHCO", "IT", 0.25),
		sampleSnapshot("LOWCO", "Energy", 0.02),
		{Company: models.Company{Symbol: "EMPTY", Name: "Empty Ltd"}},
	}
	r, err := bulk.New(bulk.Options{Workers: 2}).Run(context.Background(), snaps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return r
}

func sampleBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		open := 100 + float64(i)*0.5
		close := open + float64(i%5) - 2
		bars[i] = models.Bar{
			Date:        start.AddDate(0, 0, i),
			Open:        open,
			High:        math.Max(open, close) + 1,
			Low:         math.Min(open, close) - 1,
			Close:       close,
			Volume:      float64(100000 + i*500),
			MarketCap:   1e10 + float64(i)*1e7,
			Trades:      float64(2000 + i),
			PriceToBook: 3 + float64(i%10)/10,
		}
	}
	return bars
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	return rows
}

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TXT", FormatText},
		{"md", FormatMarkdown},
		{" html ", FormatHTML},
		{"json", FormatJSON},
		{"csv", FormatCSV},
		{"pq", FormatParquet},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if len(Formats()) != 6 {
		t.Errorf("expected 6 formats, got %d", len(Formats()))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1.5m"},
		{3 * time.Hour, "3.0h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestLineChart(t *testing.T) {
	svg := LineChart([]Series{
		{Name: "Close", Values: []float64{1, 2, math.NaN(), 4}},
		{Name: "SMA <5>", Values: []float64{math.NaN(), 1.5, 2.5, 3.5}},
	}, []string{"a", "b", "c", "d"}, ChartConfig{Title: "Prices"})

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete SVG document")
	}
	if !strings.Contains(svg, "Prices") {
		t.Error("title missing")
	}
	if !strings.Contains(svg, "SMA &lt;5&gt;") {
		t.Error("legend names should be escaped")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("NaN leaked into SVG coordinates")
	}
}

func TestLineChartEmpty(t *testing.T) {
	if svg := LineChart(nil, nil, ChartConfig{}); !strings.Contains(svg, "No data") {
		t.Error("expected placeholder for no series")
	}
	svg := LineChart([]Series{{Name: "x", Values: []float64{math.NaN()}}}, nil, ChartConfig{})
	if !strings.Contains(svg, "No data points") {
		t.Error("expected placeholder for all-NaN series")
	}
}

func TestGaugeChart(t *testing.T) {
	svg := GaugeChart(150, "Score", 0)
	if !strings.Contains(svg, ">100.0<") {
		t.Error("gauge value should clamp to 100")
	}
	if !strings.Contains(svg, `width="200"`) {
		t.Error("zero width should default to 200")
	}
}

func TestHorizontalBarChartNegative(t *testing.T) {
	svg := HorizontalBarChart([]BarItem{{Label: "up", Value: 3}, {Label: "down", Value: -2}}, ChartConfig{})
	if !strings.Contains(svg, "#ef5350") {
		t.Error("negative bar should be red")
	}
	if !strings.Contains(svg, `stroke="#999"`) {
		t.Error("expected zero line for negative values")
	}
}

func TestScoreCharts(t *testing.T) {
	card := sampleCard(t)
	for name, svg := range map[string]string{
		"metric":   MetricScoreChart(card.Result, ChartConfig{}),
		"category": CategoryChart(card.Result, ChartConfig{}),
	} {
		if !strings.HasSuffix(svg, "</svg>") {
			t.Errorf("%s chart incomplete", name)
		}
		if strings.Count(svg, "<rect") < 2 {
			t.Errorf("%s chart has no bars", name)
		}
	}
	if svg := MetricScoreChart(nil, ChartConfig{}); !strings.Contains(svg, "No scores") {
		t.Error("nil result should render a placeholder")
	}
}

func TestPriceAndValuationCharts(t *testing.T) {
	bars := sampleBars(60)
	ma := map[int][]float64{20: technical.SMA(models.Closes(bars), 20)}
	if svg := PriceChart(bars, ma, ChartConfig{}); !strings.Contains(svg, "SMA 20") {
		t.Error("price chart should label moving averages")
	}
	zones := market.Valuation(bars).Zones
	if svg := ValuationBandChart(bars, zones, ChartConfig{}); !strings.HasSuffix(svg, "</svg>") {
		t.Error("valuation chart incomplete")
	}
}

// ════════════════════════════════════════════════════════════════════
// Scorecard Reports
// ════════════════════════════════════════════════════════════════════

func TestScoreText(t *testing.T) {
	card := sampleCard(t)
	out := ScoreText(card, generated)

	for _, want := range []string{
		"FUNDAMENTAL ANALYSIS REPORT",
		"INFY Ltd",
		"Fiscal Year:   FY2024",
		"EXECUTIVE SUMMARY",
		"CATEGORY SCORES",
		"METRIC SCORES",
		"Top Strengths:",
		"QUALITY CHECKS",
		"INTRINSIC VALUE",
		Disclaimer,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
	for _, c := range scoring.Categories {
		if !strings.Contains(out, string(c)) {
			t.Errorf("text report missing category %s", c)
		}
	}
	if ScoreText(nil, generated) != "" {
		t.Error("nil card should render empty")
	}
}

func TestScoreMarkdown(t *testing.T) {
	card := sampleCard(t)
	md := ScoreMarkdown(card, generated)

	if !strings.HasPrefix(md, "# INFY Ltd (INFY): Fundamental Analysis") {
		t.Errorf("unexpected heading: %q", strings.SplitN(md, "\n", 2)[0])
	}
	for _, want := range []string{"## Category Scores", "## Metric Scores", "## Intrinsic Value", "| Graham Number |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if got := strings.Count(md, "\n| "); got < len(card.Result.Metrics)+len(card.Result.Categories) {
		t.Errorf("expected a table row per metric and category, got %d rows", got)
	}
}

func TestScoreHTML(t *testing.T) {
	card := sampleCard(t)
	html, err := ScoreHTML(card, generated)
	if err != nil {
		t.Fatalf("ScoreHTML: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "<title>INFY: Fundamental Analysis</title>", "<table>", "<h2", "<svg", "Generated"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(html, "&lt;svg") {
		t.Error("charts should be embedded unescaped")
	}

	if _, err := ScoreHTML(nil, generated); err == nil {
		t.Error("expected error for nil scorecard")
	}
}

func TestRenderHTMLEscapesTitle(t *testing.T) {
	html, err := RenderHTML("<A&B>", "# Hello", generated)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "&lt;A&amp;B&gt;") {
		t.Error("title should be escaped")
	}
	if strings.Contains(html, `class="charts"`) {
		t.Error("charts section should be omitted without charts")
	}
}

// ════════════════════════════════════════════════════════════════════
// Price Reports
// ════════════════════════════════════════════════════════════════════

func TestPriceMarkdown(t *testing.T) {
	bars := sampleBars(120)
	perf, err := stats.Performance(bars)
	if err != nil {
		t.Fatal(err)
	}
	returns := stats.Clean(stats.DailyReturns(bars))
	summary := stats.Describe(returns)
	ind := technical.ComputeAll(bars, technical.DefaultParams())
	signals := technical.GenerateSignals(ind)
	bias := technical.AggregateSignal(signals)
	days := patterns.Enrich(bars)

	a := &PriceAnalysis{
		Symbol:      "TCS",
		From:        bars[0].Date,
		To:          bars[len(bars)-1].Date,
		Performance: perf,
		Returns:     &summary,
		Yearly:      stats.YearlyReturns(bars),
		Risk:        []stats.VaRResult{stats.HistoricalVaR(returns, 0.95), stats.ParametricVaR(returns, 0.95)},
		Technical:   ind,
		Signals:     signals,
		Bias:        &bias,
		Patterns:    patterns.Compare(days),
		Weekdays:    patterns.ByWeekday(days),
		Focus:       []*patterns.Focus{patterns.April(days)},
		Market:      market.Analyze(bars),
	}
	md := PriceMarkdown(a, generated)

	for _, want := range []string{
		"# TCS: Price Analysis",
		"## Performance",
		"## Daily Return Distribution",
		"## Value at Risk",
		"## Yearly Returns",
		"## Technical Indicators",
		"Overall bias:",
		"## Pattern Comparison",
		"## Day of Week",
		"### April by Year",
		"## Market Metrics",
		Disclaimer,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("price report missing %q", want)
		}
	}
	if strings.Contains(md, "## Sessions") {
		t.Error("empty sections should be omitted")
	}
}

func TestMarketMarkdownSkipsMissingSections(t *testing.T) {
	md := MarketMarkdown(&market.Report{MarketCap: market.MarketCap(sampleBars(30))})
	if !strings.Contains(md, "### Market Capitalisation") {
		t.Error("market cap section missing")
	}
	if strings.Contains(md, "### Liquidity") || strings.Contains(md, "### Price-to-Book") {
		t.Error("sections without data should be omitted")
	}
	if MarketMarkdown(nil) != "" {
		t.Error("nil report should render empty")
	}
}

// ════════════════════════════════════════════════════════════════════
// Tables
// ════════════════════════════════════════════════════════════════════

func TestTables(t *testing.T) {
	card := sampleCard(t)
	r := sampleRanking(t)

	var buf bytes.Buffer
	if err := ScoreTable(&buf, card.Result, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), card.Result.Metrics[0].Interpretation) {
		t.Error("score table missing interpretation")
	}

	buf.Reset()
	if err := CategoryTable(&buf, card.Result, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Final Score") {
		t.Error("category table missing final score row")
	}

	buf.Reset()
	if err := RankingTable(&buf, r.Entries, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Index(out, "HIGHCO") > strings.Index(out, "LOWCO") {
		t.Error("ranking table should list entries in rank order")
	}

	buf.Reset()
	if err := SectorTable(&buf, r.SectorSummary()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Energy") {
		t.Error("sector table missing sector")
	}

	buf.Reset()
	if err := DistributionTable(&buf, r.RatingDistribution(), false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "%") {
		t.Error("distribution table missing shares")
	}

	buf.Reset()
	if err := MetricsTable(&buf, scoring.DefaultRegistry()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), scoring.MetricDebtToEquity) {
		t.Error("metrics table missing definitions")
	}
}

func TestTierLabel(t *testing.T) {
	if got := TierLabel(scoring.LabelGood, false); got != scoring.LabelGood {
		t.Errorf("uncoloured label changed: %q", got)
	}
	if got := TierLabel("Unknown", true); got != "Unknown" {
		t.Errorf("unknown tier should pass through, got %q", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// Exports
// ════════════════════════════════════════════════════════════════════

func TestRound(t *testing.T) {
	if got := Round(1.005, 2); got != 1.01 {
		t.Errorf("Round(1.005, 2) = %v, want 1.01", got)
	}
	if got := Round(-2.345, 1); got != -2.3 {
		t.Errorf("Round(-2.345, 1) = %v, want -2.3", got)
	}
	if !math.IsNaN(Round(math.NaN(), 2)) {
		t.Error("NaN should pass through")
	}
}

func TestWriteJSONReplacesNonFinite(t *testing.T) {
	type inner struct {
		Value float64 `json:"value"`
	}
	v := struct {
		A      float64            `json:"a"`
		B      []float64          `json:"b"`
		M      map[int]float64    `json:"m"`
		Hidden string             `json:"-"`
		Empty  string             `json:"empty,omitempty"`
		When   time.Time          `json:"when"`
		Inner  *inner             `json:"inner"`
		Nested map[string][]inner `json:"nested"`
	}{
		A:      math.NaN(),
		B:      []float64{1, math.Inf(1)},
		M:      map[int]float64{20: math.Inf(-1)},
		Hidden: "secret",
		When:   generated,
		Inner:  &inner{Value: math.NaN()},
		Nested: map[string][]inner{"x": {{Value: 2}}},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, v); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	if strings.Index(out, `"a"`) > strings.Index(out, `"b"`) {
		t.Error("field order should follow the struct")
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got["a"] != nil {
		t.Errorf("NaN should be null, got %v", got["a"])
	}
	if b := got["b"].([]any); b[0] != 1.0 || b[1] != nil {
		t.Errorf("unexpected slice: %v", b)
	}
	if m := got["m"].(map[string]any); m["20"] != nil {
		t.Errorf("unexpected map: %v", m)
	}
	if _, ok := got["Hidden"]; ok {
		t.Error(`"-" fields should be skipped`)
	}
	if _, ok := got["empty"]; ok {
		t.Error("omitempty fields should be skipped")
	}
	if got["when"] != "2025-03-31T10:00:00Z" {
		t.Errorf("time should use its own encoding, got %v", got["when"])
	}
	if in := got["inner"].(map[string]any); in["value"] != nil {
		t.Errorf("nested NaN should be null, got %v", in["value"])
	}
}

func TestWriteJSONFlattensEmbedded(t *testing.T) {
	days := patterns.Enrich(sampleBars(3))
	var buf bytes.Buffer
	if err := WriteJSON(&buf, days[0]); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["close"]; !ok {
		t.Error("embedded bar fields should be promoted")
	}
	if got["daily_return"] != nil {
		t.Error("first day return should be null")
	}
}

func TestWriteJSONScorecard(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleCard(t)); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"company_info", "year", "metrics", "score", "quality", "intrinsic_value"} {
		if _, ok := got[key]; !ok {
			t.Errorf("scorecard JSON missing %q", key)
		}
	}
}

func TestScoreCSV(t *testing.T) {
	card := sampleCard(t)
	var buf bytes.Buffer
	if err := ScoreCSV(&buf, card.Result, 2); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	if len(rows) != len(card.Result.Metrics)+1 {
		t.Fatalf("expected header plus %d rows, got %d", len(card.Result.Metrics), len(rows))
	}
	if rows[0][0] != "metric" || rows[0][4] != "normalized_score" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != card.Result.Metrics[0].Name {
		t.Errorf("first row should be %s, got %s", card.Result.Metrics[0].Name, rows[1][0])
	}
}

func TestRankingCSV(t *testing.T) {
	r := sampleRanking(t)
	var buf bytes.Buffer
	if err := RankingCSV(&buf, r, 2); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != 11+len(scoring.Categories) {
		t.Errorf("expected a column per category, got %d columns", len(rows[0]))
	}
	if rows[1][0] != "1" || rows[1][1] != "HIGHCO" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[1][5] != "500.00" {
		t.Errorf("price should have two decimals, got %q", rows[1][5])
	}

	buf.Reset()
	if err := FailuresCSV(&buf, r); err != nil {
		t.Fatal(err)
	}
	failures := readCSV(t, buf.String())
	if len(failures) != 2 || failures[1][0] != "EMPTY" {
		t.Errorf("unexpected failures: %v", failures)
	}
}

func TestIndicatorsCSV(t *testing.T) {
	bars := sampleBars(40)
	p := technical.DefaultParams()
	ind := technical.ComputeAll(bars, p)

	var buf bytes.Buffer
	if err := IndicatorsCSV(&buf, ind, 4); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	if len(rows) != len(bars)+1 {
		t.Fatalf("expected %d rows, got %d", len(bars)+1, len(rows))
	}
	if want := 2 + len(p.MAPeriods) + 9; len(rows[0]) != want {
		t.Errorf("expected %d columns, got %d", want, len(rows[0]))
	}
	if rows[1][0] != "2024-01-01" {
		t.Errorf("unexpected date: %q", rows[1][0])
	}
	if rows[1][len(rows[1])-1] != "" {
		t.Error("undefined indicator values should be empty")
	}
}

func TestPatternAndMarketCSV(t *testing.T) {
	bars := sampleBars(90)
	days := patterns.Enrich(bars)

	var buf bytes.Buffer
	if err := GroupsCSV(&buf, patterns.ByWeekday(days), 3); err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, buf.String()); len(rows) < 2 || rows[0][0] != "pattern" {
		t.Errorf("unexpected group CSV: %v", rows)
	}

	buf.Reset()
	if err := DaysCSV(&buf, days, 3); err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, buf.String()); len(rows) != len(days)+1 {
		t.Errorf("expected a row per day, got %d", len(rows))
	}

	buf.Reset()
	if err := YearlyCSV(&buf, stats.YearlyReturns(bars), 2); err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, buf.String()); rows[1][0] != "2024" {
		t.Errorf("unexpected yearly CSV: %v", rows)
	}

	buf.Reset()
	mc := market.MarketCap(bars)
	if err := MarketCapCSV(&buf, mc, 2); err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, buf.String()); len(rows) != 1+len(mc.Yearly)+len(mc.Quarterly) {
		t.Errorf("expected yearly and quarterly rows, got %d", len(rows))
	}
}

func TestRankingParquetRoundTrip(t *testing.T) {
	r := sampleRanking(t)

	var buf bytes.Buffer
	if err := RankingParquet(&buf, r, 2); err != nil {
		t.Fatalf("RankingParquet: %v", err)
	}

	reader := parquet.NewGenericReader[RankingRow](bytes.NewReader(buf.Bytes()))
	defer reader.Close()

	if reader.NumRows() != int64(len(r.Entries)) {
		t.Fatalf("expected %d rows, got %d", len(r.Entries), reader.NumRows())
	}
	rows := make([]RankingRow, reader.NumRows())
	if _, err := reader.Read(rows); err != nil && err != io.EOF {
		t.Fatalf("reading rows: %v", err)
	}
	first := r.Entries[0]
	if rows[0].Symbol != first.Symbol || rows[0].Rank != 1 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].RunID != r.RunID {
		t.Errorf("run id not carried: %q", rows[0].RunID)
	}
	if rows[0].FinalScore != Round(first.FinalScore, 2) {
		t.Errorf("score should be rounded: %v vs %v", rows[0].FinalScore, first.FinalScore)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "report.md")
	err := WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "# Report\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Report\n" {
		t.Errorf("unexpected content: %q", data)
	}

	wantErr := errors.New("boom")
	if err := WriteFile(filepath.Join(t.TempDir(), "x.txt"), func(io.Writer) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("expected writer error, got %v", err)
	}
}

func TestRankingMarkdown(t *testing.T) {
	r := sampleRanking(t)
	md := RankingMarkdown(r, 1)

	for _, want := range []string{
		"# Bulk Fundamental Ranking",
		"## Top 1",
		"| 1 | HIGHCO |",
		"## Sector Leaders",
		"## Sector Averages",
		"## Rating Distribution",
		"## Failures",
		"| EMPTY |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("ranking markdown missing %q", want)
		}
	}
	if strings.Contains(md, "| 2 | LOWCO |") {
		t.Error("top section should be limited to n entries")
	}
	if svg := RankingChart(r.Entries, ChartConfig{}); !strings.Contains(svg, "HIGHCO") {
		t.Error("ranking chart should label symbols")
	}
}

// ════════════════════════════════════════════════════════════════════
// Price analysis builders
// ════════════════════════════════════════════════════════════════════

func TestTechnicalAnalysis(t *testing.T) {
	bars := sampleBars(250)
	a, err := TechnicalAnalysis("TCS", bars, DefaultPriceOptions())
	if err != nil {
		t.Fatalf("TechnicalAnalysis: %v", err)
	}
	if a.Symbol != "TCS" || !a.From.Equal(bars[0].Date) || !a.To.Equal(bars[249].Date) {
		t.Errorf("header: got %s %v..%v", a.Symbol, a.From, a.To)
	}
	if a.Technical == nil || a.Bias == nil || a.Performance == nil || a.Returns == nil {
		t.Fatal("technical, bias, performance and returns should all be set")
	}
	if len(a.Risk) != 2 || a.Risk[0].Confidence != 0.95 {
		t.Errorf("risk: got %+v", a.Risk)
	}

	opts := DefaultPriceOptions()
	opts.VaRConfidence = 0
	a, _ = TechnicalAnalysis("TCS", bars, opts)
	if a.Risk[0].Confidence != 0.95 {
		t.Errorf("zero confidence should fall back to 0.95, got %f", a.Risk[0].Confidence)
	}
}

func TestPatternAnalysis(t *testing.T) {
	a, err := PatternAnalysis("TCS", sampleBars(200))
	if err != nil {
		t.Fatalf("PatternAnalysis: %v", err)
	}
	if len(a.Patterns) == 0 || len(a.Weekdays) == 0 || len(a.Months) == 0 || len(a.Sessions) == 0 {
		t.Fatal("every group section should be filled")
	}
	if got, want := len(a.AllGroups()), len(a.Patterns)+len(a.Weekdays)+len(a.Months)+len(a.Sessions); got != want {
		t.Errorf("AllGroups: got %d, want %d", got, want)
	}
	if len(a.Focus) == 0 {
		t.Error("focus sections expected for a series spanning April")
	}
}

func TestMarketAnalysis(t *testing.T) {
	a, err := MarketAnalysis("TCS", sampleBars(120))
	if err != nil {
		t.Fatalf("MarketAnalysis: %v", err)
	}
	if a.Market == nil || a.Market.MarketCap == nil {
		t.Error("market cap analysis expected")
	}

	bare := []models.Bar{
		models.NewBar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2, 0.5, 1.5, math.NaN()),
		models.NewBar(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1.5, 2, 1, 1.8, math.NaN()),
	}
	if _, err := MarketAnalysis("X", bare); !errors.Is(err, ErrNoMarketData) {
		t.Errorf("expected ErrNoMarketData, got %v", err)
	}
}

func TestAnalysisEmptySeries(t *testing.T) {
	if _, err := TechnicalAnalysis("X", nil, DefaultPriceOptions()); !errors.Is(err, ErrNoPrices) {
		t.Errorf("technical: expected ErrNoPrices, got %v", err)
	}
	if _, err := PatternAnalysis("X", nil); !errors.Is(err, ErrNoPrices) {
		t.Errorf("patterns: expected ErrNoPrices, got %v", err)
	}
	if _, err := MarketAnalysis("X", nil); !errors.Is(err, ErrNoPrices) {
		t.Errorf("market: expected ErrNoPrices, got %v", err)
	}
}
