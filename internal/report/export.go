package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/equiscore/internal/analysis/market"
	"github.com/seenimoa/equiscore/internal/analysis/patterns"
	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/internal/analysis/technical"
	"github.com/seenimoa/equiscore/internal/bulk"
	"github.com/seenimoa/equiscore/internal/scoring"
)

// WriteFile creates path (and its directory) and hands it to write. An empty
// path or "-" writes to stdout.
func WriteFile(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Round rounds v half away from zero to places decimals. NaN and ±Inf pass
// through.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(int32(places)).InexactFloat64()
}

// fixed formats v with exactly places decimals; undefined values are empty.
func fixed(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

// ════════════════════════════════════════════════════════════════════
// JSON
// ════════════════════════════════════════════════════════════════════

// WriteJSON writes v as indented JSON. NaN and infinite floats, which
// encoding/json rejects, are written as null.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(finite(reflect.ValueOf(v))); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

var marshalerType = reflect.TypeFor[json.Marshaler]()

// object keeps struct field order through encoding.
type object []field

type field struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.key)
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// finite rebuilds v with every non-finite float replaced by nil, honouring
// json struct tags.
func finite(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Type().Implements(marshalerType) && v.Kind() != reflect.Pointer {
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return finite(v.Elem())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = finite(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = finite(iter.Value())
		}
		return out
	case reflect.Struct:
		var obj object
		appendFields(&obj, v)
		return obj
	default:
		return v.Interface()
	}
}

func appendFields(obj *object, v reflect.Value) {
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)
		if sf.Anonymous && name == "" && fv.Kind() == reflect.Struct {
			appendFields(obj, fv)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if strings.Contains(opts, "omitempty") && empty(fv) {
			continue
		}
		*obj = append(*obj, field{key: name, value: finite(fv)})
	}
}

func empty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Struct:
		return false
	default:
		return v.IsZero()
	}
}

// ════════════════════════════════════════════════════════════════════
// CSV
// ════════════════════════════════════════════════════════════════════

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// ScoreCSV writes the scored metrics of res.
func ScoreCSV(w io.Writer, res *scoring.Result, precision int) error {
	rows := make([][]string, 0, len(res.Metrics))
	for _, m := range res.Metrics {
		rows = append(rows, []string{
			m.Name, m.Label, string(m.Category), fixed(m.RawValue, precision),
			fixed(m.Score, precision), fixed(m.Weight, 2), fixed(m.Contribution(), precision), m.Interpretation,
		})
	}
	return writeCSV(w, []string{"metric", "label", "category", "raw_value", "normalized_score", "weight", "contribution", "interpretation"}, rows)
}

var rankingHeader = []string{
	"rank", "symbol", "company", "sector", "industry", "current_price", "market_cap", "final_score", "tier", "rating", "action",
	"financial_health", "profitability", "growth", "valuation", "efficiency",
}

// RankingCSV writes every ranked entry with its category scores.
func RankingCSV(w io.Writer, r *bulk.Ranking, precision int) error {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		row := []string{
			strconv.Itoa(e.Rank), e.Symbol, e.Company, e.Sector, e.Industry,
			fixed(e.CurrentPrice, 2), fixed(e.MarketCap, 2), fixed(e.FinalScore, precision),
			e.Tier, e.Rating, e.Action,
		}
		for _, c := range scoring.Categories {
			row = append(row, fixed(e.Categories[c], precision))
		}
		rows = append(rows, row)
	}
	return writeCSV(w, rankingHeader, rows)
}

// FailuresCSV writes the companies a bulk run could not score.
func FailuresCSV(w io.Writer, r *bulk.Ranking) error {
	rows := make([][]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		rows = append(rows, []string{f.Symbol, f.Company, f.Reason})
	}
	return writeCSV(w, []string{"symbol", "company", "error"}, rows)
}

// IndicatorsCSV writes the full indicator series, one row per bar.
func IndicatorsCSV(w io.Writer, ind *technical.Indicators, precision int) error {
	periods := ind.Params.MAPeriods
	header := []string{"date", "close"}
	for _, p := range periods {
		header = append(header, fmt.Sprintf("sma_%d", p))
	}
	header = append(header, "rsi", "macd", "macd_signal", "macd_histogram", "bb_upper", "bb_middle", "bb_lower", "bb_width", "atr")

	rows := make([][]string, len(ind.Dates))
	for i, d := range ind.Dates {
		row := []string{d.Format(time.DateOnly), fixed(ind.Close[i], precision)}
		for _, p := range periods {
			row = append(row, fixed(ind.MA[p][i], precision))
		}
		m, b := ind.MACD[i], ind.Bollinger[i]
		row = append(row,
			fixed(ind.RSI[i], precision),
			fixed(m.MACD, precision), fixed(m.Signal, precision), fixed(m.Histogram, precision),
			fixed(b.Upper, precision), fixed(b.Middle, precision), fixed(b.Lower, precision), fixed(b.Width, precision),
			fixed(ind.ATR[i], precision),
		)
		rows[i] = row
	}
	return writeCSV(w, header, rows)
}

// YearlyCSV writes per-year returns.
func YearlyCSV(w io.Writer, years []stats.YearlyReturn, precision int) error {
	rows := make([][]string, 0, len(years))
	for _, y := range years {
		rows = append(rows, []string{
			strconv.Itoa(y.Year), fixed(y.StartPrice, 2), fixed(y.EndPrice, 2), fixed(y.Return, precision),
			strconv.Itoa(y.TradingDays), fixed(y.WinRate, precision), fixed(y.BestDay, precision), fixed(y.WorstDay, precision),
		})
	}
	return writeCSV(w, []string{"year", "start_price", "end_price", "return_pct", "trading_days", "win_rate", "best_day", "worst_day"}, rows)
}

// GroupsCSV writes pattern groups with their full return summary.
func GroupsCSV(w io.Writer, groups []patterns.Group, precision int) error {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		s := g.Summary
		rows = append(rows, []string{
			g.Label, strconv.Itoa(s.Count),
			fixed(s.Mean, precision), fixed(s.Median, precision), fixed(s.Std, precision),
			fixed(s.Min, precision), fixed(s.Max, precision), fixed(s.WinRate, precision),
			fixed(s.AvgWin, precision), fixed(s.AvgLoss, precision),
			fixed(s.Percentiles.P10, precision), fixed(s.Percentiles.P90, precision),
			fixed(s.Skewness, precision), fixed(s.Kurtosis, precision),
		})
	}
	return writeCSV(w, []string{
		"pattern", "days", "mean", "median", "std", "min", "max", "win_rate",
		"avg_win", "avg_loss", "p10", "p90", "skewness", "kurtosis",
	}, rows)
}

// DaysCSV writes enriched trading days with their pattern flags.
func DaysCSV(w io.Writer, days []patterns.Day, precision int) error {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format(time.DateOnly), fixed(d.Close, 2), d.Weekday.String(), d.Month.String(),
			strconv.Itoa(d.ISOWeek), strconv.Itoa(d.Quarter),
			fixed(d.Return, precision), fixed(d.Overnight, precision), fixed(d.Intraday, precision),
			strconv.FormatBool(d.IsApril), strconv.FormatBool(d.IsWednesday), strconv.FormatBool(d.IsMonday),
			strconv.FormatBool(d.IsMonthEnd), strconv.FormatBool(d.IsFirstMonday),
		})
	}
	return writeCSV(w, []string{
		"date", "close", "weekday", "month", "iso_week", "quarter", "daily_return", "overnight", "intraday",
		"is_april", "is_wednesday", "is_monday", "is_month_end", "is_first_monday",
	}, rows)
}

// MarketCapCSV writes the yearly and quarterly market-cap breakdown.
func MarketCapCSV(w io.Writer, mc *market.CapAnalysis, precision int) error {
	var rows [][]string
	add := func(period string, p market.PeriodCap) {
		rows = append(rows, []string{
			period, strconv.Itoa(p.Year), strconv.Itoa(p.Quarter),
			fixed(p.First, 2), fixed(p.Last, 2), fixed(p.Mean, 2), fixed(p.Growth, precision),
		})
	}
	for _, y := range mc.Yearly {
		add("year", y)
	}
	for _, q := range mc.Quarterly {
		add("quarter", q)
	}
	return writeCSV(w, []string{"period", "year", "quarter", "first", "last", "mean", "growth_pct"}, rows)
}

// ════════════════════════════════════════════════════════════════════
// Parquet
// ════════════════════════════════════════════════════════════════════

// RankingRow is the columnar form of a ranked company.
type RankingRow struct {
	RunID           string    `parquet:"run_id,snappy"`
	GeneratedAt     time.Time `parquet:"generated_at,snappy"`
	Rank            int32     `parquet:"rank,snappy"`
	Symbol          string    `parquet:"symbol,snappy"`
	Company         string    `parquet:"company,snappy"`
	Sector          string    `parquet:"sector,snappy"`
	Industry        string    `parquet:"industry,snappy"`
	CurrentPrice    float64   `parquet:"current_price,snappy"`
	MarketCap       float64   `parquet:"market_cap,snappy"`
	FinalScore      float64   `parquet:"final_score,snappy"`
	Tier            string    `parquet:"tier,snappy"`
	Action          string    `parquet:"action,snappy"`
	FinancialHealth float64   `parquet:"financial_health,snappy"`
	Profitability   float64   `parquet:"profitability,snappy"`
	Growth          float64   `parquet:"growth,snappy"`
	Valuation       float64   `parquet:"valuation,snappy"`
	Efficiency      float64   `parquet:"efficiency,snappy"`
}

// RankingRows flattens r into columnar rows with scores rounded to precision.
func RankingRows(r *bulk.Ranking, precision int) []RankingRow {
	rows := make([]RankingRow, len(r.Entries))
	for i, e := range r.Entries {
		rows[i] = RankingRow{
			RunID:           r.RunID,
			GeneratedAt:     r.GeneratedAt,
			Rank:            int32(e.Rank),
			Symbol:          e.Symbol,
			Company:         e.Company,
			Sector:          e.Sector,
			Industry:        e.Industry,
			CurrentPrice:    Round(e.CurrentPrice, 2),
			MarketCap:       Round(e.MarketCap, 2),
			FinalScore:      Round(e.FinalScore, precision),
			Tier:            e.Tier,
			Action:          e.Action,
			FinancialHealth: Round(e.Categories[scoring.FinancialHealth], precision),
			Profitability:   Round(e.Categories[scoring.Profitability], precision),
			Growth:          Round(e.Categories[scoring.Growth], precision),
			Valuation:       Round(e.Categories[scoring.Valuation], precision),
			Efficiency:      Round(e.Categories[scoring.Efficiency], precision),
		}
	}
	return rows
}

// RankingParquet writes the ranking as a Parquet file to w.
func RankingParquet(w io.Writer, r *bulk.Ranking, precision int) error {
	writer := parquet.NewGenericWriter[RankingRow](w)
	if _, err := writer.Write(RankingRows(r, precision)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
