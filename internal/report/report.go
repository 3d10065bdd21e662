package report

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/internal/analysis/market"
	"github.com/seenimoa/equiscore/internal/analysis/patterns"
	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/internal/analysis/technical"
	"github.com/seenimoa/equiscore/internal/bulk"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// Format specifies an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatParquet  Format = "parquet"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatCSV, FormatParquet}
}

// ParseFormat accepts a format name or a common alias ("md", "txt", "pq").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "table":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "parquet", "pq":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Disclaimer closes every report.
const Disclaimer = "For educational purposes only. Not financial advice. Always consult a SEBI-registered advisor."

const (
	ruleWidth = 80
	topN      = 3
)

// ════════════════════════════════════════════════════════════════════
// Scorecard: plain text
// ════════════════════════════════════════════════════════════════════

// ScoreText renders a complete fundamental analysis report for the terminal.
func ScoreText(card *fundamental.Scorecard, generated time.Time) string {
	if card == nil || card.Result == nil {
		return ""
	}
	res := card.Result
	c := card.Company

	var sb strings.Builder
	line := strings.Repeat("═", ruleWidth)
	thin := strings.Repeat("─", ruleWidth)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(center("FUNDAMENTAL ANALYSIS REPORT", ruleWidth) + "\n")
	sb.WriteString(line + "\n\n")
	fmt.Fprintf(&sb, "  Company:       %s\n", c.Name)
	fmt.Fprintf(&sb, "  Ticker:        %s\n", c.Symbol)
	fmt.Fprintf(&sb, "  Sector:        %s\n", c.SectorOrNA())
	fmt.Fprintf(&sb, "  Current Price: %s\n", utils.FormatRupees(c.CurrentPrice))
	fmt.Fprintf(&sb, "  Market Cap:    %s\n", utils.FormatCrores(c.MarketCap))
	fmt.Fprintf(&sb, "  Fiscal Year:   FY%d\n", card.Year)
	fmt.Fprintf(&sb, "  Report Date:   %s\n", utils.FormatDateIST(generated))
	sb.WriteString(line + "\n\n")

	sb.WriteString("  EXECUTIVE SUMMARY\n" + thin + "\n")
	fmt.Fprintf(&sb, "  Fundamental Score: %.1f/100 (%s)\n", res.FinalScore, res.Tier)
	fmt.Fprintf(&sb, "  Recommendation:    %s\n", res.Recommendation.Action)
	fmt.Fprintf(&sb, "  Rating:            %s\n\n", res.OverallRating)
	fmt.Fprintf(&sb, "  %s\n", res.Recommendation.Summary)
	sb.WriteString(thin + "\n\n")

	sb.WriteString("  CATEGORY SCORES\n" + thin + "\n")
	fmt.Fprintf(&sb, "  %-22s %10s %8s %8s  %s\n", "Category", "Score", "Weight", "% Max", "Rating")
	for _, cs := range categoriesByScore(res) {
		fmt.Fprintf(&sb, "  %-22s %10.2f %7.0f%% %7.1f%%  %s %s\n",
			cs.Category, cs.Score, cs.Weight*100, cs.PercentOfMax, cs.Rating, stars(cs.PercentOfMax))
	}
	sb.WriteString(thin + "\n\n")

	sb.WriteString("  METRIC SCORES\n" + thin + "\n")
	for _, m := range res.Metrics {
		fmt.Fprintf(&sb, "  %-34s %12s  %6.1f/100  %s\n",
			m.Label, rawValue(m), m.Score, m.Interpretation)
	}
	sb.WriteString(thin + "\n\n")

	sb.WriteString("  KEY STRENGTHS & WEAKNESSES\n" + thin + "\n")
	sb.WriteString("  Top Strengths:\n")
	for i, m := range res.Strengths(topN) {
		fmt.Fprintf(&sb, "    %d. %s: %.1f/100 (%s)\n", i+1, m.Label, m.Score, m.Interpretation)
	}
	sb.WriteString("  Top Weaknesses:\n")
	for i, m := range res.Weaknesses(topN) {
		fmt.Fprintf(&sb, "    %d. %s: %.1f/100 (%s)\n", i+1, m.Label, m.Score, m.Interpretation)
	}
	if n := res.MissingCount(); n > 0 {
		fmt.Fprintf(&sb, "  %d metric(s) had missing data and scored 0.\n", n)
	}
	sb.WriteString(thin + "\n\n")

	q := card.Quality
	fmt.Fprintf(&sb, "  QUALITY CHECKS: %d/%d\n", q.Score, q.Max)
	for _, chk := range q.Checks {
		fmt.Fprintf(&sb, "    %s\n", chk)
	}
	iv := card.Intrinsic
	fmt.Fprintf(&sb, "\n  INTRINSIC VALUE: %s\n", iv.Verdict)
	fmt.Fprintf(&sb, "    Graham Number: %s | Earnings Yield: %s | Margin of Safety: %s\n",
		utils.FormatRupees(iv.GrahamNumber), utils.FormatRatio(iv.EarningsYield, 2)+"%", utils.FormatPct(iv.MarginOfSafety))
	sb.WriteString(thin + "\n")

	sb.WriteString("\n" + line + "\n  " + Disclaimer + "\n" + line + "\n")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Scorecard: markdown
// ════════════════════════════════════════════════════════════════════

// ScoreMarkdown renders the scorecard as GitHub-flavoured markdown.
func ScoreMarkdown(card *fundamental.Scorecard, generated time.Time) string {
	if card == nil || card.Result == nil {
		return ""
	}
	res := card.Result
	c := card.Company

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%s): Fundamental Analysis\n\n", c.Name, c.Symbol)
	fmt.Fprintf(&sb, "**Generated**: %s | **Fiscal Year**: FY%d | **Sector**: %s\n\n",
		utils.FormatDateTimeIST(generated), card.Year, c.SectorOrNA())
	fmt.Fprintf(&sb, "**Price**: %s | **Market Cap**: %s\n\n",
		utils.FormatRupees(c.CurrentPrice), utils.FormatCrores(c.MarketCap))

	sb.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&sb, "- **Fundamental Score**: %.1f/100 (%s)\n", res.FinalScore, res.Tier)
	fmt.Fprintf(&sb, "- **Recommendation**: %s\n", res.Recommendation.Action)
	fmt.Fprintf(&sb, "- **Rating**: %s\n\n", res.OverallRating)
	sb.WriteString(res.Recommendation.Summary + "\n\n")

	sb.WriteString("## Category Scores\n\n")
	sb.WriteString("| Category | Score | Weight | % of Max | Rating |\n|---|---:|---:|---:|---|\n")
	for _, cs := range categoriesByScore(res) {
		fmt.Fprintf(&sb, "| %s | %.2f | %.0f%% | %.1f%% | %s |\n",
			cs.Category, cs.Score, cs.Weight*100, cs.PercentOfMax, cs.Rating)
	}

	sb.WriteString("\n## Metric Scores\n\n")
	sb.WriteString("| Metric | Category | Value | Score | Weight | Interpretation |\n|---|---|---:|---:|---:|---|\n")
	for _, m := range res.Metrics {
		fmt.Fprintf(&sb, "| %s | %s | %s | %.1f | %.0f%% | %s |\n",
			m.Label, m.Category, rawValue(m), m.Score, m.Weight*100, m.Interpretation)
	}

	sb.WriteString("\n## Strengths and Weaknesses\n\n**Strengths**\n\n")
	for i, m := range res.Strengths(topN) {
		fmt.Fprintf(&sb, "%d. %s: %.1f/100 (%s)\n", i+1, m.Label, m.Score, m.Interpretation)
	}
	sb.WriteString("\n**Weaknesses**\n\n")
	for i, m := range res.Weaknesses(topN) {
		fmt.Fprintf(&sb, "%d. %s: %.1f/100 (%s)\n", i+1, m.Label, m.Score, m.Interpretation)
	}

	fmt.Fprintf(&sb, "\n## Quality Checks (%d/%d)\n\n", card.Quality.Score, card.Quality.Max)
	for _, chk := range card.Quality.Checks {
		fmt.Fprintf(&sb, "- %s\n", chk)
	}

	iv := card.Intrinsic
	sb.WriteString("\n## Intrinsic Value\n\n| Measure | Value |\n|---|---:|\n")
	fmt.Fprintf(&sb, "| Graham Number | %s |\n", utils.FormatRupees(iv.GrahamNumber))
	fmt.Fprintf(&sb, "| Earnings Yield | %s%% |\n", utils.FormatRatio(iv.EarningsYield, 2))
	fmt.Fprintf(&sb, "| Margin of Safety | %s |\n", utils.FormatPct(iv.MarginOfSafety))
	fmt.Fprintf(&sb, "| Verdict | %s |\n", iv.Verdict)

	sb.WriteString("\n---\n\n_" + Disclaimer + "_\n")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Price analysis: markdown
// ════════════════════════════════════════════════════════════════════

// PriceAnalysis bundles the price-series analyses of one symbol. Nil or
// empty parts are left out of the rendered report.
type PriceAnalysis struct {
	Symbol      string                    `json:"symbol"`
	From        time.Time                 `json:"from"`
	To          time.Time                 `json:"to"`
	Performance *stats.PerformanceMetrics `json:"performance,omitempty"`
	Returns     *stats.Summary            `json:"returns,omitempty"`
	Yearly      []stats.YearlyReturn      `json:"yearly,omitempty"`
	Risk        []stats.VaRResult         `json:"risk,omitempty"`
	Technical   *technical.Indicators     `json:"-"`
	Signals     []technical.Signal        `json:"signals,omitempty"`
	Bias        *technical.Bias           `json:"bias,omitempty"`
	Patterns    []patterns.Group          `json:"patterns,omitempty"`
	Weekdays    []patterns.Group          `json:"weekdays,omitempty"`
	Months      []patterns.Group          `json:"months,omitempty"`
	Sessions    []patterns.Group          `json:"sessions,omitempty"`
	Focus       []*patterns.Focus         `json:"focus,omitempty"`
	Market      *market.Report            `json:"market,omitempty"`
}

// PriceMarkdown renders a price analysis as markdown.
func PriceMarkdown(a *PriceAnalysis, generated time.Time) string {
	if a == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: Price Analysis\n\n", a.Symbol)
	fmt.Fprintf(&sb, "**Generated**: %s", utils.FormatDateTimeIST(generated))
	if !a.From.IsZero() {
		fmt.Fprintf(&sb, " | **Period**: %s to %s", utils.FormatDateIST(a.From), utils.FormatDateIST(a.To))
	}
	sb.WriteString("\n\n")

	if p := a.Performance; p != nil {
		sb.WriteString("## Performance\n\n| Metric | Value |\n|---|---:|\n")
		rows := [][2]string{
			{"Trading Days", fmt.Sprintf("%d", p.TradingDays)},
			{"Years", fmt.Sprintf("%.2f", p.Years)},
			{"Start Price", utils.FormatRupees(p.StartPrice)},
			{"End Price", utils.FormatRupees(p.EndPrice)},
			{"Total Return", utils.FormatPct(p.TotalReturn)},
			{"CAGR", utils.FormatPct(p.CAGR)},
			{"Annualized Volatility", utils.FormatRatio(p.Volatility, 2) + "%"},
			{"Sharpe Ratio", utils.FormatRatio(p.Sharpe, 2)},
			{"Sortino Ratio", utils.FormatRatio(p.Sortino, 2)},
			{"Max Drawdown", utils.FormatPct(p.MaxDrawdown)},
			{"Best Day", utils.FormatPct(p.BestDay)},
			{"Worst Day", utils.FormatPct(p.WorstDay)},
			{"Mean Daily Return", fmt.Sprintf("%+.3f%%", p.MeanReturn)},
			{"Median Daily Return", fmt.Sprintf("%+.3f%%", p.MedianReturn)},
			{"Win Rate", fmt.Sprintf("%.1f%%", p.WinRate)},
			{"Max Win Streak", fmt.Sprintf("%d", p.MaxWinStreak)},
			{"Max Loss Streak", fmt.Sprintf("%d", p.MaxLossStreak)},
		}
		for _, r := range rows {
			fmt.Fprintf(&sb, "| %s | %s |\n", r[0], r[1])
		}
		sb.WriteString("\n")
	}

	if s := a.Returns; s != nil && s.Count > 0 {
		sb.WriteString("## Daily Return Distribution\n\n")
		sb.WriteString("| Mean | Median | Std | Skew | Kurtosis | P10 | P25 | P75 | P90 |\n|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		fmt.Fprintf(&sb, "| %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f |\n\n",
			s.Mean, s.Median, s.Std, s.Skewness, s.Kurtosis,
			s.Percentiles.P10, s.Percentiles.P25, s.Percentiles.P75, s.Percentiles.P90)
	}

	if len(a.Risk) > 0 {
		sb.WriteString("## Value at Risk\n\n| Method | Confidence | VaR | CVaR |\n|---|---:|---:|---:|\n")
		for _, v := range a.Risk {
			fmt.Fprintf(&sb, "| %s | %.0f%% | %.3f%% | %.3f%% |\n", v.Method, v.Confidence*100, v.VaR, v.CVaR)
		}
		sb.WriteString("\n")
	}

	if len(a.Yearly) > 0 {
		sb.WriteString("## Yearly Returns\n\n| Year | Start | End | Return | Days | Win Rate | Best | Worst |\n|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, y := range a.Yearly {
			fmt.Fprintf(&sb, "| %d | %.2f | %.2f | %s | %d | %.1f%% | %s | %s |\n",
				y.Year, y.StartPrice, y.EndPrice, utils.FormatPct(y.Return), y.TradingDays,
				y.WinRate, utils.FormatPct(y.BestDay), utils.FormatPct(y.WorstDay))
		}
		sb.WriteString("\n")
	}

	if ind := a.Technical; ind != nil {
		writeTechnicalMarkdown(&sb, ind, a.Signals, a.Bias)
	}

	writeGroupsMarkdown(&sb, "Pattern Comparison", a.Patterns)
	writeGroupsMarkdown(&sb, "Day of Week", a.Weekdays)
	writeGroupsMarkdown(&sb, "Month of Year", a.Months)
	writeGroupsMarkdown(&sb, "Sessions", a.Sessions)
	if best, ok := patterns.Best(a.Patterns); ok {
		fmt.Fprintf(&sb, "Best pattern by median return: **%s** (%+.3f%%, win rate %.1f%%)\n\n",
			best.Label, best.Summary.Median, best.Summary.WinRate)
	}
	for _, f := range a.Focus {
		if f == nil {
			continue
		}
		fmt.Fprintf(&sb, "### %s by Year\n\n| Year | Days | Mean | Median | Win Rate |\n|---|---:|---:|---:|---:|\n", f.Name)
		for _, y := range f.Yearly {
			fmt.Fprintf(&sb, "| %d | %d | %+.3f%% | %+.3f%% | %.1f%% |\n",
				y.Year, y.Summary.Count, y.Summary.Mean, y.Summary.Median, y.Summary.WinRate)
		}
		sb.WriteString("\n")
	}

	if a.Market != nil {
		sb.WriteString(MarketMarkdown(a.Market))
	}

	sb.WriteString("---\n\n_" + Disclaimer + "_\n")
	return sb.String()
}

func writeTechnicalMarkdown(sb *strings.Builder, ind *technical.Indicators, signals []technical.Signal, bias *technical.Bias) {
	l := ind.Latest
	sb.WriteString("## Technical Indicators\n\n| Indicator | Value |\n|---|---:|\n")
	fmt.Fprintf(sb, "| Close | %.2f |\n", l.Close)
	periods := make([]int, 0, len(l.MA))
	for p := range l.MA {
		periods = append(periods, p)
	}
	slices.Sort(periods)
	for _, p := range periods {
		fmt.Fprintf(sb, "| SMA %d | %s |\n", p, utils.FormatRatio(l.MA[p], 2))
	}
	fmt.Fprintf(sb, "| RSI | %s |\n", utils.FormatRatio(l.RSI, 2))
	fmt.Fprintf(sb, "| MACD / Signal / Hist | %s / %s / %s |\n",
		utils.FormatRatio(l.MACD.MACD, 2), utils.FormatRatio(l.MACD.Signal, 2), utils.FormatRatio(l.MACD.Histogram, 2))
	fmt.Fprintf(sb, "| Bollinger Upper / Lower | %s / %s |\n",
		utils.FormatRatio(l.Bollinger.Upper, 2), utils.FormatRatio(l.Bollinger.Lower, 2))
	fmt.Fprintf(sb, "| ATR | %s |\n\n", utils.FormatRatio(l.ATR, 2))

	if len(signals) > 0 {
		sb.WriteString("| Source | Signal | Confidence | Reason |\n|---|---|---:|---|\n")
		for _, s := range signals {
			fmt.Fprintf(sb, "| %s | %s | %.0f%% | %s |\n", s.Source, s.Type, s.Confidence*100, s.Reason)
		}
		sb.WriteString("\n")
	}
	if bias != nil {
		fmt.Fprintf(sb, "Overall bias: **%s** (confidence %.0f%%)\n\n", bias.Label, bias.Confidence*100)
	}
}

func writeGroupsMarkdown(sb *strings.Builder, title string, groups []patterns.Group) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n| Group | Days | Mean | Median | Std | Win Rate |\n|---|---:|---:|---:|---:|---:|\n", title)
	for _, g := range groups {
		fmt.Fprintf(sb, "| %s | %d | %+.3f%% | %+.3f%% | %.3f%% | %.1f%% |\n",
			g.Label, g.Summary.Count, g.Summary.Mean, g.Summary.Median, g.Summary.Std, g.Summary.WinRate)
	}
	sb.WriteString("\n")
}

// MarketMarkdown renders the market-metrics summary. Sections without data
// are omitted.
func MarketMarkdown(r *market.Report) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Market Metrics\n\n")

	if mc := r.MarketCap; mc != nil {
		sb.WriteString("### Market Capitalisation\n\n| Metric | Value |\n|---|---:|\n")
		fmt.Fprintf(&sb, "| Current | %s |\n| High | %s |\n| Low | %s |\n| Mean | %s |\n",
			utils.FormatCrores(mc.Current), utils.FormatCrores(mc.High), utils.FormatCrores(mc.Low), utils.FormatCrores(mc.Mean))
		fmt.Fprintf(&sb, "| Total Growth | %s |\n| CAGR | %s |\n| Days | %d |\n\n",
			utils.FormatPct(mc.TotalGrowth), utils.FormatPct(mc.CAGR), mc.Days)
		sb.WriteString("| Year | First | Last | Mean | Growth |\n|---|---:|---:|---:|---:|\n")
		for _, y := range mc.Yearly {
			fmt.Fprintf(&sb, "| %d | %.0f | %.0f | %.0f | %s |\n", y.Year, y.First, y.Last, y.Mean, utils.FormatPct(y.Growth))
		}
		sb.WriteString("\n")
	}

	if lq := r.Liquidity; lq != nil {
		sb.WriteString("### Liquidity\n\n| Measure | Mean | Median | Max |\n|---|---:|---:|---:|\n")
		fmt.Fprintf(&sb, "| Volume | %s | %s | %s |\n",
			utils.FormatLargeNumber(lq.Volume.Mean), utils.FormatLargeNumber(lq.Volume.Median), utils.FormatLargeNumber(lq.Volume.Max))
		if lq.Trades != nil {
			fmt.Fprintf(&sb, "| Trades | %s | %s | %s |\n",
				utils.FormatLargeNumber(lq.Trades.Mean), utils.FormatLargeNumber(lq.Trades.Median), utils.FormatLargeNumber(lq.Trades.Max))
		}
		if lq.Value != nil {
			fmt.Fprintf(&sb, "| Value | %s | %s | %s |\n",
				utils.FormatLargeNumber(lq.Value.Mean), utils.FormatLargeNumber(lq.Value.Median), utils.FormatLargeNumber(lq.Value.Max))
		}
		if !math.IsNaN(lq.VolumePerTrade) && lq.VolumePerTrade > 0 {
			fmt.Fprintf(&sb, "\nAverage volume per trade: %.1f\n", lq.VolumePerTrade)
		}
		sb.WriteString("\n")
	}

	if v := r.Valuation; v != nil {
		sb.WriteString("### Price-to-Book\n\n| Metric | Value |\n|---|---:|\n")
		fmt.Fprintf(&sb, "| Current | %.2f |\n| Mean | %.2f |\n| Median | %.2f |\n| Range | %.2f to %.2f |\n",
			v.Current, v.Mean, v.Median, v.Min, v.Max)
		fmt.Fprintf(&sb, "| Zones (P25 / P50 / P75) | %.2f / %.2f / %.2f |\n| Status | **%s** |\n\n",
			v.Zones.P25, v.Zones.P50, v.Zones.P75, v.Status)
	}
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Bulk ranking: markdown
// ════════════════════════════════════════════════════════════════════

// RankingMarkdown renders a bulk ranking: the top n entries (all when n <= 0),
// sector leaders, sector averages, the tier distribution and failures.
func RankingMarkdown(r *bulk.Ranking, n int) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Bulk Fundamental Ranking\n\n")
	fmt.Fprintf(&sb, "**Generated**: %s | **Run**: `%s` | **Companies**: %d scored, %d failed | **Elapsed**: %s\n\n",
		utils.FormatDateTimeIST(r.GeneratedAt), r.RunID, len(r.Entries), len(r.Failures), FormatDuration(r.Elapsed))

	top := r.Top(n, "")
	fmt.Fprintf(&sb, "## Top %d\n\n", len(top))
	sb.WriteString("| Rank | Symbol | Company | Sector | Price | Market Cap | Score | Tier | Action |\n|---:|---|---|---|---:|---:|---:|---|---|\n")
	for _, e := range top {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s | %.2f | %s | %s |\n",
			e.Rank, e.Symbol, e.Company, e.Sector, utils.FormatRupees(e.CurrentPrice), utils.FormatCrores(e.MarketCap),
			e.FinalScore, e.Tier, e.Action)
	}

	if leaders := r.SectorLeaders(); len(leaders) > 0 {
		sb.WriteString("\n## Sector Leaders\n\n| Sector | Symbol | Company | Score | Tier |\n|---|---|---|---:|---|\n")
		for _, e := range leaders {
			fmt.Fprintf(&sb, "| %s | %s | %s | %.2f | %s |\n", e.Sector, e.Symbol, e.Company, e.FinalScore, e.Tier)
		}
	}

	if sectors := r.SectorSummary(); len(sectors) > 0 {
		sb.WriteString("\n## Sector Averages\n\n| Sector | Avg Score | Companies | Leader |\n|---|---:|---:|---|\n")
		for _, s := range sectors {
			fmt.Fprintf(&sb, "| %s | %.2f | %d | %s |\n", s.Sector, s.AverageScore, s.Companies, s.Leader)
		}
	}

	sb.WriteString("\n## Rating Distribution\n\n| Tier | Companies | Share |\n|---|---:|---:|\n")
	for _, d := range r.RatingDistribution() {
		pct := 0.0
		if len(r.Entries) > 0 {
			pct = float64(d.Count) / float64(len(r.Entries)) * 100
		}
		fmt.Fprintf(&sb, "| %s | %d | %.1f%% |\n", d.Tier, d.Count, pct)
	}

	if len(r.Failures) > 0 {
		sb.WriteString("\n## Failures\n\n| Symbol | Company | Error |\n|---|---|---|\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", f.Symbol, f.Company, strings.ReplaceAll(f.Reason, "|", `\|`))
		}
	}

	sb.WriteString("\n---\n\n_" + Disclaimer + "_\n")
	return sb.String()
}

// RankingChart plots the final scores of entries coloured by tier.
func RankingChart(entries []bulk.Entry, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Fundamental Scores")
	items := make([]BarItem, len(entries))
	for i, e := range entries {
		items[i] = BarItem{Label: e.Symbol, Value: e.FinalScore, Color: scoreColor(e.FinalScore)}
	}
	cfg.Height = max(cfg.Height, 28*len(items)+cfg.MarginTop+cfg.MarginBottom)
	return HorizontalBarChart(items, cfg)
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func categoriesByScore(res *scoring.Result) []scoring.CategoryScore {
	out := slices.Clone(res.Categories)
	slices.SortStableFunc(out, func(a, b scoring.CategoryScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func rawValue(m scoring.ScoredMetric) string {
	return fundamental.FormatValue(scoring.MetricDefinition{Unit: m.Unit}, m.RawValue)
}

// stars maps a percentage onto one to five stars.
func stars(pct float64) string {
	n := 1
	switch {
	case pct >= 80:
		n = 5
	case pct >= 60:
		n = 4
	case pct >= 40:
		n = 3
	case pct >= 20:
		n = 2
	}
	return strings.Repeat("★", n)
}

func center(s string, width int) string {
	pad := max((width-len(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}

// FormatDuration formats an elapsed time for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}
