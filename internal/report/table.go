package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/seenimoa/equiscore/internal/analysis/patterns"
	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/internal/bulk"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// Tier colours for console tables.
var (
	ExcellentColor    = color.New(color.FgGreen, color.Bold)
	GoodColor         = color.New(color.FgGreen)
	AverageColor      = color.New(color.FgYellow)
	BelowAverageColor = color.New(color.FgMagenta)
	PoorColor         = color.New(color.FgRed, color.Bold)
)

// ColorEnabled reports whether f is a terminal that should receive colour.
func ColorEnabled(f *os.File) bool {
	return !color.NoColor && term.IsTerminal(int(f.Fd()))
}

// TierLabel returns tier, coloured when enabled.
func TierLabel(tier string, enabled bool) string {
	if !enabled {
		return tier
	}
	var c *color.Color
	switch tier {
	case scoring.LabelExcellent:
		c = ExcellentColor
	case scoring.LabelGood, scoring.LabelVeryGood:
		c = GoodColor
	case scoring.LabelAverage:
		c = AverageColor
	case scoring.LabelBelowAverage:
		c = BelowAverageColor
	case scoring.LabelPoor, scoring.LabelMissing:
		c = PoorColor
	default:
		return tier
	}
	return c.Sprint(tier)
}

func render(w io.Writer, headers []string, data [][]string, align tw.Align) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = align
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// ScoreTable writes one row per scored metric.
func ScoreTable(w io.Writer, res *scoring.Result, colour bool) error {
	var data [][]string
	for _, m := range res.Metrics {
		data = append(data, []string{
			m.Label,
			string(m.Category),
			rawValue(m),
			fmt.Sprintf("%.1f", m.Score),
			fmt.Sprintf("%.0f%%", m.Weight*100),
			TierLabel(m.Interpretation, colour),
		})
	}
	return render(w, []string{"Metric", "Category", "Value", "Score", "Weight", "Interpretation"}, data, tw.AlignLeft)
}

// CategoryTable writes the category breakdown of res.
func CategoryTable(w io.Writer, res *scoring.Result, colour bool) error {
	var data [][]string
	for _, c := range res.Categories {
		data = append(data, []string{
			string(c.Category),
			fmt.Sprintf("%.2f", c.Score),
			fmt.Sprintf("%.2f", c.MaxPossible),
			fmt.Sprintf("%.1f%%", c.PercentOfMax),
			strconv.Itoa(c.NumMetrics),
			TierLabel(c.Rating, colour),
		})
	}
	data = append(data, []string{"Final Score", fmt.Sprintf("%.2f", res.FinalScore), "100.00", "", "", TierLabel(res.Tier, colour)})
	return render(w, []string{"Category", "Score", "Max", "% of Max", "Metrics", "Rating"}, data, tw.AlignLeft)
}

// RankingTable writes ranked bulk entries.
func RankingTable(w io.Writer, entries []bulk.Entry, colour bool) error {
	var data [][]string
	for _, e := range entries {
		data = append(data, []string{
			strconv.Itoa(e.Rank),
			e.Symbol,
			e.Company,
			e.Sector,
			utils.FormatRupees(e.CurrentPrice),
			utils.FormatCrores(e.MarketCap),
			fmt.Sprintf("%.2f", e.FinalScore),
			TierLabel(e.Tier, colour),
			e.Action,
		})
	}
	return render(w, []string{"Rank", "Symbol", "Company", "Sector", "Price", "Market Cap", "Score", "Tier", "Action"}, data, tw.AlignLeft)
}

// SectorTable writes the sector summary of a ranking.
func SectorTable(w io.Writer, sectors []bulk.SectorStat) error {
	var data [][]string
	for _, s := range sectors {
		data = append(data, []string{s.Sector, fmt.Sprintf("%.2f", s.AverageScore), strconv.Itoa(s.Companies), s.Leader})
	}
	return render(w, []string{"Sector", "Avg Score", "Companies", "Leader"}, data, tw.AlignLeft)
}

// DistributionTable writes the tier distribution of a ranking.
func DistributionTable(w io.Writer, dist []bulk.TierCount, colour bool) error {
	total := 0
	for _, d := range dist {
		total += d.Count
	}
	var data [][]string
	for _, d := range dist {
		pct := 0.0
		if total > 0 {
			pct = float64(d.Count) / float64(total) * 100
		}
		data = append(data, []string{TierLabel(d.Tier, colour), strconv.Itoa(d.Count), fmt.Sprintf("%.1f%%", pct)})
	}
	return render(w, []string{"Tier", "Companies", "Share"}, data, tw.AlignLeft)
}

// MetricsTable writes the registered metric definitions.
func MetricsTable(w io.Writer, reg *scoring.Registry) error {
	var data [][]string
	for _, d := range reg.Definitions() {
		acceptable := fmt.Sprintf(">= %g", d.AcceptableMin)
		if d.Direction == scoring.LowerIsBetter {
			acceptable = fmt.Sprintf("<= %g", d.EffectiveAcceptableMax())
		}
		data = append(data, []string{
			d.Name,
			d.Label,
			string(d.Category),
			fmt.Sprintf("%.0f%%", d.Weight*100),
			d.Direction.String(),
			fmt.Sprintf("%g to %g", d.IdealMin, d.IdealMax),
			acceptable,
		})
	}
	return render(w, []string{"Name", "Metric", "Category", "Weight", "Direction", "Ideal", "Acceptable"}, data, tw.AlignLeft)
}

// GroupTable writes pattern groups with their return statistics.
func GroupTable(w io.Writer, groups []patterns.Group) error {
	var data [][]string
	for _, g := range groups {
		s := g.Summary
		data = append(data, []string{
			g.Label,
			strconv.Itoa(s.Count),
			fmt.Sprintf("%+.3f", s.Mean),
			fmt.Sprintf("%+.3f", s.Median),
			fmt.Sprintf("%.3f", s.Std),
			fmt.Sprintf("%.1f", s.WinRate),
		})
	}
	return render(w, []string{"Group", "Days", "Mean %", "Median %", "Std %", "Win Rate %"}, data, tw.AlignRight)
}

// YearlyTable writes per-year returns.
func YearlyTable(w io.Writer, years []stats.YearlyReturn) error {
	var data [][]string
	for _, y := range years {
		data = append(data, []string{
			strconv.Itoa(y.Year),
			fmt.Sprintf("%.2f", y.StartPrice),
			fmt.Sprintf("%.2f", y.EndPrice),
			utils.FormatPct(y.Return),
			strconv.Itoa(y.TradingDays),
			fmt.Sprintf("%.1f", y.WinRate),
		})
	}
	return render(w, []string{"Year", "Start", "End", "Return", "Days", "Win Rate %"}, data, tw.AlignRight)
}
