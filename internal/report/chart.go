// Package report renders scorecards, rankings and analyzer results as
// terminal text, markdown, HTML pages with inline SVG charts, and CSV, JSON
// or Parquet exports.
package report

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/seenimoa/equiscore/internal/analysis/market"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Charts
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // default 800
	Height       int    // default 400
	MarginTop    int    // default 40
	MarginRight  int    // default 60
	MarginBottom int    // default 50
	MarginLeft   int    // default 70
	Background   string // default "#ffffff"
	GridColor    string // default "#e8e8e8"
	TextColor    string // default "#333333"
	FontSize     int    // default 11
	Title        string
}

// DefaultChartConfig returns the standard chart geometry.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		Background:   "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// withDefaults fills a zero config and sets title when none is given.
func (c ChartConfig) withDefaults(title string) ChartConfig {
	if c.Width == 0 {
		t := c.Title
		c = DefaultChartConfig()
		c.Title = t
	}
	if c.Title == "" {
		c.Title = title
	}
	return c
}

// plotArea returns the usable drawing area.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// tierColors maps score tiers to fills shared by every score chart.
var tierColors = map[string]string{
	scoring.LabelExcellent:    "#16a34a",
	scoring.LabelGood:         "#65a30d",
	scoring.LabelAverage:      "#ca8a04",
	scoring.LabelBelowAverage: "#ea580c",
	scoring.LabelPoor:         "#dc2626",
}

func scoreColor(score float64) string {
	return tierColors[scoring.Tier(score)]
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// Series is a named data series for line charts. NaN points are gaps.
type Series struct {
	Name   string
	Values []float64
	Color  string // auto-assigned if empty
}

var seriesColors = []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}

// LineChart plots one or more series against optional x-axis labels.
func LineChart(series []Series, labels []string, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Line Chart")
	if len(series) == 0 {
		return emptySVG(cfg, "No data")
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	maxLen := 0
	for _, s := range series {
		maxLen = max(maxLen, len(s.Values))
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxLen == 0 || math.IsInf(minVal, 1) {
		return emptySVG(cfg, "No data points")
	}

	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	xAt := func(i int) float64 {
		if maxLen == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(maxLen-1)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	writeFrame(&sb, cfg)

	const gridLines = 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.1f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val)
	}

	for si, s := range series {
		color := s.Color
		if color == "" {
			color = seriesColors[si%len(seriesColors)]
		}

		var path []string
		for i, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			cy := float64(py+ph) - (v-minVal)/vRange*float64(ph)
			cmd := "L"
			if len(path) == 0 {
				cmd = "M"
			}
			path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), cy))
		}
		if len(path) > 1 {
			fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(path, " "), color)
		}
		writeLegend(&sb, cfg, si, s.Name, color)
	}

	if len(labels) > 0 {
		interval := max(maxLen/6, 1)
		for i := 0; i < len(labels) && i < maxLen; i += interval {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
				xAt(i), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i]))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// PriceChart plots closing prices with the given moving averages.
func PriceChart(bars []models.Bar, ma map[int][]float64, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Price")
	if len(bars) == 0 {
		return emptySVG(cfg, "No price data")
	}
	labels := make([]string, len(bars))
	for i, b := range bars {
		labels[i] = b.Date.Format("Jan 06")
	}
	series := []Series{{Name: "Close", Values: models.Closes(bars), Color: "#1e3a8a"}}
	periods := make([]int, 0, len(ma))
	for p := range ma {
		periods = append(periods, p)
	}
	slices.Sort(periods)
	for _, p := range periods {
		series = append(series, Series{Name: fmt.Sprintf("SMA %d", p), Values: ma[p]})
	}
	return LineChart(series, labels, cfg)
}

// ValuationBandChart draws the P/BV history of bars against its 25th, 50th
// and 75th percentile zones.
func ValuationBandChart(bars []models.Bar, zones market.Zones, cfg ChartConfig) string {
	cfg = cfg.withDefaults("P/BV Band")
	var values []float64
	var labels []string
	for _, b := range bars {
		if math.IsNaN(b.PriceToBook) {
			continue
		}
		values = append(values, b.PriceToBook)
		labels = append(labels, b.Date.Format("Jan 06"))
	}
	if len(values) == 0 {
		return emptySVG(cfg, "No valuation data")
	}
	flat := func(v float64) []float64 {
		out := make([]float64, len(values))
		for i := range out {
			out[i] = v
		}
		return out
	}
	return LineChart([]Series{
		{Name: "P/BV", Values: values, Color: "#2196f3"},
		{Name: "P25", Values: flat(zones.P25), Color: "#16a34a"},
		{Name: "Median", Values: flat(zones.P50), Color: "#9ca3af"},
		{Name: "P75", Values: flat(zones.P75), Color: "#dc2626"},
	}, labels, cfg)
}

// ════════════════════════════════════════════════════════════════════
// Bar Chart (Horizontal)
// ════════════════════════════════════════════════════════════════════

// BarItem is a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // green/red by sign if empty
}

// HorizontalBarChart renders labelled bars, with a zero line when any value
// is negative.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Comparison")
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg.MarginLeft = max(cfg.MarginLeft, 180)

	px, py, pw, ph := cfg.plotArea()

	maxVal, minVal := 0.0, 0.0
	for _, item := range items {
		maxVal = math.Max(maxVal, item.Value)
		minVal = math.Min(minVal, item.Value)
	}
	negative := minVal < 0
	valRange := maxVal - minVal
	if valRange < 0.001 {
		valRange = 1
	}

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 30)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	writeFrame(&sb, cfg)

	zeroX := float64(px)
	if negative {
		zeroX = float64(px) + (-minVal/valRange)*float64(pw)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
			zeroX, py, zeroX, py+ph)
	}

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = "#4caf50"
			if item.Value < 0 {
				color = "#ef5350"
			}
		}

		bw := math.Abs(item.Value) / valRange * float64(pw)
		bx := zeroX
		if item.Value < 0 {
			bx = zeroX - bw
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%.1f</text>`,
			bx+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, item.Value)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// MetricScoreChart plots every normalized metric score coloured by tier.
func MetricScoreChart(res *scoring.Result, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Metric Scores")
	if res == nil {
		return emptySVG(cfg, "No scores")
	}
	items := make([]BarItem, len(res.Metrics))
	for i, m := range res.Metrics {
		items[i] = BarItem{Label: m.Label, Value: m.Score, Color: scoreColor(m.Score)}
	}
	cfg.Height = max(cfg.Height, 28*len(items)+cfg.MarginTop+cfg.MarginBottom)
	return HorizontalBarChart(items, cfg)
}

// CategoryChart plots each category as a percentage of its maximum.
func CategoryChart(res *scoring.Result, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Category Performance (% of max)")
	if res == nil {
		return emptySVG(cfg, "No scores")
	}
	items := make([]BarItem, len(res.Categories))
	for i, c := range res.Categories {
		items[i] = BarItem{Label: string(c.Category), Value: c.PercentOfMax, Color: scoreColor(c.PercentOfMax)}
	}
	return HorizontalBarChart(items, cfg)
}

// ════════════════════════════════════════════════════════════════════
// Gauge
// ════════════════════════════════════════════════════════════════════

// GaugeChart renders a semicircular dial for a 0-100 value, coloured by the
// score tier it falls in.
func GaugeChart(value float64, label string, width int) string {
	if width == 0 {
		width = 200
	}
	height := width/2 + 30

	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20

	value = math.Max(0, math.Min(100, value))
	color := scoreColor(value)

	angle := math.Pi - (value/100)*math.Pi
	needleX := cx + radius*0.85*math.Cos(angle)
	needleY := cy - radius*0.85*math.Sin(angle)
	endX := cx + radius*math.Cos(angle)
	endY := cy - radius*math.Sin(angle)
	largeArc := 0
	if value > 50 {
		largeArc = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="white"/>`, width, height)
	fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy)
	fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A%.1f,%.1f 0 %d,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, largeArc, endX, endY, color)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/>`,
		cx, cy, needleX, needleY)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="#333"/>`, cx, cy)
	fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%.1f</text>`,
		cx, cy+25, color, value)
	fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="11" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(label))
	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func writeFrame(sb *strings.Builder, cfg ChartConfig) {
	fmt.Fprintf(sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.Background)
	fmt.Fprintf(sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
}

func writeLegend(sb *strings.Builder, cfg ChartConfig, i int, name, color string) {
	px, py, _, _ := cfg.plotArea()
	ly := py + 10 + i*16
	fmt.Fprintf(sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
		px+10, ly, px+30, ly, color)
	fmt.Fprintf(sb, `<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
		px+35, ly+4, cfg.TextColor, escapeXML(name))
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
