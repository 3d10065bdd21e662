package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/equiscore/internal/analysis/patterns"
	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/internal/report"
	"github.com/seenimoa/equiscore/pkg/models"
)

// priceOutput renders a price analysis in the requested format. csv writes
// the command's own table; charts are embedded in HTML output.
type priceOutput struct {
	command string
	csv     func(io.Writer) error
	text    func(io.Writer) error
	charts  func() []string
}

func renderPrice(cmd *cobra.Command, a *report.PriceAnalysis, po priceOutput) error {
	format, out, err := outputOf(cmd)
	if err != nil {
		return err
	}
	now := time.Now()
	switch format {
	case report.FormatText:
		if po.text != nil {
			return emit(out, po.text)
		}
		return emit(out, writeString(report.PriceMarkdown(a, now)))
	case report.FormatMarkdown:
		return emit(out, writeString(report.PriceMarkdown(a, now)))
	case report.FormatHTML:
		var charts []string
		if po.charts != nil {
			charts = po.charts()
		}
		html, err := report.RenderHTML(a.Symbol+": "+po.command, report.PriceMarkdown(a, now), now, charts...)
		if err != nil {
			return err
		}
		return emit(out, writeString(html))
	case report.FormatJSON:
		return emit(out, func(w io.Writer) error { return report.WriteJSON(w, a) })
	case report.FormatCSV:
		if po.csv == nil {
			return unsupported(format, po.command)
		}
		return emit(out, po.csv)
	default:
		return unsupported(format, po.command)
	}
}

// priceOptions applies the analysis section of the config.
func priceOptions() report.PriceOptions {
	opts := report.DefaultPriceOptions()
	if len(cfg.Analysis.MAPeriods) > 0 {
		opts.Params.MAPeriods = cfg.Analysis.MAPeriods
	}
	opts.Params.RSIPeriod = cfg.Analysis.RSIPeriod
	opts.TradingDays = cfg.Analysis.TradingDays
	opts.VaRConfidence = cfg.Analysis.VaRConfidence
	return opts
}

func loadBars(cmd *cobra.Command, arg string) ([]models.Bar, string, error) {
	bars, symbol, err := loadPrices(cmd.Context(), arg)
	if err != nil {
		return nil, "", err
	}
	if len(bars) == 0 {
		return nil, "", fmt.Errorf("%s: %w", arg, report.ErrNoPrices)
	}
	log.WithFields(map[string]any{"symbol": symbol, "rows": len(bars)}).Debug("prices loaded")
	return bars, symbol, nil
}

// --- Technical Command ---

var technicalCmd = &cobra.Command{
	Use:   "technical [prices.csv|SYMBOL]",
	Short: "Technical indicators, signals, performance and risk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bars, symbol, err := loadBars(cmd, args[0])
		if err != nil {
			return err
		}

		a, err := report.TechnicalAnalysis(symbol, bars, priceOptions())
		if err != nil {
			return err
		}
		if a.Performance == nil {
			log.WithField("symbol", symbol).Warn("performance skipped, series too short")
		}
		ind, bias := a.Technical, a.Bias

		log.WithFields(map[string]any{"symbol": symbol, "bias": bias.Label, "signals": len(a.Signals)}).Info("technical analysis complete")

		return renderPrice(cmd, a, priceOutput{
			command: "Technical Analysis",
			csv: func(w io.Writer) error {
				return report.IndicatorsCSV(w, ind, cfg.Output.Precision)
			},
			charts: func() []string {
				return []string{report.PriceChart(bars, ind.MA, report.ChartConfig{Title: symbol + " Price"})}
			},
		})
	},
}

// --- Patterns Command ---

var patternsCmd = &cobra.Command{
	Use:   "patterns [prices.csv|SYMBOL]",
	Short: "Calendar and session return patterns",
	Long: `Compare daily returns across calendar patterns: weekdays, months,
April, Wednesdays, month-end sessions and first Mondays, plus overnight
versus intraday sessions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bars, symbol, err := loadBars(cmd, args[0])
		if err != nil {
			return err
		}
		a, err := report.PatternAnalysis(symbol, bars)
		if err != nil {
			return err
		}

		perDay, _ := cmd.Flags().GetBool("days")
		return renderPrice(cmd, a, priceOutput{
			command: "Pattern Analysis",
			csv: func(w io.Writer) error {
				if perDay {
					return report.DaysCSV(w, patterns.Enrich(bars), cfg.Output.Precision)
				}
				return report.GroupsCSV(w, a.AllGroups(), cfg.Output.Precision)
			},
			text: func(w io.Writer) error {
				for _, section := range []struct {
					title  string
					groups []patterns.Group
				}{
					{"Pattern Comparison", a.Patterns},
					{"Day of Week", a.Weekdays},
					{"Month of Year", a.Months},
					{"Sessions", a.Sessions},
				} {
					if len(section.groups) == 0 {
						continue
					}
					fmt.Fprintf(w, "\n%s: %s\n", symbol, section.title)
					if err := report.GroupTable(w, section.groups); err != nil {
						return err
					}
				}
				if best, ok := patterns.Best(a.Patterns); ok {
					fmt.Fprintf(w, "\nBest pattern by median return: %s (%+.3f%%)\n", best.Label, best.Summary.Median)
				}
				return nil
			},
			charts: func() []string {
				items := make([]report.BarItem, len(a.Patterns))
				for i, g := range a.Patterns {
					items[i] = report.BarItem{Label: g.Label, Value: g.Summary.Median}
				}
				return []string{report.HorizontalBarChart(items, report.ChartConfig{Title: "Median Daily Return by Pattern (%)"})}
			},
		})
	},
}

func init() {
	patternsCmd.Flags().Bool("days", false, "csv output lists every enriched trading day instead of group statistics")
}

// --- Market Command ---

var marketCmd = &cobra.Command{
	Use:   "market [prices.csv|SYMBOL]",
	Short: "Market capitalisation, liquidity and price-to-book history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bars, symbol, err := loadBars(cmd, args[0])
		if err != nil {
			return err
		}
		a, err := report.MarketAnalysis(symbol, bars)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		mr := a.Market

		return renderPrice(cmd, a, priceOutput{
			command: "Market Metrics",
			csv: func(w io.Writer) error {
				if mr.MarketCap == nil {
					return fmt.Errorf("%s: no market-cap column", args[0])
				}
				return report.MarketCapCSV(w, mr.MarketCap, cfg.Output.Precision)
			},
			text: func(w io.Writer) error {
				_, err := io.WriteString(w, report.MarketMarkdown(mr))
				if err == nil && mr.MarketCap != nil {
					err = report.YearlyTable(w, stats.YearlyReturns(bars))
				}
				return err
			},
			charts: func() []string {
				if mr.Valuation == nil {
					return nil
				}
				return []string{report.ValuationBandChart(bars, mr.Valuation.Zones, report.ChartConfig{Title: symbol + " P/BV Band"})}
			},
		})
	},
}
