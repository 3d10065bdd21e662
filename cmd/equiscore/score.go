package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/internal/datasource"
	"github.com/seenimoa/equiscore/internal/report"
	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// --- Score Command ---

var scoreCmd = &cobra.Command{
	Use:   "score [snapshot.json|snapshot.yaml|SYMBOL]",
	Short: "Score one company's fundamentals",
	Long: `Compute and score the fourteen fundamental metrics of one company.

The argument is a snapshot file, or a symbol looked up in data.dir.

Examples:
  equiscore score data/ETERNAL.json
  equiscore score TCS --year 2023 -f markdown -o output/TCS.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		reg, err := registry()
		if err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")
		if !cmd.Flags().Changed("year") {
			year = cfg.Scoring.BaseYear
		}

		card, err := fundamental.Analyze(snap, year, reg)
		if err != nil {
			return err
		}
		log.WithFields(map[string]any{
			"symbol": card.Company.Symbol,
			"year":   card.Year,
			"score":  card.Result.FinalScore,
		}).Info("company scored")

		format, out, err := outputOf(cmd)
		if err != nil {
			return err
		}
		now := time.Now()
		switch format {
		case report.FormatText:
			return emit(out, func(w io.Writer) error {
				if _, err := io.WriteString(w, report.ScoreText(card, now)); err != nil {
					return err
				}
				if tables, _ := cmd.Flags().GetBool("tables"); tables {
					if err := report.CategoryTable(w, card.Result, colour(out)); err != nil {
						return err
					}
					return report.ScoreTable(w, card.Result, colour(out))
				}
				return nil
			})
		case report.FormatMarkdown:
			return emit(out, writeString(report.ScoreMarkdown(card, now)))
		case report.FormatHTML:
			html, err := report.ScoreHTML(card, now)
			if err != nil {
				return err
			}
			return emit(out, writeString(html))
		case report.FormatJSON:
			return emit(out, func(w io.Writer) error { return report.WriteJSON(w, card) })
		case report.FormatCSV:
			return emit(out, func(w io.Writer) error { return report.ScoreCSV(w, card.Result, cfg.Output.Precision) })
		default:
			return unsupported(format, "score")
		}
	},
}

func init() {
	scoreCmd.Flags().Int("year", 0, "fiscal year to score (default: scoring.base_year, 0 = latest)")
	scoreCmd.Flags().Bool("tables", false, "append category and metric tables to text output")
}

// loadSnapshot reads arg as a file when it exists, otherwise as a symbol in
// data.dir.
func loadSnapshot(ctx context.Context, arg string) (*models.Snapshot, error) {
	if _, err := os.Stat(arg); err == nil {
		return datasource.LoadSnapshot(arg)
	}
	dir, err := datasource.NewDir(cfg.Data.Dir, 0, log)
	if err != nil {
		return nil, fmt.Errorf("%s is not a file and %w", arg, err)
	}
	return dir.Snapshot(ctx, utils.NormalizeSymbol(arg))
}

// loadPrices reads arg as a price CSV when it exists, otherwise as a symbol
// in data.dir.
func loadPrices(ctx context.Context, arg string) ([]models.Bar, string, error) {
	if _, err := os.Stat(arg); err == nil {
		bars, err := datasource.LoadPrices(arg)
		return bars, utils.SymbolFromPath(arg), err
	}
	dir, err := datasource.NewDir(cfg.Data.Dir, 0, log)
	if err != nil {
		return nil, "", fmt.Errorf("%s is not a file and %w", arg, err)
	}
	symbol := utils.NormalizeSymbol(arg)
	bars, err := dir.Prices(ctx, symbol)
	return bars, symbol, err
}
