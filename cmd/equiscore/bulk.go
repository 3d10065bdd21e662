package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seenimoa/equiscore/internal/bulk"
	"github.com/seenimoa/equiscore/internal/datasource"
	"github.com/seenimoa/equiscore/internal/report"
)

// --- Bulk Command ---

var bulkCmd = &cobra.Command{
	Use:   "bulk [companies.csv]",
	Short: "Score and rank every company in a wide CSV",
	Long: `Score every company in a wide-format CSV (one row per company, one column
per statement line per fiscal year) in parallel and rank them.

Examples:
  equiscore bulk data/nifty50.csv --top 20
  equiscore bulk data/nifty50.csv --sector IT -f markdown -o output/it.md
  equiscore bulk data/nifty50.csv --export-dir output/run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snaps, rowErrs, err := datasource.LoadCompanies(args[0], log)
		if err != nil {
			return err
		}
		for _, re := range rowErrs {
			log.WithError(re.Err).WithFields(map[string]any{"line": re.Line, "symbol": re.Symbol}).Warn("row skipped")
		}

		reg, err := registry()
		if err != nil {
			return err
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Bulk.Workers
		}
		top, _ := cmd.Flags().GetInt("top")
		if !cmd.Flags().Changed("top") {
			top = cfg.Bulk.TopN
		}
		sector, _ := cmd.Flags().GetString("sector")

		r, err := bulk.New(bulk.Options{
			Workers:  workers,
			BaseYear: cfg.Scoring.BaseYear,
			Registry: reg,
			Log:      log,
		}).Run(cmd.Context(), snaps)
		if err != nil {
			return err
		}

		if dir, _ := cmd.Flags().GetString("export-dir"); dir != "" {
			return exportRanking(dir, r, top)
		}

		format, out, err := outputOf(cmd)
		if err != nil {
			return err
		}
		prec := cfg.Output.Precision
		switch format {
		case report.FormatText:
			return emit(out, func(w io.Writer) error { return rankingText(w, r, top, sector, colour(out)) })
		case report.FormatMarkdown:
			return emit(out, writeString(report.RankingMarkdown(r, top)))
		case report.FormatHTML:
			html, err := report.RenderHTML("Bulk Fundamental Ranking", report.RankingMarkdown(r, top), r.GeneratedAt,
				report.RankingChart(r.Top(top, sector), report.ChartConfig{}))
			if err != nil {
				return err
			}
			return emit(out, writeString(html))
		case report.FormatJSON:
			return emit(out, func(w io.Writer) error { return report.WriteJSON(w, r) })
		case report.FormatCSV:
			return emit(out, func(w io.Writer) error { return report.RankingCSV(w, r, prec) })
		case report.FormatParquet:
			if out == "" {
				return fmt.Errorf("parquet output needs --out")
			}
			return emit(out, func(w io.Writer) error { return report.RankingParquet(w, r, prec) })
		default:
			return unsupported(format, "bulk")
		}
	},
}

func init() {
	bulkCmd.Flags().Int("workers", 0, "parallel scoring workers (default: bulk.workers)")
	bulkCmd.Flags().Int("top", 0, "entries to show, 0 = all (default: bulk.top_n)")
	bulkCmd.Flags().String("sector", "", "only show companies in this sector")
	bulkCmd.Flags().String("export-dir", "", "write ranking.csv, ranking.json, ranking.parquet, failures.csv and ranking.md to this directory")
}

func rankingText(w io.Writer, r *bulk.Ranking, top int, sector string, colour bool) error {
	title := "Top Companies"
	if sector != "" {
		title = "Top Companies in " + sector
	}
	fmt.Fprintf(w, "\n%s (run %s, %d scored, %d failed, %s)\n",
		title, r.RunID, len(r.Entries), len(r.Failures), report.FormatDuration(r.Elapsed))
	if err := report.RankingTable(w, r.Top(top, sector), colour); err != nil {
		return err
	}
	if sector != "" {
		return nil
	}

	fmt.Fprintln(w, "\nSector Summary")
	if err := report.SectorTable(w, r.SectorSummary()); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nRating Distribution")
	if err := report.DistributionTable(w, r.RatingDistribution(), colour); err != nil {
		return err
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  ✗ %s: %s\n", f.Symbol, f.Reason)
	}
	return nil
}

// exportRanking writes every ranking artifact into dir.
func exportRanking(dir string, r *bulk.Ranking, top int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	prec := cfg.Output.Precision
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"ranking.csv", func(w io.Writer) error { return report.RankingCSV(w, r, prec) }},
		{"ranking.json", func(w io.Writer) error { return report.WriteJSON(w, r) }},
		{"ranking.parquet", func(w io.Writer) error { return report.RankingParquet(w, r, prec) }},
		{"failures.csv", func(w io.Writer) error { return report.FailuresCSV(w, r) }},
		{"ranking.md", writeString(report.RankingMarkdown(r, top))},
	}
	for _, f := range files {
		if err := emit(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	log.WithFields(map[string]any{"run_id": r.RunID, "dir": dir, "files": len(files)}).Info("ranking exported")
	return nil
}
