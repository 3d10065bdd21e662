// equiscore scores NSE equities on their fundamentals and studies their
// price history.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seenimoa/equiscore/internal/config"
	"github.com/seenimoa/equiscore/internal/report"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/logger"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg *config.Config
	log *logger.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "equiscore",
	Short: "Fundamental scoring and price analysis for NSE equities",
	Long: `equiscore scores companies on fourteen financial ratios, ranks whole
universes of companies in parallel, and analyses price history with
technical indicators, return statistics, calendar patterns and market metrics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; values then come from the config file and environment.
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		if cfg.File != "" {
			log.WithField("file", cfg.File).Debug("config loaded")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("out", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format: text, markdown, html, json, csv, parquet (default: output.format)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(technicalCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(bulkCmd)
}

// --- Shared helpers ---

// outputOf resolves the --format and --out flags against the config.
func outputOf(cmd *cobra.Command) (report.Format, string, error) {
	name, _ := cmd.Flags().GetString("format")
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return "", "", err
	}
	out, _ := cmd.Flags().GetString("out")
	return format, out, nil
}

// colour reports whether console tables should be coloured.
func colour(out string) bool {
	return cfg.Output.Color && out == "" && report.ColorEnabled(os.Stdout)
}

// emit writes s to out (stdout when empty) and logs the file written.
func emit(out string, write func(io.Writer) error) error {
	if err := report.WriteFile(out, write); err != nil {
		return err
	}
	if out != "" && out != "-" {
		log.WithField("file", out).Info("report written")
		fmt.Fprintf(os.Stderr, "Report written to %s\n", out)
	}
	return nil
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func unsupported(format report.Format, command string) error {
	return fmt.Errorf("%w: %s does not support %s output", report.ErrUnknownFormat, command, format)
}

// registry returns the default metric table with any configured weights.
func registry() (*scoring.Registry, error) {
	reg := scoring.DefaultRegistry()
	if len(cfg.Scoring.Weights) == 0 {
		return reg, nil
	}
	reg, err := reg.WithWeights(cfg.Scoring.Weights)
	if err != nil {
		return nil, fmt.Errorf("scoring.weights: %w", err)
	}
	return reg, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("equiscore %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and where each setting comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  equiscore: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(time.Now()))
		configFile := cfg.File
		if configFile == "" {
			configFile = "(none, defaults and environment)"
		}
		fmt.Printf("  Config file:   %s\n", configFile)

		reg, err := registry()
		if err != nil {
			fmt.Printf("  Registry:      ❌ %v\n", err)
		} else {
			fmt.Printf("  Registry:      ✅ %d metrics, weights sum to 1\n", reg.Len())
		}
		if info, err := os.Stat(cfg.Data.Dir); err == nil && info.IsDir() {
			fmt.Printf("  Data dir:      ✅ %s\n", cfg.Data.Dir)
		} else {
			fmt.Printf("  Data dir:      ❌ %s not found\n", cfg.Data.Dir)
		}
		fmt.Println()

		fmt.Println("  Settings:")
		for _, s := range config.Settings(cfg) {
			fmt.Printf("    %-25s %-20s (%s, %s)\n", s.Key+":", s.Value, s.Source, s.EnvVar)
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the scored metrics with their weights and bands",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}
		format, out, err := outputOf(cmd)
		if err != nil {
			return err
		}
		switch format {
		case report.FormatText:
			return emit(out, func(w io.Writer) error { return report.MetricsTable(w, reg) })
		case report.FormatJSON:
			return emit(out, func(w io.Writer) error { return report.WriteJSON(w, reg.Definitions()) })
		default:
			return unsupported(format, "metrics")
		}
	},
}
