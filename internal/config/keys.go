package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Source represents where a setting's value comes from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// Setting is the resolved value of one config key.
type Setting struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source Source `json:"source"`
	EnvVar string `json:"env_var"`
}

// trackedKeys are the settings reported by the status command.
var trackedKeys = []string{
	"logging.level",
	"logging.format",
	"scoring.base_year",
	"analysis.ma_periods",
	"analysis.rsi_period",
	"analysis.var_confidence",
	"analysis.trading_days",
	"bulk.workers",
	"bulk.top_n",
	"output.dir",
	"output.format",
	"output.precision",
	"output.color",
	"data.dir",
	"api.host",
	"api.port",
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func resolveSources(v *viper.Viper) map[string]Source {
	out := make(map[string]Source, len(trackedKeys))
	for _, key := range trackedKeys {
		out[key] = sourceOf(key, v.InConfig(key))
	}
	return out
}

func sourceOf(key string, inConfig bool) Source {
	if _, ok := os.LookupEnv(EnvVar(key)); ok {
		return SourceEnv
	}
	if inConfig {
		return SourceConfig
	}
	return SourceDefault
}

// Settings lists the tracked settings of cfg with the source of each value.
func Settings(cfg *Config) []Setting {
	values := map[string]any{
		"logging.level":           cfg.Logging.Level,
		"logging.format":          cfg.Logging.Format,
		"scoring.base_year":       cfg.Scoring.BaseYear,
		"analysis.ma_periods":     cfg.Analysis.MAPeriods,
		"analysis.rsi_period":     cfg.Analysis.RSIPeriod,
		"analysis.var_confidence": cfg.Analysis.VaRConfidence,
		"analysis.trading_days":   cfg.Analysis.TradingDays,
		"bulk.workers":            cfg.Bulk.Workers,
		"bulk.top_n":              cfg.Bulk.TopN,
		"output.dir":              cfg.Output.Dir,
		"output.format":           cfg.Output.Format,
		"output.precision":        cfg.Output.Precision,
		"output.color":            cfg.Output.Color,
		"data.dir":                cfg.Data.Dir,
		"api.host":                cfg.API.Host,
		"api.port":                cfg.API.Port,
	}

	settings := make([]Setting, 0, len(trackedKeys))
	for _, key := range trackedKeys {
		src, ok := cfg.sources[key]
		if !ok {
			src = sourceOf(key, false)
		}
		settings = append(settings, Setting{
			Key:    key,
			Value:  fmt.Sprint(values[key]),
			Source: src,
			EnvVar: EnvVar(key),
		})
	}
	return settings
}
