// Package config handles configuration loading for equiscore.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EQUISCORE_BULK_WORKERS.
const EnvPrefix = "EQUISCORE"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Scoring  ScoringConfig  `mapstructure:"scoring"  yaml:"scoring"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Bulk     BulkConfig     `mapstructure:"bulk"     yaml:"bulk"`
	Output   OutputConfig   `mapstructure:"output"   yaml:"output"`
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`

	sources map[string]Source
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text console pretty json"`
}

// ScoringConfig selects the fiscal year and optional metric weight overrides.
type ScoringConfig struct {
	BaseYear int                `mapstructure:"base_year" yaml:"base_year" validate:"gte=0"` // 0 = latest
	Weights  map[string]float64 `mapstructure:"weights"   yaml:"weights"   validate:"dive,gte=0,lte=1"`
}

// AnalysisConfig holds price-series analysis settings.
type AnalysisConfig struct {
	MAPeriods     []int   `mapstructure:"ma_periods"     yaml:"ma_periods"     validate:"dive,gt=0"`
	RSIPeriod     int     `mapstructure:"rsi_period"     yaml:"rsi_period"     validate:"gt=0"`
	VaRConfidence float64 `mapstructure:"var_confidence" yaml:"var_confidence" validate:"gt=0,lt=1"`
	TradingDays   int     `mapstructure:"trading_days"   yaml:"trading_days"   validate:"gt=0"`
}

// BulkConfig holds bulk-ranking settings.
type BulkConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gt=0"`
	TopN    int `mapstructure:"top_n"   yaml:"top_n"   validate:"gte=0"` // 0 = all
}

// OutputConfig controls where and how reports are written.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"       yaml:"dir"`
	Format    string `mapstructure:"format"    yaml:"format"    validate:"oneof=text markdown html json csv parquet"`
	Precision int    `mapstructure:"precision" yaml:"precision" validate:"gte=0,lte=10"`
	Color     bool   `mapstructure:"color"     yaml:"color"`
}

// DataConfig locates input files.
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// APIConfig holds the HTTP server settings used by "equiscore serve".
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         validate:"gt=0,lte=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// validate reports fields by their config key, e.g. "bulk.workers".
var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.equiscore/config.yaml (home directory)
//  3. /etc/equiscore/config.yaml (system)
//
// Environment variables override config file values.
// Format: EQUISCORE_<SECTION>_<KEY>, e.g., EQUISCORE_BULK_WORKERS
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".equiscore"))
	v.AddConfigPath("/etc/equiscore")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.sources = resolveSources(v)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("scoring.base_year", 0)

	v.SetDefault("analysis.ma_periods", []int{20, 50, 100, 200})
	v.SetDefault("analysis.rsi_period", 14)
	v.SetDefault("analysis.var_confidence", 0.95)
	v.SetDefault("analysis.trading_days", 252)

	v.SetDefault("bulk.workers", 4)
	v.SetDefault("bulk.top_n", 10)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.precision", 2)
	v.SetDefault("output.color", true)

	v.SetDefault("data.dir", "data")

	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	err := validate().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s fails %q (got %v)", ErrInvalid, strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
