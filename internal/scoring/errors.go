package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrConfig        = errors.New("scoring: invalid metric configuration")
	ErrUnknownMetric = errors.New("scoring: unknown metric")
)

// ConfigError reports a registry that violates a load-time invariant.
type ConfigError struct {
	Metric  string // empty for registry-wide problems
	Message string
}

func (e *ConfigError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("%v: %s", ErrConfig, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", ErrConfig, e.Metric, e.Message)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// UnknownMetricError is returned when a metric name is not registered.
type UnknownMetricError struct {
	Name  string
	Known []string
}

func (e *UnknownMetricError) Error() string {
	msg := fmt.Sprintf("%v %q", ErrUnknownMetric, e.Name)
	if len(e.Known) > 0 {
		msg += " (known: " + strings.Join(e.Known, ", ") + ")"
	}
	return msg
}

func (e *UnknownMetricError) Unwrap() error { return ErrUnknownMetric }
