// Package scoring implements the fundamental scoring engine: a registry of
// metric definitions, a normalizer mapping raw ratios onto 0-100, and an
// aggregator producing category subtotals and a final weighted score.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

// WeightTolerance is the allowed deviation of the summed weights from 1.0.
const WeightTolerance = 1e-6

// Metric names of the default table.
const (
	MetricDebtToEquity      = "debt_to_equity"
	MetricCurrentRatio      = "current_ratio"
	MetricInterestCoverage  = "interest_coverage"
	MetricROE               = "roe"
	MetricROIC              = "roic"
	MetricNetProfitMargin   = "net_profit_margin"
	MetricRevenueGrowth3Y   = "revenue_growth_3y"
	MetricEPSGrowth3Y       = "eps_growth_3y"
	MetricFCFGrowth         = "fcf_growth"
	MetricPERatio           = "pe_ratio"
	MetricPBRatio           = "pb_ratio"
	MetricPEGRatio          = "peg_ratio"
	MetricAssetTurnover     = "asset_turnover"
	MetricInventoryTurnover = "inventory_turnover"
)

// Direction tells the normalizer which end of the scale is favourable.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower"
	}
	return "higher"
}

// Category groups related metrics.
type Category string

const (
	FinancialHealth Category = "Financial Health"
	Profitability   Category = "Profitability"
	Growth          Category = "Growth"
	Valuation       Category = "Valuation"
	Efficiency      Category = "Efficiency"
)

// Categories lists the categories in display order.
var Categories = []Category{FinancialHealth, Profitability, Growth, Valuation, Efficiency}

func (c Category) valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// MetricDefinition describes how one raw metric is scored.
type MetricDefinition struct {
	Name          string    `json:"name"           validate:"required"`
	Label         string    `json:"label"          validate:"required"`
	Unit          string    `json:"unit,omitempty"` // "x", "%" or empty
	Category      Category  `json:"category"       validate:"metric_category"`
	Weight        float64   `json:"weight"         validate:"gt=0,lte=1"`
	Direction     Direction `json:"direction"      validate:"oneof=0 1"`
	IdealMin      float64   `json:"ideal_min"`
	IdealMax      float64   `json:"ideal_max"`
	AcceptableMin float64   `json:"acceptable_min,omitempty"` // higher-is-better only
	AcceptableMax float64   `json:"acceptable_max,omitempty"` // lower-is-better only; 0 means IdealMax*2
}

// EffectiveAcceptableMax returns the acceptable ceiling of a lower-is-better
// metric, defaulting to twice the ideal maximum.
func (d MetricDefinition) EffectiveAcceptableMax() float64 {
	if d.AcceptableMax == 0 {
		return d.IdealMax * 2
	}
	return d.AcceptableMax
}

// Registry is an immutable, validated set of metric definitions.
type Registry struct {
	defs      []MetricDefinition
	byName    map[string]int
	catWeight map[Category]float64
}

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("metric_category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).valid()
	})
	if err != nil {
		panic(fmt.Errorf("scoring: register metric_category validation: %w", err))
	}
	return v
})

// NewRegistry validates defs and builds a registry. Definitions keep the
// order they are given in.
func NewRegistry(defs []MetricDefinition) (*Registry, error) {
	r := &Registry{
		defs:      make([]MetricDefinition, len(defs)),
		byName:    make(map[string]int, len(defs)),
		catWeight: make(map[Category]float64, len(Categories)),
	}
	copy(r.defs, defs)
	for i, d := range r.defs {
		if _, dup := r.byName[d.Name]; dup {
			return nil, &ConfigError{Metric: d.Name, Message: "duplicate metric"}
		}
		r.byName[d.Name] = i
		r.catWeight[d.Category] += d.Weight
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks every definition and the weight-sum invariant.
func (r *Registry) Validate() error {
	if len(r.defs) == 0 {
		return &ConfigError{Message: "no metrics defined"}
	}
	total := 0.0
	for _, d := range r.defs {
		if err := validateDefinition(d); err != nil {
			return err
		}
		total += d.Weight
	}
	if math.Abs(total-1.0) > WeightTolerance {
		return &ConfigError{Message: fmt.Sprintf("metric weights must sum to 1.0, got %.6f", total)}
	}
	return nil
}

func validateDefinition(d MetricDefinition) error {
	if err := structValidator().Struct(d); err != nil {
		name := d.Name
		if name == "" {
			name = "<unnamed>"
		}
		return &ConfigError{Metric: name, Message: err.Error()}
	}
	if d.IdealMin > d.IdealMax {
		return &ConfigError{Metric: d.Name, Message: fmt.Sprintf("ideal band inverted: min %g > max %g", d.IdealMin, d.IdealMax)}
	}
	switch d.Direction {
	case HigherIsBetter:
		if d.AcceptableMin > d.IdealMin {
			return &ConfigError{Metric: d.Name, Message: fmt.Sprintf("acceptable_min %g above ideal_min %g", d.AcceptableMin, d.IdealMin)}
		}
	case LowerIsBetter:
		if amax := d.EffectiveAcceptableMax(); amax < d.IdealMax {
			return &ConfigError{Metric: d.Name, Message: fmt.Sprintf("acceptable_max %g below ideal_max %g", amax, d.IdealMax)}
		}
	}
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (MetricDefinition, error) {
	i, ok := r.byName[name]
	if !ok {
		return MetricDefinition{}, &UnknownMetricError{Name: name, Known: r.Names()}
	}
	return r.defs[i], nil
}

// Definitions returns a copy of all definitions in canonical order.
func (r *Registry) Definitions() []MetricDefinition {
	out := make([]MetricDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Names returns the metric names in canonical order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.Name
	}
	return out
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int { return len(r.defs) }

// CategoryWeight returns the summed weight of the metrics in c.
func (r *Registry) CategoryWeight(c Category) float64 {
	return r.catWeight[c]
}

// InCategory returns the definitions belonging to c in canonical order.
func (r *Registry) InCategory(c Category) []MetricDefinition {
	var out []MetricDefinition
	for _, d := range r.defs {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// WithWeights returns a new registry with the given weights replacing the
// defaults. The result must still satisfy the weight invariant.
func (r *Registry) WithWeights(weights map[string]float64) (*Registry, error) {
	if len(weights) == 0 {
		return r, nil
	}
	defs := r.Definitions()
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i, ok := r.byName[name]
		if !ok {
			return nil, &UnknownMetricError{Name: name, Known: r.Names()}
		}
		defs[i].Weight = weights[name]
	}
	return NewRegistry(defs)
}

// DefaultDefinitions returns the standard 14-metric table.
func DefaultDefinitions() []MetricDefinition {
	return []MetricDefinition{
		// Financial Health (20%)
		{Name: MetricDebtToEquity, Label: "Debt-to-Equity Ratio", Category: FinancialHealth, Weight: 0.07, Direction: LowerIsBetter, IdealMin: 0, IdealMax: 0.5, AcceptableMax: 2.0},
		{Name: MetricCurrentRatio, Label: "Current Ratio", Category: FinancialHealth, Weight: 0.07, Direction: HigherIsBetter, IdealMin: 1.5, IdealMax: 3.0, AcceptableMin: 0.5},
		{Name: MetricInterestCoverage, Label: "Interest Coverage Ratio", Unit: "x", Category: FinancialHealth, Weight: 0.06, Direction: HigherIsBetter, IdealMin: 5, IdealMax: 20, AcceptableMin: 1},

		// Profitability (25%)
		{Name: MetricROE, Label: "Return on Equity (ROE)", Unit: "%", Category: Profitability, Weight: 0.08, Direction: HigherIsBetter, IdealMin: 15, IdealMax: 30, AcceptableMin: 5},
		{Name: MetricROIC, Label: "Return on Invested Capital (ROIC)", Unit: "%", Category: Profitability, Weight: 0.09, Direction: HigherIsBetter, IdealMin: 15, IdealMax: 35, AcceptableMin: 5},
		{Name: MetricNetProfitMargin, Label: "Net Profit Margin", Unit: "%", Category: Profitability, Weight: 0.08, Direction: HigherIsBetter, IdealMin: 10, IdealMax: 25, AcceptableMin: 3},

		// Growth (25%)
		{Name: MetricRevenueGrowth3Y, Label: "Revenue Growth (3Y Avg)", Unit: "%", Category: Growth, Weight: 0.10, Direction: HigherIsBetter, IdealMin: 15, IdealMax: 30, AcceptableMin: 5},
		{Name: MetricEPSGrowth3Y, Label: "EPS Growth (3Y Avg)", Unit: "%", Category: Growth, Weight: 0.10, Direction: HigherIsBetter, IdealMin: 15, IdealMax: 30, AcceptableMin: 5},
		{Name: MetricFCFGrowth, Label: "FCF Growth", Unit: "%", Category: Growth, Weight: 0.05, Direction: HigherIsBetter, IdealMin: 10, IdealMax: 25, AcceptableMin: 0},

		// Valuation (20%)
		{Name: MetricPERatio, Label: "P/E Ratio", Unit: "x", Category: Valuation, Weight: 0.07, Direction: LowerIsBetter, IdealMin: 10, IdealMax: 20, AcceptableMax: 40},
		{Name: MetricPBRatio, Label: "P/B Ratio", Unit: "x", Category: Valuation, Weight: 0.07, Direction: LowerIsBetter, IdealMin: 1, IdealMax: 4, AcceptableMax: 10},
		{Name: MetricPEGRatio, Label: "PEG Ratio", Category: Valuation, Weight: 0.06, Direction: LowerIsBetter, IdealMin: 0.5, IdealMax: 1.5, AcceptableMax: 3},

		// Efficiency (10%)
		{Name: MetricAssetTurnover, Label: "Asset Turnover Ratio", Unit: "x", Category: Efficiency, Weight: 0.05, Direction: HigherIsBetter, IdealMin: 1.0, IdealMax: 2.5, AcceptableMin: 0.5},
		{Name: MetricInventoryTurnover, Label: "Inventory Turnover", Unit: "x", Category: Efficiency, Weight: 0.05, Direction: HigherIsBetter, IdealMin: 6, IdealMax: 12, AcceptableMin: 2},
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the shared registry built from DefaultDefinitions.
// It panics at first use if the table is misconfigured.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
