package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, name string, v float64) ScoredMetric {
	t.Helper()
	s, err := DefaultRegistry().Normalize(name, v)
	require.NoError(t, err)
	return s
}

func TestZeroIsMissingForEveryMetric(t *testing.T) {
	for _, name := range DefaultRegistry().Names() {
		s := mustNormalize(t, name, 0)
		assert.Equal(t, 0.0, s.Score, name)
		assert.Equal(t, LabelMissing, s.Interpretation, name)
		assert.True(t, s.Missing())
	}
}

func TestNaNIsMissing(t *testing.T) {
	s := mustNormalize(t, "roe", math.NaN())
	assert.Equal(t, LabelMissing, s.Interpretation)
	assert.Equal(t, 0.0, s.Score)
}

func TestInfinitySaturates(t *testing.T) {
	cr := mustNormalize(t, "current_ratio", math.Inf(1))
	assert.Equal(t, 100.0, cr.Score)
	assert.Equal(t, LabelExcellent, cr.Interpretation)

	pe := mustNormalize(t, "pe_ratio", math.Inf(1))
	assert.Equal(t, 0.0, pe.Score)
	assert.Equal(t, LabelPoor, pe.Interpretation)

	inv := mustNormalize(t, "inventory_turnover", math.Inf(1))
	assert.Equal(t, 100.0, inv.Score)
}

func TestROEBandEndpoints(t *testing.T) {
	assert.Equal(t, 100.0, mustNormalize(t, "roe", 30).Score)
	assert.Equal(t, 80.0, mustNormalize(t, "roe", 15).Score)
	assert.Equal(t, 40.0, mustNormalize(t, "roe", 5).Score)
}

func TestHigherIsBetterBands(t *testing.T) {
	tests := []struct {
		value float64
		score float64
		label string
	}{
		{45, 100, LabelExcellent},
		{22.5, 90, LabelVeryGood},
		{12.5, 70, LabelGood},
		{7.5, 50, LabelAverage},
		{4, 32, LabelBelowAverage},
		{2, 16, LabelPoor},
		{-10, 0, LabelPoor},
	}
	for _, tt := range tests {
		s := mustNormalize(t, "roe", tt.value)
		assert.InDelta(t, tt.score, s.Score, 1e-9, "roe=%v", tt.value)
		assert.Equal(t, tt.label, s.Interpretation, "roe=%v", tt.value)
	}
}

func TestHigherIsBetterZeroAcceptableMin(t *testing.T) {
	// fcf_growth has acceptable_min 0: anything negative scores 0.
	s := mustNormalize(t, "fcf_growth", -5)
	assert.Equal(t, 0.0, s.Score)
	assert.Equal(t, LabelPoor, s.Interpretation)

	s = mustNormalize(t, "fcf_growth", 5)
	assert.InDelta(t, 60.0, s.Score, 1e-9)
	assert.Equal(t, LabelGood, s.Interpretation)
}

func TestLowerIsBetterBands(t *testing.T) {
	tests := []struct {
		value float64
		score float64
		label string
	}{
		{8, 100, LabelExcellent},
		{15, 90, LabelVeryGood},
		{25, 70, LabelGood},
		{35, 50, LabelAverage},
		{50, 30, LabelBelowAverage},
		{70, 10, LabelPoor},
		{126, 0, LabelPoor},
	}
	for _, tt := range tests {
		s := mustNormalize(t, "pe_ratio", tt.value)
		assert.InDelta(t, tt.score, s.Score, 1e-9, "pe=%v", tt.value)
		assert.Equal(t, tt.label, s.Interpretation, "pe=%v", tt.value)
	}
}

func TestDebtToEquityNearZero(t *testing.T) {
	// ideal_min is 0, so 0.007 interpolates just under the top of the ideal band.
	s := mustNormalize(t, "debt_to_equity", 0.007)
	assert.InDelta(t, 99.72, s.Score, 1e-9)
	assert.Equal(t, LabelVeryGood, s.Interpretation)

	s = mustNormalize(t, "debt_to_equity", -0.2)
	assert.Equal(t, 100.0, s.Score)
	assert.Equal(t, LabelExcellent, s.Interpretation)
}

func TestLowerDefaultAcceptableMax(t *testing.T) {
	def := MetricDefinition{Name: "x", Direction: LowerIsBetter, IdealMin: 1, IdealMax: 2, Weight: 1}
	// acceptable_max defaults to 4: 3 sits halfway between 2 and 4.
	assert.InDelta(t, 60.0, Normalize(def, 3).Score, 1e-9)
}

func TestDegenerateBandSaturates(t *testing.T) {
	def := MetricDefinition{Name: "flat", Direction: LowerIsBetter, IdealMin: 2, IdealMax: 2, AcceptableMax: 2, Weight: 1}
	assert.Equal(t, 100.0, Normalize(def, 2).Score)
	assert.Equal(t, 0.0, Normalize(def, 10).Score)
	assert.Equal(t, 80.0, lerp(40, 80, 1, 0))
}

func TestBoundednessAndMonotonicity(t *testing.T) {
	reg := DefaultRegistry()
	for _, d := range reg.Definitions() {
		prev := math.Inf(-1)
		if d.Direction == LowerIsBetter {
			prev = math.Inf(1)
		}
		for v := 0.01; v < 200; v *= 1.3 {
			s := Normalize(d, v).Score
			require.GreaterOrEqual(t, s, 0.0, d.Name)
			require.LessOrEqual(t, s, 100.0, d.Name)
			if d.Direction == HigherIsBetter {
				require.GreaterOrEqual(t, s, prev, "%s not monotone at %v", d.Name, v)
			} else {
				require.LessOrEqual(t, s, prev, "%s not monotone at %v", d.Name, v)
			}
			prev = s
		}
	}
}

func TestNormalizeUnknown(t *testing.T) {
	_, err := DefaultRegistry().Normalize("ebitda_margin", 12)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
