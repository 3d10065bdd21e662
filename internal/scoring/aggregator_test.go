package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRaw() map[string]float64 {
	return map[string]float64{
		"debt_to_equity":     0.007,
		"current_ratio":      20.3,
		"interest_coverage":  64.85,
		"roe":                6.74,
		"roic":               10.3,
		"net_profit_margin":  24.9,
		"revenue_growth_3y":  27.5,
		"eps_growth_3y":      380.0,
		"fcf_growth":         15.7,
		"pe_ratio":           126.5,
		"pb_ratio":           8.36,
		"peg_ratio":          0.33,
		"asset_turnover":     0.26,
		"inventory_turnover": math.Inf(1),
	}
}

func TestFinalScoreIsDirectWeightedSum(t *testing.T) {
	reg := DefaultRegistry()
	res, err := reg.ScoreAll(sampleRaw())
	require.NoError(t, err)
	require.Len(t, res.Metrics, 14)

	want := 0.0
	catSum := 0.0
	for _, m := range res.Metrics {
		want += m.Score * m.Weight
	}
	for _, c := range res.Categories {
		catSum += c.Score
	}
	assert.InDelta(t, want, res.FinalScore, 1e-9)
	assert.InDelta(t, want, catSum, 1e-9, "category contributions partition the final score")

	// An average of category percentages is a different number.
	avgPct := 0.0
	for _, c := range res.Categories {
		avgPct += c.PercentOfMax
	}
	avgPct /= float64(len(res.Categories))
	assert.NotEqual(t, avgPct, res.FinalScore)
}

func TestCategoryScores(t *testing.T) {
	res, err := DefaultRegistry().ScoreAll(sampleRaw())
	require.NoError(t, err)

	eff, ok := res.Category(Efficiency)
	require.True(t, ok)
	assert.Equal(t, 2, eff.NumMetrics)
	assert.InDelta(t, 10.0, eff.MaxPossible, 1e-9)

	inv, _ := res.Metric("inventory_turnover")
	at, _ := res.Metric("asset_turnover")
	assert.InDelta(t, inv.Contribution()+at.Contribution(), eff.Score, 1e-9)
	assert.InDelta(t, eff.Score/eff.MaxPossible*100, eff.PercentOfMax, 1e-9)
	assert.Equal(t, Tier(eff.PercentOfMax), eff.Rating)

	assert.Len(t, res.Categories, len(Categories))
	for i, c := range res.Categories {
		assert.Equal(t, Categories[i], c.Category, "display order")
	}
}

func TestScoreAllMissingMetrics(t *testing.T) {
	res, err := DefaultRegistry().ScoreAll(map[string]float64{"roe": 30})
	require.NoError(t, err)
	assert.Equal(t, 13, res.MissingCount())
	assert.InDelta(t, 8.0, res.FinalScore, 1e-9)
	assert.Equal(t, LabelPoor, res.Tier)
	assert.Equal(t, "STRONG SELL", res.Recommendation.Action)
}

func TestScoreAllRejectsUnknown(t *testing.T) {
	_, err := DefaultRegistry().ScoreAll(map[string]float64{"roe": 20, "ev_ebitda": 9})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestAggregateZeroWeightCategory(t *testing.T) {
	defs := []MetricDefinition{
		{Name: "roe", Label: "ROE", Category: Profitability, Weight: 1, Direction: HigherIsBetter, IdealMin: 15, IdealMax: 30, AcceptableMin: 5},
	}
	reg, err := NewRegistry(defs)
	require.NoError(t, err)
	res, err := reg.ScoreAll(map[string]float64{"roe": 30})
	require.NoError(t, err)

	growth, ok := res.Category(Growth)
	require.True(t, ok)
	assert.Equal(t, 0.0, growth.PercentOfMax)
	assert.Equal(t, 0, growth.NumMetrics)
	assert.Equal(t, LabelPoor, growth.Rating)
	assert.InDelta(t, 100.0, res.FinalScore, 1e-9)
	assert.Equal(t, "STRONG BUY", res.Recommendation.Action)
}

func TestTierBreakpoints(t *testing.T) {
	tests := []struct {
		x      float64
		tier   string
		action string
	}{
		{100, LabelExcellent, "STRONG BUY"},
		{80, LabelExcellent, "STRONG BUY"},
		{79.99, LabelGood, "BUY"},
		{60, LabelGood, "BUY"},
		{40, LabelAverage, "HOLD"},
		{20, LabelBelowAverage, "SELL"},
		{19.9, LabelPoor, "STRONG SELL"},
		{0, LabelPoor, "STRONG SELL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tier, Tier(tt.x), "Tier(%v)", tt.x)
		assert.Equal(t, tt.action, Recommend(tt.x).Action, "Recommend(%v)", tt.x)
	}
	assert.Equal(t, "Average - Mixed signals, requires deeper analysis", OverallRating(55))
	assert.Equal(t, "Poor - Weak fundamentals", OverallRating(3))
}

func TestStrengthsAndWeaknesses(t *testing.T) {
	res, err := DefaultRegistry().ScoreAll(sampleRaw())
	require.NoError(t, err)

	top := res.Strengths(3)
	require.Len(t, top, 3)
	assert.GreaterOrEqual(t, top[0].Score, top[1].Score)
	assert.GreaterOrEqual(t, top[1].Score, top[2].Score)

	bottom := res.Weaknesses(3)
	require.Len(t, bottom, 3)
	assert.LessOrEqual(t, bottom[0].Score, bottom[1].Score)
	for _, m := range bottom {
		assert.LessOrEqual(t, m.Score, top[2].Score)
	}

	pe, _ := res.Metric("pe_ratio")
	assert.Equal(t, 0.0, pe.Score)
	assert.Len(t, res.Strengths(50), 14)
}
