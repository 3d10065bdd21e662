package bulk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/models"
)

// snapshot builds a two-year company whose profitability scales with margin.
func snapshot(symbol, sector string, margin float64) models.Snapshot {
	revenue := 10000.0
	net := revenue * margin
	return models.Snapshot{
		Company: models.Company{
			Symbol: symbol, Name: symbol + " Ltd", Sector: sector,
			CurrentPrice: 500, MarketCap: 50000,
		},
		BalanceSheet: map[string]models.BalanceSheet{
			"fy_2024": {TotalAssets: 20000, CurrentAssets: 9000, CashAndEquivalents: 2000, CurrentLiabilities: 4000, TotalDebt: 3000, ShareholdersEquity: 12000},
			"fy_2023": {TotalAssets: 18000, CurrentAssets: 8000, CashAndEquivalents: 1500, CurrentLiabilities: 3800, TotalDebt: 3200, ShareholdersEquity: 11000},
		},
		IncomeStatement: map[string]models.IncomeStatement{
			"fy_2024": {TotalRevenue: revenue, CostOfRevenue: 6000, OperatingIncome: net * 1.4, InterestExpense: 200, PretaxIncome: net * 1.3, IncomeTaxExpense: net * 0.3, NetIncome: net},
			"fy_2023": {TotalRevenue: revenue * 0.9, CostOfRevenue: 5600, OperatingIncome: net, InterestExpense: 210, PretaxIncome: net, IncomeTaxExpense: net * 0.25, NetIncome: net * 0.8},
		},
		PerShare: map[string]models.PerShare{
			"fy_2024": {EPS: net / 100, BookValuePerShare: 120},
			"fy_2023": {EPS: net * 0.8 / 100, BookValuePerShare: 110},
		},
	}
}

func universe() []models.Snapshot {
	return []models.Snapshot{
		snapshot("LOWCO", "Energy", 0.02),
		snapshot("HIGHCO", "IT", 0.25),
		snapshot("MIDCO", "IT", 0.10),
		snapshot("TWINB", "Energy", 0.15),
		snapshot("TWINA", "Energy", 0.15),
		{Company: models.Company{Symbol: "EMPTY", Name: "Empty Ltd"}},
	}
}

func run(t *testing.T, workers int) *Ranking {
	t.Helper()
	r, err := New(Options{Workers: workers}).Run(context.Background(), universe())
	require.NoError(t, err)
	return r
}

func TestRunRanksByScore(t *testing.T) {
	r := run(t, 3)

	require.Len(t, r.Entries, 5)
	assert.NotEmpty(t, r.RunID)
	assert.False(t, r.GeneratedAt.IsZero())

	for i, e := range r.Entries {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, r.Entries[i-1].FinalScore, e.FinalScore)
		}
		assert.Equal(t, scoring.Tier(e.FinalScore), e.Tier)
		assert.Len(t, e.Categories, 5)
		require.NotNil(t, e.Card)
		assert.Equal(t, 2024, e.Card.Year)
	}
	assert.Equal(t, "HIGHCO", r.Entries[0].Symbol)
	assert.Equal(t, "LOWCO", r.Entries[4].Symbol)
}

func TestRunTiesBreakBySymbol(t *testing.T) {
	r := run(t, 1)

	var twins []string
	for _, e := range r.Entries {
		if e.Symbol == "TWINA" || e.Symbol == "TWINB" {
			twins = append(twins, e.Symbol)
		}
	}
	assert.Equal(t, []string{"TWINA", "TWINB"}, twins)
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	a, b := run(t, 1), run(t, 8)
	require.Len(t, b.Entries, len(a.Entries))
	for i := range a.Entries {
		assert.Equal(t, a.Entries[i].Symbol, b.Entries[i].Symbol)
		assert.InDelta(t, a.Entries[i].FinalScore, b.Entries[i].FinalScore, 1e-12)
	}
}

func TestRunCollectsFailures(t *testing.T) {
	r := run(t, 2)

	require.Len(t, r.Failures, 1)
	f := r.Failures[0]
	assert.Equal(t, "EMPTY", f.Symbol)
	assert.True(t, errors.Is(f.Cause(), fundamental.ErrMissingYear))
	assert.Contains(t, f.Reason, "fy_")
}

func TestRunReportsProgress(t *testing.T) {
	var events []Progress
	r, err := New(Options{Workers: 2, Progress: func(p Progress) { events = append(events, p) }}).
		Run(context.Background(), universe())
	require.NoError(t, err)

	require.Len(t, events, 6)
	failed := 0
	for i, p := range events {
		assert.Equal(t, r.RunID, p.RunID)
		assert.Equal(t, i+1, p.Done)
		assert.Equal(t, 6, p.Total)
		if p.Error != "" {
			failed++
			assert.Equal(t, "EMPTY", p.Symbol)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Run(ctx, universe())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	r, err := New(Options{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Entries)
	assert.Empty(t, r.Failures)
}

func TestTop(t *testing.T) {
	r := run(t, 2)

	top := r.Top(2, "")
	require.Len(t, top, 2)
	assert.Equal(t, "HIGHCO", top[0].Symbol)

	energy := r.Top(0, "Energy")
	require.Len(t, energy, 3)
	for _, e := range energy {
		assert.Equal(t, "Energy", e.Sector)
	}
	assert.Equal(t, "LOWCO", energy[2].Symbol)
	assert.Empty(t, r.Top(5, "Banking"))
}

func TestSectorLeaders(t *testing.T) {
	r := run(t, 2)

	leaders := r.SectorLeaders()
	require.Len(t, leaders, 2)
	assert.Equal(t, "HIGHCO", leaders[0].Symbol)
	assert.Equal(t, 1, leaders[0].Rank)
	assert.Equal(t, "TWINA", leaders[1].Symbol)
	assert.Equal(t, 2, leaders[1].Rank)
}

func TestSectorSummary(t *testing.T) {
	r := run(t, 2)

	summary := r.SectorSummary()
	require.Len(t, summary, 2)
	for _, s := range summary {
		var sum float64
		var n int
		for _, e := range r.Entries {
			if e.Sector == s.Sector {
				sum += e.FinalScore
				n++
			}
		}
		assert.Equal(t, n, s.Companies)
		assert.InDelta(t, sum/float64(n), s.AverageScore, 1e-9)
	}
	assert.GreaterOrEqual(t, summary[0].AverageScore, summary[1].AverageScore)
}

func TestRatingDistribution(t *testing.T) {
	r := run(t, 2)

	dist := r.RatingDistribution()
	require.Len(t, dist, 5)
	assert.Equal(t, scoring.LabelExcellent, dist[0].Tier)
	assert.Equal(t, scoring.LabelPoor, dist[4].Tier)
	total := 0
	for _, d := range dist {
		total += d.Count
	}
	assert.Equal(t, len(r.Entries), total)
}
