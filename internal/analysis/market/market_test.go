package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/equiscore/pkg/models"
)

type row struct {
	date                  time.Time
	mcap, trades, pbv, vt float64
	volume                float64
}

func makeBars(rows []row) []models.Bar {
	bars := make([]models.Bar, len(rows))
	for i, r := range rows {
		b := models.NewBar(r.date, 100, 100, 100, 100, r.volume)
		b.MarketCap, b.Trades, b.PriceToBook, b.ValueTraded = r.mcap, r.trades, r.pbv, r.vt
		bars[i] = b
	}
	return bars
}

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func sample() []models.Bar {
	nan := math.NaN()
	return makeBars([]row{
		{d(2023, 2, 1), 100, 10, 2.0, 500, 1000},
		{d(2023, 5, 2), 120, 20, 3.0, 700, 2000},
		{d(2024, 1, 3), nan, nan, nan, nan, 3000},
		{d(2024, 1, 4), 150, 30, 4.0, 900, 6000},
		{d(2024, 8, 5), 132, 40, 5.0, 1100, 4000},
	})
}

func TestMarketCap(t *testing.T) {
	a := MarketCap(sample())
	require.NotNil(t, a)

	assert.Equal(t, 132.0, a.Current)
	assert.Equal(t, 150.0, a.High)
	assert.Equal(t, 100.0, a.Low)
	assert.InDelta(t, 125.5, a.Mean, 1e-9)
	assert.InDelta(t, 32, a.TotalGrowth, 1e-9)
	assert.InDelta(t, (math.Pow(1.32, 1/(4.0/252))-1)*100, a.CAGR, 1e-6)
	assert.Equal(t, 4, a.Days)

	require.Len(t, a.Yearly, 2)
	assert.Equal(t, PeriodCap{Year: 2023, First: 100, Last: 120, Mean: 110, Max: 120, Min: 100, Growth: 20}, a.Yearly[0])
	assert.InDelta(t, -12, a.Yearly[1].Growth, 1e-9)

	require.Len(t, a.Quarterly, 4)
	assert.Equal(t, 2, a.Quarterly[1].Quarter)
	assert.Equal(t, 3, a.Quarterly[3].Quarter)
}

func TestMarketCapAbsent(t *testing.T) {
	bars := []models.Bar{models.NewBar(d(2024, 1, 1), 1, 1, 1, 1, 10)}
	assert.Nil(t, MarketCap(bars))
	assert.Nil(t, Valuation(bars))

	liq := Liquidity(bars)
	require.NotNil(t, liq)
	assert.Nil(t, liq.Trades)
	assert.Nil(t, liq.Value)
	assert.True(t, math.IsNaN(liq.Yearly[0].TradesMean))
}

func TestLiquidity(t *testing.T) {
	a := Liquidity(sample())
	require.NotNil(t, a)

	assert.InDelta(t, 3200, a.Volume.Mean, 1e-9)
	assert.Equal(t, 3000.0, a.Volume.Median)
	assert.Equal(t, 6000.0, a.Volume.Max)

	require.NotNil(t, a.Trades)
	assert.InDelta(t, 25, a.Trades.Mean, 1e-9)
	assert.Equal(t, 40.0, a.Trades.Max)
	// 1000/10, 2000/20, 6000/30, 4000/40
	assert.InDelta(t, 125, a.VolumePerTrade, 1e-9)

	require.NotNil(t, a.Value)
	assert.Equal(t, 3200.0, a.Value.Total)

	require.Len(t, a.Yearly, 2)
	assert.Equal(t, 2024, a.Yearly[1].Year)
	assert.Equal(t, 13000.0, a.Yearly[1].VolumeSum)
	assert.InDelta(t, 35, a.Yearly[1].TradesMean, 1e-9)
}

func TestValuation(t *testing.T) {
	a := Valuation(sample())
	require.NotNil(t, a)

	assert.Equal(t, 5.0, a.Current)
	assert.InDelta(t, 3.5, a.Mean, 1e-9)
	assert.InDelta(t, 3.5, a.Median, 1e-9)
	assert.InDelta(t, 2.75, a.Zones.P25, 1e-9)
	assert.InDelta(t, 4.25, a.Zones.P75, 1e-9)
	assert.Equal(t, StatusOvervalued, a.Status)

	require.Len(t, a.Yearly, 2)
	assert.InDelta(t, 50, a.Yearly[0].Change, 1e-9)
	assert.InDelta(t, 25, a.Yearly[1].Change, 1e-9)
}

func TestValuationStatus(t *testing.T) {
	nan := math.NaN()
	bars := makeBars([]row{
		{d(2024, 1, 1), nan, nan, 4, nan, 1},
		{d(2024, 1, 2), nan, nan, 3, nan, 1},
		{d(2024, 1, 3), nan, nan, 2, nan, 1},
		{d(2024, 1, 4), nan, nan, 1, nan, 1},
	})
	assert.Equal(t, StatusUndervalued, Valuation(bars).Status)

	bars[3].PriceToBook = 2.5
	assert.Equal(t, StatusFairValue, Valuation(bars).Status)
}

func TestAnalyze(t *testing.T) {
	r := Analyze(sample())
	assert.NotNil(t, r.MarketCap)
	assert.NotNil(t, r.Liquidity)
	assert.NotNil(t, r.Valuation)
}
