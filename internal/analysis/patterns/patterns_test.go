package patterns

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/equiscore/pkg/models"
)

// businessDays builds weekday bars between from and to inclusive with a
// rising close.
func businessDays(from, to time.Time) []models.Bar {
	var bars []models.Bar
	price := 100.0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		price++
		bars = append(bars, models.NewBar(d, price-0.5, price+1, price-1, price, 1000))
	}
	return bars
}

func janFeb2024() []Day {
	return Enrich(businessDays(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	))
}

func TestEnrich(t *testing.T) {
	days := janFeb2024()
	require.Len(t, days, 44)

	first := days[0]
	assert.True(t, math.IsNaN(first.Return))
	assert.True(t, math.IsNaN(first.Overnight))
	assert.InDelta(t, 0.5/100.5*100, first.Intraday, 1e-9)
	assert.Equal(t, time.Monday, first.Weekday)
	assert.Equal(t, 1, first.ISOWeek)
	assert.Equal(t, 1, first.Quarter)

	second := days[1]
	assert.InDelta(t, 1.0/101*100, second.Return, 1e-9)
	assert.InDelta(t, 0.5/101*100, second.Overnight, 1e-9)
}

func TestMonthEndFlags(t *testing.T) {
	days := janFeb2024()
	flagged := map[string]bool{}
	for _, d := range days {
		if d.IsMonthEnd {
			flagged[d.Date.Format("2006-01-02")] = true
		}
	}
	for _, want := range []string{"2024-01-25", "2024-01-26", "2024-01-29", "2024-01-30", "2024-01-31"} {
		assert.True(t, flagged[want], want)
	}
	assert.False(t, flagged["2024-01-24"])
	assert.Len(t, flagged, 10)
}

func TestFirstMondayFlags(t *testing.T) {
	got := Filter(janFeb2024(), func(d Day) bool { return d.IsFirstMonday })
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].DayOfMonth)
	assert.Equal(t, 5, got[1].DayOfMonth)
}

func TestByWeekday(t *testing.T) {
	groups := ByWeekday(janFeb2024())
	require.Len(t, groups, 5)
	assert.Equal(t, "Monday", groups[0].Label)
	assert.Equal(t, "Friday", groups[4].Label)
	// Nine Mondays, the first of which has no prior close.
	assert.Equal(t, 8, groups[0].Summary.Count)
	assert.Equal(t, 100.0, groups[0].Summary.WinRate)
}

func TestByMonth(t *testing.T) {
	groups := ByMonth(janFeb2024())
	require.Len(t, groups, 2)
	assert.Equal(t, "January", groups[0].Label)
	assert.Equal(t, "February", groups[1].Label)
	assert.Equal(t, 21, groups[1].Summary.Count)
}

func TestFocus(t *testing.T) {
	days := janFeb2024()
	assert.Nil(t, April(days))

	me := MonthEnd(days)
	require.NotNil(t, me)
	assert.Equal(t, 10, me.Overall.Count)
	require.Len(t, me.Yearly, 1)
	assert.Equal(t, 2024, me.Yearly[0].Year)

	wed := Wednesday(days)
	require.NotNil(t, wed)
	assert.Equal(t, 9, wed.Overall.Count)
}

func TestCompare(t *testing.T) {
	groups := Compare(janFeb2024())
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
	}
	assert.Equal(t, []string{"All Days", "Wednesday", "Monday", "February", "Month-End (Last 5)", "First Monday"}, labels)
	// First Monday of January has no return.
	assert.Equal(t, 1, groups[5].Summary.Count)
}

func TestSessions(t *testing.T) {
	groups := Sessions(janFeb2024())
	require.Len(t, groups, 3)
	assert.Equal(t, 43, groups[0].Summary.Count)
	assert.Equal(t, 43, groups[1].Summary.Count)
	assert.Equal(t, 44, groups[2].Summary.Count)
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	best, ok := Best(ByMonth(janFeb2024()))
	require.True(t, ok)
	// Returns shrink as price rises, so January leads.
	assert.Equal(t, "January", best.Label)
}
