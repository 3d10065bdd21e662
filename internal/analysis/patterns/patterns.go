// Package patterns analyzes calendar effects in daily returns: weekday and
// month seasonality, month-end and first-Monday behaviour, and the split
// between overnight and intraday moves.
package patterns

import (
	"math"
	"time"

	"github.com/seenimoa/equiscore/internal/analysis/stats"
	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// MonthEndDays is the number of trailing trading days counted as month end.
const MonthEndDays = 5

// Day is a bar enriched with calendar parts, session returns and pattern
// flags. Returns are percentages; the first day's Return and Overnight are NaN.
type Day struct {
	models.Bar
	Year       int          `json:"year"`
	Month      time.Month   `json:"month"`
	Weekday    time.Weekday `json:"weekday"`
	DayOfMonth int          `json:"day_of_month"`
	ISOWeek    int          `json:"iso_week"`
	Quarter    int          `json:"quarter"`

	Return    float64 `json:"daily_return"`
	Overnight float64 `json:"overnight"`
	Intraday  float64 `json:"intraday"`

	IsApril       bool `json:"is_april"`
	IsWednesday   bool `json:"is_wednesday"`
	IsMonday      bool `json:"is_monday"`
	IsMonthEnd    bool `json:"is_month_end"`
	IsFirstMonday bool `json:"is_first_monday"`
}

// Group is the return summary of a subset of days.
type Group struct {
	Label   string        `json:"label"`
	Summary stats.Summary `json:"summary"`
}

// YearGroup is a per-year breakdown entry.
type YearGroup struct {
	Year    int           `json:"year"`
	Summary stats.Summary `json:"summary"`
}

// Focus is a detailed look at one pattern.
type Focus struct {
	Name    string        `json:"name"`
	Overall stats.Summary `json:"overall"`
	Yearly  []YearGroup   `json:"yearly"`
	Days    []Day         `json:"-"`
}

// Enrich derives calendar fields and pattern flags for bars sorted by date.
func Enrich(bars []models.Bar) []Day {
	days := make([]Day, len(bars))
	returns := stats.DailyReturns(bars)

	for i, b := range bars {
		_, week := b.Date.ISOWeek()
		d := Day{
			Bar:        b,
			Year:       b.Date.Year(),
			Month:      b.Date.Month(),
			Weekday:    b.Date.Weekday(),
			DayOfMonth: b.Date.Day(),
			ISOWeek:    week,
			Quarter:    utils.Quarter(b.Date),
			Return:     returns[i],
			Overnight:  math.NaN(),
			Intraday:   math.NaN(),
		}
		if i > 0 && bars[i-1].Close != 0 {
			d.Overnight = (b.Open - bars[i-1].Close) / bars[i-1].Close * 100
		}
		if b.Open != 0 {
			d.Intraday = (b.Close - b.Open) / b.Open * 100
		}
		d.IsApril = d.Month == time.April
		d.IsWednesday = d.Weekday == time.Wednesday
		d.IsMonday = d.Weekday == time.Monday
		days[i] = d
	}

	markMonthFlags(days)
	return days
}

// markMonthFlags sets IsMonthEnd on the last MonthEndDays trading days of
// every calendar month and IsFirstMonday on each month's first Monday.
func markMonthFlags(days []Day) {
	start := 0
	for i := 1; i <= len(days); i++ {
		if i < len(days) && sameMonth(days[i], days[start]) {
			continue
		}
		for j := max(start, i-MonthEndDays); j < i; j++ {
			days[j].IsMonthEnd = true
		}
		for j := start; j < i; j++ {
			if days[j].IsMonday {
				days[j].IsFirstMonday = true
				break
			}
		}
		start = i
	}
}

func sameMonth(a, b Day) bool {
	return a.Year == b.Year && a.Month == b.Month
}

// Filter returns the days matching keep.
func Filter(days []Day, keep func(Day) bool) []Day {
	var out []Day
	for _, d := range days {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Returns extracts the daily returns of days.
func Returns(days []Day) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = d.Return
	}
	return out
}

func describe(label string, days []Day) (Group, bool) {
	s := stats.Describe(Returns(days))
	return Group{Label: label, Summary: s}, s.Count > 0
}

// ByWeekday summarizes returns for Monday through Friday. Weekdays without
// data are omitted.
func ByWeekday(days []Day) []Group {
	var out []Group
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if g, ok := describe(wd.String(), Filter(days, func(d Day) bool { return d.Weekday == wd })); ok {
			out = append(out, g)
		}
	}
	return out
}

// ByMonth summarizes returns for each calendar month in order.
func ByMonth(days []Day) []Group {
	var out []Group
	for m := time.January; m <= time.December; m++ {
		if g, ok := describe(m.String(), Filter(days, func(d Day) bool { return d.Month == m })); ok {
			out = append(out, g)
		}
	}
	return out
}

// April returns statistics for April trading days.
func April(days []Day) *Focus {
	return focus("April", Filter(days, func(d Day) bool { return d.IsApril }))
}

// Wednesday returns statistics for Wednesday sessions.
func Wednesday(days []Day) *Focus {
	return focus("Wednesday", Filter(days, func(d Day) bool { return d.IsWednesday }))
}

// MonthEnd returns statistics for the last trading days of each month.
func MonthEnd(days []Day) *Focus {
	return focus("Month-End (Last 5)", Filter(days, func(d Day) bool { return d.IsMonthEnd }))
}

// FirstMonday returns statistics for the first Monday of each month.
func FirstMonday(days []Day) *Focus {
	return focus("First Monday", Filter(days, func(d Day) bool { return d.IsFirstMonday }))
}

// focus returns nil when subset has no defined returns.
func focus(name string, subset []Day) *Focus {
	overall := stats.Describe(Returns(subset))
	if overall.Count == 0 {
		return nil
	}
	f := &Focus{Name: name, Overall: overall, Days: subset}

	start := 0
	for i := 1; i <= len(subset); i++ {
		if i < len(subset) && subset[i].Year == subset[start].Year {
			continue
		}
		if s := stats.Describe(Returns(subset[start:i])); s.Count > 0 {
			f.Yearly = append(f.Yearly, YearGroup{Year: subset[start].Year, Summary: s})
		}
		start = i
	}
	return f
}

// Compare builds the pattern comparison table. Patterns without data are
// omitted.
func Compare(days []Day) []Group {
	candidates := []struct {
		label string
		keep  func(Day) bool
	}{
		{"All Days", func(Day) bool { return true }},
		{"Wednesday", func(d Day) bool { return d.IsWednesday }},
		{"Monday", func(d Day) bool { return d.IsMonday }},
		{"April", func(d Day) bool { return d.IsApril }},
		{"February", func(d Day) bool { return d.Month == time.February }},
		{"Month-End (Last 5)", func(d Day) bool { return d.IsMonthEnd }},
		{"First Monday", func(d Day) bool { return d.IsFirstMonday }},
	}

	var out []Group
	for _, c := range candidates {
		if g, ok := describe(c.label, Filter(days, c.keep)); ok {
			out = append(out, g)
		}
	}
	return out
}

// Sessions compares close-to-close, overnight (previous close to open) and
// intraday (open to close) returns.
func Sessions(days []Day) []Group {
	daily := make([]float64, len(days))
	overnight := make([]float64, len(days))
	intraday := make([]float64, len(days))
	for i, d := range days {
		daily[i] = d.Return
		overnight[i] = d.Overnight
		intraday[i] = d.Intraday
	}
	return []Group{
		{Label: "Daily", Summary: stats.Describe(daily)},
		{Label: "Overnight", Summary: stats.Describe(overnight)},
		{Label: "Intraday", Summary: stats.Describe(intraday)},
	}
}

// Best returns the group with the highest mean return, or false when groups
// is empty.
func Best(groups []Group) (Group, bool) {
	if len(groups) == 0 {
		return Group{}, false
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Summary.Mean > best.Summary.Mean {
			best = g
		}
	}
	return best, true
}
