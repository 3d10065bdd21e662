package utils

import (
	"fmt"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// dateLayouts are tried in order by ParseDateIST. Exchange exports mix ISO
// dates with day-first layouts.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-01-2006",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006/01/02",
}

// ParseDateIST parses a trading date in one of the supported layouts and
// returns midnight of that day in IST.
func ParseDateIST(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatDateIST formats a time as YYYY-MM-DD in IST.
func FormatDateIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// FormatDateTimeIST formats a time as "02 Jan 2006, 15:04 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("02 Jan 2006, 15:04") + " IST"
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// YearsBetween returns the fractional number of years between two dates
// using 365.25-day years.
func YearsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365.25
}
