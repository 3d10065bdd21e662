package utils

import (
	"testing"
	"time"
)

func TestParseDateIST(t *testing.T) {
	want := time.Date(2024, 4, 3, 0, 0, 0, 0, IST)
	inputs := []string{
		"2024-04-03",
		"03-04-2024",
		"03/04/2024",
		"03-Apr-2024",
		"Apr 3, 2024",
		"2024-04-03 15:30:00",
	}
	for _, in := range inputs {
		got, err := ParseDateIST(in)
		if err != nil {
			t.Errorf("ParseDateIST(%q) error: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDateIST(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDateIST("not a date"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestFormatDateIST(t *testing.T) {
	ts := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC) // 01:30 next day in IST
	if got := FormatDateIST(ts); got != "2024-04-01" {
		t.Errorf("FormatDateIST = %s, want 2024-04-01", got)
	}
}

func TestQuarter(t *testing.T) {
	for m, want := range map[time.Month]int{time.January: 1, time.March: 1, time.April: 2, time.September: 3, time.December: 4} {
		if got := Quarter(time.Date(2024, m, 1, 0, 0, 0, 0, IST)); got != want {
			t.Errorf("Quarter(%s) = %d, want %d", m, got, want)
		}
	}
}

func TestYearsBetween(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, IST)
	end := start.AddDate(0, 0, 1461) // 4 × 365.25
	if got := YearsBetween(start, end); got < 3.999 || got > 4.001 {
		t.Errorf("YearsBetween = %f, want 4", got)
	}
}
