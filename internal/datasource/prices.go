package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// priceAliases maps normalized header names to canonical price columns.
// ACE Equity exports use the "(Unit Curr)" and "(000's)" suffixes.
var priceAliases = map[string]string{
	"date":              "date",
	"open":              "open",
	"open (unit curr)":  "open",
	"high":              "high",
	"high (unit curr)":  "high",
	"low":               "low",
	"low (unit curr)":   "low",
	"close":             "close",
	"close (unit curr)": "close",
	"volume":            "volume",
	"volume (000's)":    "volume",
	"mcap":              "mcap",
	"no_trades":         "no_trades",
	"price_bv":          "price_bv",
	"value":             "value",
}

// LoadPrices reads a daily price CSV. Date and Close are required; absent
// or empty optional cells are NaN. Bars are returned sorted by date.
func LoadPrices(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prices: %w", err)
	}
	defer f.Close()

	bars, err := ReadPrices(f)
	if err != nil {
		var mc *MissingColumnError
		if errors.As(err, &mc) {
			mc.File = path
			return nil, mc
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadPrices parses price CSV rows from r.
func ReadPrices(r io.Reader) ([]models.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := priceAliases[key]; ok {
			// The plain name wins over an alias.
			if _, seen := cols[canon]; !seen || key == canon {
				cols[canon] = i
			}
		}
	}
	for _, req := range []string{"date", "close"} {
		if _, ok := cols[req]; !ok {
			return nil, &MissingColumnError{Column: req}
		}
	}

	var bars []models.Bar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}

		date, err := utils.ParseDateIST(cell(rec, cols, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		close, err := parseNumber(cell(rec, cols, "close"))
		if err != nil || math.IsNaN(close) {
			return nil, fmt.Errorf("line %d: invalid close %q", line, cell(rec, cols, "close"))
		}

		b := models.NewBar(date, math.NaN(), math.NaN(), math.NaN(), close, math.NaN())
		fields := []struct {
			col string
			dst *float64
		}{
			{"open", &b.Open},
			{"high", &b.High},
			{"low", &b.Low},
			{"volume", &b.Volume},
			{"mcap", &b.MarketCap},
			{"no_trades", &b.Trades},
			{"price_bv", &b.PriceToBook},
			{"value", &b.ValueTraded},
		}
		for _, fld := range fields {
			v, err := parseNumber(cell(rec, cols, fld.col))
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, fld.col, err)
			}
			*fld.dst = v
		}
		bars = append(bars, b)
	}

	slices.SortStableFunc(bars, func(a, b models.Bar) int { return a.Date.Compare(b.Date) })
	return bars, nil
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return at(rec, i)
}

func at(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseNumber parses a numeric cell, accepting thousands separators. Empty
// cells and "-", "NA" or "N/A" placeholders yield NaN.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch strings.ToUpper(s) {
	case "", "-", "NA", "N/A", "NAN":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
