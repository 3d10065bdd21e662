// Package models defines the core data structures used throughout equiscore.
package models

import (
	"math"
	"time"
)

// Company holds identifying information and the market snapshot used for
// valuation metrics. Monetary values are in crores unless noted.
type Company struct {
	Symbol            string  `json:"symbol"             yaml:"symbol"             validate:"required"`
	Name              string  `json:"company_name"       yaml:"company_name"       validate:"required"`
	Exchange          string  `json:"exchange,omitempty" yaml:"exchange,omitempty"`
	Ticker            string  `json:"ticker,omitempty"   yaml:"ticker,omitempty"`   // e.g., "ETERNAL.NS"
	BSECode           string  `json:"bse_code,omitempty" yaml:"bse_code,omitempty"`
	Sector            string  `json:"sector,omitempty"   yaml:"sector,omitempty"`
	Industry          string  `json:"industry,omitempty" yaml:"industry,omitempty"`
	CurrentPrice      float64 `json:"current_price"      yaml:"current_price"      validate:"gte=0"` // in ₹
	MarketCap         float64 `json:"market_cap"         yaml:"market_cap"         validate:"gte=0"`
	SharesOutstanding float64 `json:"shares_outstanding,omitempty" yaml:"shares_outstanding,omitempty"` // in crore shares
}

// SectorOrNA returns the sector, or "N/A" when it is not set.
func (c Company) SectorOrNA() string {
	if c.Sector == "" {
		return "N/A"
	}
	return c.Sector
}

// Bar represents one trading day of price data. The market-metric columns
// (MarketCap, Trades, PriceToBook, ValueTraded) are NaN when the source file
// does not carry them.
type Bar struct {
	Date        time.Time `json:"date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	MarketCap   float64   `json:"mcap"`
	Trades      float64   `json:"no_trades"`
	PriceToBook float64   `json:"price_bv"`
	ValueTraded float64   `json:"value"`
}

// NewBar returns a bar with all optional market columns marked absent.
func NewBar(date time.Time, open, high, low, close, volume float64) Bar {
	nan := math.NaN()
	return Bar{
		Date:        date,
		Open:        open,
		High:        high,
		Low:         low,
		Close:       close,
		Volume:      volume,
		MarketCap:   nan,
		Trades:      nan,
		PriceToBook: nan,
		ValueTraded: nan,
	}
}

// Closes extracts the closing prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
