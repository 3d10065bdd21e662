package fundamental

import "math"

// IntrinsicValue compares the market price with simple earnings-based
// fair-value estimates.
type IntrinsicValue struct {
	CurrentPrice   float64 `json:"current_price"`
	GrahamNumber   float64 `json:"graham_number"`
	EarningsYield  float64 `json:"earnings_yield"`   // %
	MarginOfSafety float64 `json:"margin_of_safety"` // % below Graham number
	Verdict        string  `json:"verdict"`          // "Undervalued", "Fairly Valued", "Overvalued", "N/A"
}

// GrahamNumber computes the classic Benjamin Graham intrinsic value.
// Graham Number = sqrt(22.5 × EPS × Book Value per Share)
func GrahamNumber(eps, bookValue float64) float64 {
	if eps <= 0 || bookValue <= 0 {
		return 0
	}
	return math.Sqrt(22.5 * eps * bookValue)
}

// EarningsYield computes earnings yield (inverse of PE) in percent.
func EarningsYield(eps, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return eps / price * 100
}

// Intrinsic evaluates the base-year valuation estimates.
func (c *Calculator) Intrinsic() IntrinsicValue {
	price := c.Snapshot.Company.CurrentPrice
	ps := c.year(0).PerShare
	v := IntrinsicValue{
		CurrentPrice:  price,
		GrahamNumber:  GrahamNumber(ps.EPS, ps.BookValue()),
		EarningsYield: EarningsYield(ps.EPS, price),
		Verdict:       "N/A",
	}
	if v.GrahamNumber <= 0 || price <= 0 {
		return v
	}
	v.MarginOfSafety = (v.GrahamNumber - price) / v.GrahamNumber * 100
	switch {
	case v.MarginOfSafety > 20:
		v.Verdict = "Undervalued"
	case v.MarginOfSafety < -20:
		v.Verdict = "Overvalued"
	default:
		v.Verdict = "Fairly Valued"
	}
	return v
}
