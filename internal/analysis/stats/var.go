package stats

import (
	"math"
	"slices"
)

// =============================================================================
// VaR (Value at Risk)
// =============================================================================

// VaRResult holds a value-at-risk estimate. VaR and CVaR are daily returns in
// percent and keep their sign, so a loss reads negative.
type VaRResult struct {
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// HistoricalVaR estimates VaR as the (1-confidence) percentile of returns and
// CVaR as the mean of the returns at or below it. NaN returns are ignored.
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	res := VaRResult{Method: "historical", Confidence: confidence, VaR: math.NaN(), CVaR: math.NaN()}
	sorted := Clean(returns)
	if len(sorted) == 0 || confidence <= 0 || confidence >= 1 {
		return res
	}
	slices.Sort(sorted)

	res.VaR = Percentile(sorted, (1-confidence)*100)
	var tail []float64
	for _, r := range sorted {
		if r > res.VaR {
			break
		}
		tail = append(tail, r)
	}
	if len(tail) > 0 {
		res.CVaR = Mean(tail)
	}
	return res
}

// ParametricVaR estimates VaR assuming normally distributed returns.
func ParametricVaR(returns []float64, confidence float64) VaRResult {
	res := VaRResult{Method: "parametric", Confidence: confidence, VaR: math.NaN(), CVaR: math.NaN()}
	x := Clean(returns)
	if len(x) < 2 || confidence <= 0 || confidence >= 1 {
		return res
	}
	mean, std := Mean(x), StdDev(x)
	z := NormInv(confidence)

	res.VaR = mean - z*std
	// Expected shortfall of a normal tail.
	res.CVaR = mean - std*NormPDF(z)/(1-confidence)
	return res
}

// =============================================================================
// Normal distribution
// =============================================================================

// NormInv is the standard normal quantile function, using Acklam's rational
// approximation (relative error below 1.15e-9).
func NormInv(p float64) float64 {
	if p <= 0 || p >= 1 {
		return math.NaN()
	}

	a := []float64{
		-3.969683028665376e+01,
		2.209460984245205e+02,
		-2.759285104469687e+02,
		1.383577518672690e+02,
		-3.066479806614716e+01,
		2.506628277459239e+00,
	}
	b := []float64{
		-5.447609879822406e+01,
		1.615858368580409e+02,
		-1.556989798598866e+02,
		6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	c := []float64{
		-7.784894002430293e-03,
		-3.223964580411365e-01,
		-2.400758277161838e+00,
		-2.549732539343734e+00,
		4.374664141464968e+00,
		2.938163982698783e+00,
	}
	d := []float64{
		7.784695709041462e-03,
		3.224671290700398e-01,
		2.445134137142996e+00,
		3.754408661907416e+00,
	}

	const pLow = 0.02425
	const pHigh = 1 - pLow

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= pHigh:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
