package utils

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Common NSE symbol aliases.
var symbolAliases = map[string]string{
	"RIL":          "RELIANCE",
	"INFOSYS":      "INFY",
	"HDFC BANK":    "HDFCBANK",
	"ICICI BANK":   "ICICIBANK",
	"SBI":          "SBIN",
	"AIRTEL":       "BHARTIARTL",
	"L&T":          "LT",
	"TATA MOTORS":  "TATAMOTORS",
	"TATA STEEL":   "TATASTEEL",
	"HCL TECH":     "HCLTECH",
	"KOTAK":        "KOTAKBANK",
	"AXIS BANK":    "AXISBANK",
	"SUN PHARMA":   "SUNPHARMA",
	"ASIAN PAINTS": "ASIANPAINT",
	"HUL":          "HINDUNILVR",
	"COAL INDIA":   "COALINDIA",
	"ZOMATO":       "ETERNAL",
}

// NormalizeSymbol converts user input or a data-file symbol to the canonical
// NSE form: upper case, no exchange prefix or Yahoo suffix, aliases resolved.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimPrefix(s, "$")
	for _, p := range []string{"NSE:", "BSE:"} {
		s = strings.TrimPrefix(s, p)
	}
	for _, suf := range []string{".NS", ".BO"} {
		s = strings.TrimSuffix(s, suf)
	}
	if canonical, ok := symbolAliases[s]; ok {
		return canonical
	}
	return s
}

// SymbolFromPath derives a symbol from a data file name:
// "data/eternal_prices.csv" → "ETERNAL".
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, suf := range []string{"_prices", "_price", "_ohlcv"} {
		if len(base) > len(suf) && strings.EqualFold(base[len(base)-len(suf):], suf) {
			base = base[:len(base)-len(suf)]
			break
		}
	}
	return NormalizeSymbol(base)
}

// Slug turns a company name into a lower-case file-name fragment:
// "Tata Consultancy Services Ltd." → "tata_consultancy_services_ltd".
func Slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
