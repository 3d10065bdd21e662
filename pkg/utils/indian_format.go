// Package utils provides formatting, symbol and date helpers for equiscore.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// NotAvailable is rendered for undefined or infinite values.
const NotAvailable = "N/A"

// FormatCrores formats an amount already expressed in crores using Indian
// digit grouping, e.g. 123456.7 → "₹1,23,456.70 Cr".
func FormatCrores(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	return FormatRupees(amount) + " Cr"
}

// FormatRupees formats a rupee amount with Indian grouping and two decimals.
func FormatRupees(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fmt.Sprintf("%.2f", amount)
	whole, frac, _ := strings.Cut(s, ".")
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// FormatPct formats a percentage with an explicit sign, e.g. 2.45 → "+2.45%".
func FormatPct(pct float64) string {
	switch {
	case math.IsNaN(pct), math.IsInf(pct, 0):
		return NotAvailable
	case pct >= 0:
		return fmt.Sprintf("+%.2f%%", pct)
	default:
		return fmt.Sprintf("%.2f%%", pct)
	}
}

// FormatRatio formats a ratio to the given precision. Infinite and NaN
// values render as "N/A".
func FormatRatio(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	if precision < 0 {
		precision = 2
	}
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatLargeNumber renders share volumes and counts in lakhs / crores.
// e.g., 1500000 → "15.00 L", 25000000 → "2.50 Cr"
func FormatLargeNumber(v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	a := math.Abs(v)
	switch {
	case a >= 1e7:
		return fmt.Sprintf("%.2f Cr", v/1e7)
	case a >= 1e5:
		return fmt.Sprintf("%.2f L", v/1e5)
	case a >= 1e3:
		return fmt.Sprintf("%.2f K", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// groupIndian inserts separators into a digit string: last three digits,
// then groups of two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
